package ollama

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyBody is returned when a successful response has no body to decode.
var ErrEmptyBody = errors.New("ollama: empty response body")

// RequestError reports a request that could not be built.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "ollama: build request: " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// ResponseError is a non-2xx response. Message is the server's error text,
// or the raw body when the body is not an error envelope.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("ollama: status %d: %s", e.StatusCode, e.Message)
}

// DecodingError reports a body that did not match the expected shape.
type DecodingError struct {
	StatusCode int
	Err        error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("ollama: decode response (status %d): %v", e.StatusCode, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// UnexpectedError wraps transport failures: no response, unreadable body,
// connection resets.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string { return "ollama: " + e.Err.Error() }

func (e *UnexpectedError) Unwrap() error { return e.Err }

type errorEnvelope struct {
	Error *string `json:"error"`
}

// responseError classifies a non-2xx body.
func responseError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return &ResponseError{StatusCode: status, Message: *envelope.Error}
	}
	return &ResponseError{StatusCode: status, Message: string(body)}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
