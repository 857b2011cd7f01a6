package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"ollama-go/pkg/value"
)

// newRequest builds a request for path. GET params become query items in
// their display form; other methods send params as a JSON body. A null
// params value means no body.
func (c *Client) newRequest(ctx context.Context, method, path string, params value.Value) (*retryablehttp.Request, error) {
	u := c.base.JoinPath(path)

	var body []byte
	if method == http.MethodGet {
		if fields, ok := params.AsObject(); ok && len(fields) > 0 {
			q := u.Query()
			for _, key := range params.Keys() {
				q.Set(key, fields[key].String())
			}
			u.RawQuery = q.Encode()
		}
	} else if !params.IsNull() {
		body = value.Marshal(params)
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), rawBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do sends one request and returns the raw response. The caller owns the body.
func (c *Client) do(ctx context.Context, method, path string, params value.Value) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, params)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, &UnexpectedError{Err: err}
	}
	if resp == nil {
		return nil, &UnexpectedError{Err: errors.New("no response")}
	}
	c.logger.Debug("request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// fetch runs a non-streaming request and decodes the response into T.
// When T is bool the status alone decides the result and non-2xx is never
// an error.
func fetch[T any](ctx context.Context, c *Client, method, path string, params value.Value) (T, error) {
	var out T
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, method, path, params)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, &UnexpectedError{Err: err}
	}
	return decodeResponse[T](resp.StatusCode, body)
}

func decodeResponse[T any](status int, body []byte) (T, error) {
	var out T
	if ok, isBool := any(&out).(*bool); isBool {
		*ok = isSuccess(status)
		return out, nil
	}
	if !isSuccess(status) {
		return out, responseError(status, body)
	}
	if len(body) == 0 {
		return out, ErrEmptyBody
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DecodingError{StatusCode: status, Err: err}
	}
	return out, nil
}

// openStream runs a streaming request. Non-2xx responses are read in full
// and reported through the stream's Err.
func openStream[T any](ctx context.Context, c *Client, method, path string, params value.Value) *Stream[T] {
	resp, err := c.do(ctx, method, path, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failedStream[T](ctxErr)
		}
		return failedStream[T](err)
	}
	if !isSuccess(resp.StatusCode) {
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return failedStream[T](&UnexpectedError{Err: readErr})
		}
		return failedStream[T](responseError(resp.StatusCode, body))
	}
	s := NewStream[T](ctx, resp.Body)
	s.status = resp.StatusCode
	return s
}
