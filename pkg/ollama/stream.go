package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
)

const streamChunkSize = 4096

// Stream decodes a newline-delimited JSON body one item at a time.
//
//	for stream.Next() {
//		chunk := stream.Current()
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Blank lines are skipped. The first line that fails to decode ends the
// stream with a *DecodingError; a line carrying {"error": ...} ends it with
// a *ResponseError. Cancelling the context ends the stream with the
// context's error. A Stream is not safe for concurrent use.
type Stream[T any] struct {
	ctx    context.Context
	body   io.ReadCloser
	stop   func() bool
	status int

	buf   []byte // unconsumed bytes are buf[start:]
	start int
	eof   bool

	cur    T
	err    error
	done   bool
	closed bool
}

// NewStream reads NDJSON items of type T from body. Cancelling ctx closes
// body so a blocked read returns promptly.
func NewStream[T any](ctx context.Context, body io.ReadCloser) *Stream[T] {
	s := &Stream[T]{ctx: ctx, body: body, status: http.StatusOK}
	s.stop = context.AfterFunc(ctx, func() { _ = body.Close() })
	return s
}

func failedStream[T any](err error) *Stream[T] {
	return &Stream[T]{err: err, done: true, closed: true}
}

// Next advances to the next item. It returns false when the body is
// exhausted or an error occurred.
func (s *Stream[T]) Next() bool {
	if s.done {
		return false
	}
	for {
		if err := s.ctx.Err(); err != nil {
			s.fail(err)
			return false
		}

		pending := s.buf[s.start:]
		if i := bytes.IndexByte(pending, '\n'); i >= 0 {
			line := pending[:i]
			s.start += i + 1
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			return s.decode(line)
		}

		if s.eof {
			s.start = len(s.buf)
			if len(bytes.TrimSpace(pending)) == 0 {
				s.finish()
				return false
			}
			return s.decode(pending)
		}

		if err := s.fill(); err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.fail(err)
			return false
		}
	}
}

// Current returns the item decoded by the last successful Next.
func (s *Stream[T]) Current() T {
	return s.cur
}

// Err returns the error that ended the stream, if any.
func (s *Stream[T]) Err() error {
	return s.err
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream[T]) Close() error {
	s.done = true
	if s.closed {
		return nil
	}
	s.closed = true
	if s.stop != nil {
		s.stop()
	}
	return s.body.Close()
}

// All adapts the stream to a range-over-func loop. A terminal error is
// yielded once with a zero item. Breaking out of the loop closes the stream.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.Current(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the stream into a slice.
func (s *Stream[T]) Collect() ([]T, error) {
	defer s.Close()
	var items []T
	for s.Next() {
		items = append(items, s.Current())
	}
	return items, s.Err()
}

// fill reads more of the body into buf, compacting consumed bytes first and
// growing the buffer when a line does not fit.
func (s *Stream[T]) fill() error {
	if s.start > 0 {
		n := copy(s.buf, s.buf[s.start:])
		s.buf = s.buf[:n]
		s.start = 0
	}
	if cap(s.buf)-len(s.buf) < streamChunkSize/2 {
		grown := make([]byte, len(s.buf), 2*cap(s.buf)+streamChunkSize)
		copy(grown, s.buf)
		s.buf = grown
	}

	n, err := s.body.Read(s.buf[len(s.buf):cap(s.buf)])
	s.buf = s.buf[:len(s.buf)+n]
	if errors.Is(err, io.EOF) {
		s.eof = true
		return nil
	}
	if err != nil {
		return &UnexpectedError{Err: err}
	}
	return nil
}

func (s *Stream[T]) decode(line []byte) bool {
	if bytes.Contains(line, []byte(`"error"`)) {
		var envelope errorEnvelope
		if err := json.Unmarshal(line, &envelope); err == nil && envelope.Error != nil {
			s.fail(&ResponseError{StatusCode: s.status, Message: *envelope.Error})
			return false
		}
	}

	var item T
	if err := json.Unmarshal(line, &item); err != nil {
		s.fail(&DecodingError{StatusCode: s.status, Err: err})
		return false
	}
	s.cur = item
	return true
}

func (s *Stream[T]) fail(err error) {
	if s.err == nil {
		s.err = err
	}
	_ = s.Close()
}

func (s *Stream[T]) finish() {
	_ = s.Close()
}
