package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ollama-go/pkg/value"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{Host: srv.URL, UserAgent: "ollama-go-test", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestParseHost(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"":                              DefaultHost,
		"localhost:11434":               "http://localhost:11434",
		"http://127.0.0.1:11434/":       "http://127.0.0.1:11434",
		"https://example.com/ollama///": "https://example.com/ollama",
	}
	for input, want := range cases {
		u, err := ParseHost(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, u.String(), input)
	}

	_, err := ParseHost("ftp://example.com")
	assert.Error(t, err)
}

func TestGetSendsParamsAsQuery(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/echo", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "3", q.Get("n"))
		assert.Equal(t, "true", q.Get("flag"))
		assert.Equal(t, "llama", q.Get("name"))
		assert.Equal(t, "data:image/png;base64,AQI=", q.Get("img"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, "ollama-go-test", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	params := value.Object(map[string]value.Value{
		"n":    value.Int(3),
		"flag": value.Bool(true),
		"name": value.String("llama"),
		"img":  value.Binary("image/png", []byte{1, 2}),
	})
	out, err := fetch[map[string]bool](context.Background(), c, http.MethodGet, "/api/echo", params)
	require.NoError(t, err)
	assert.True(t, out["ok"])
}

func TestPostSendsJSONBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"llama3","n":1}`, string(body))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	params := value.Object(map[string]value.Value{"name": value.String("llama3"), "n": value.Int(1)})
	_, err := fetch[map[string]bool](context.Background(), c, http.MethodPost, "/api/x", params)
	require.NoError(t, err)
}

func TestBoolEndpointFolding(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("not json at all"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	ok, err := fetch[bool](ctx, c, http.MethodPost, "/ok", value.Null())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fetch[bool](ctx, c, http.MethodDelete, "/missing", value.Null())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fetch[bool](ctx, c, http.MethodPost, "/broken", value.Null())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteMissingModel(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/delete", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'ghost' not found"}`))
	})

	ok, err := c.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestErrorEnvelope(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"model is required"}`))
	})

	_, err := c.Generate(context.Background(), GenerateRequest{})
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusBadRequest, respErr.StatusCode)
	assert.Equal(t, "model is required", respErr.Message)
}

func TestErrorRawText(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	_, err := c.ListModels(context.Background())
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusBadGateway, respErr.StatusCode)
	assert.Equal(t, "upstream unavailable", respErr.Message)
}

func TestEmptyBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.Version(context.Background())
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestDecodingErrorCarriesStatus(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"models":"nope"}`))
	})

	_, err := c.ListModels(context.Background())
	var decodeErr *DecodingError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, http.StatusCreated, decodeErr.StatusCode)
}

func TestUnreachableServer(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	c, err := New(Config{Host: host})
	require.NoError(t, err)
	_, err = c.Version(context.Background())
	var unexpected *UnexpectedError
	assert.True(t, errors.As(err, &unexpected))
}

func TestTimeoutAppliesToFetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Host: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.Version(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "0.5.7"})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Host: srv.URL, MaxRetries: 2, RetryWait: time.Millisecond})
	require.NoError(t, err)
	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.5.7", v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNoRetryByDefault(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"busy"}`))
	})

	_, err := c.Version(context.Background())
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, "busy", respErr.Message)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTimestamp(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"2024-06-01T12:30:45.123456789Z", "2024-06-01T12:30:45Z", "2024-06-01T12:30:45+02:00"} {
		_, err := ParseTimestamp(input)
		assert.NoError(t, err, input)
	}

	_, err := ParseTimestamp("June 1st")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"June 1st"`)

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:30:45.5Z"`), &ts))
	assert.Equal(t, 500*time.Millisecond, time.Duration(ts.Nanosecond()))
}
