// Package ollama is a typed client for the Ollama inference server HTTP API.
package ollama

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	DefaultHost    = "http://127.0.0.1:11434"
	DefaultTimeout = 2 * time.Minute
)

// Config controls how a Client talks to the server.
type Config struct {
	// Host is the server address. A missing scheme defaults to http.
	Host      string
	UserAgent string
	// Timeout bounds non-streaming requests. Streams are bounded by their
	// context only. Zero disables the timeout.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for connection errors and
	// 5xx responses. Zero sends each request once.
	MaxRetries int
	// RetryWait is the first backoff between attempts. Zero keeps the
	// retryablehttp default.
	RetryWait  time.Duration
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// DefaultConfig returns the configuration for a local server.
func DefaultConfig() Config {
	return Config{Host: DefaultHost, Timeout: DefaultTimeout}
}

// Client is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *retryablehttp.Client
	userAgent string
	timeout   time.Duration
	logger    *zap.Logger
}

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	base, err := ParseHost(cfg.Host)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = cfg.MaxRetries
	if cfg.RetryWait > 0 {
		rc.RetryWaitMin = cfg.RetryWait
		rc.RetryWaitMax = 30 * cfg.RetryWait
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = retryLogger{logger.Sugar()}

	return &Client{
		base:      base,
		http:      rc,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		logger:    logger,
	}, nil
}

// Host returns the normalized server address.
func (c *Client) Host() string {
	return c.base.String()
}

// ParseHost normalizes a server address such as "localhost:11434" or
// "https://example.com/ollama/" into a base URL without a trailing slash.
func ParseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid host %q: unsupported scheme %q", host, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid host %q: missing hostname", host)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// retryLogger routes retryablehttp logging into zap.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
