package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Client executes HTTP requests for the SOAP driver. Network errors are
// retried with exponential backoff when MaxRetries > 0. Responses are
// returned as they are, whatever their status.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	opts       Options
}

type Options struct {
	Timeout         time.Duration
	MaxRetries      int
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Transport overrides http.DefaultTransport
	Transport http.RoundTripper
}

// NewClientWithOptions creates a new HTTP client with custom timeouts and retry settings
func NewClientWithOptions(opts Options, logger *zap.Logger) *Client {
	// Set default backoff configuration
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 2 * time.Minute
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		logger: logger,
		opts:   opts,
	}
}

// Do sends the request. The body is buffered so it can be replayed on retries.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			c.logger.Error("Failed to read request body", zap.Error(err), zap.String("url", req.URL.String()))
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.opts.InitialInterval
	expBackoff.MaxInterval = c.opts.MaxInterval
	expBackoff.Reset()

	ctx := req.Context()
	attempt := 0

	operation := func() (*http.Response, error) {
		attempt++
		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
			attemptReq.ContentLength = int64(len(body))
		}

		c.logger.Debug("Making HTTP request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt))

		resp, err := c.httpClient.Do(attemptReq)
		if err != nil {
			// Network errors are retryable
			c.logger.Warn("HTTP request failed",
				zap.Error(err),
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt))
			return nil, err
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(c.opts.MaxElapsed),
		backoff.WithMaxTries(uint(c.opts.MaxRetries+1)),
	)
	if err != nil {
		c.logger.Error("HTTP request failed after retries",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("attempts", attempt))
		return nil, err
	}

	c.logger.Debug("HTTP request completed",
		zap.Int("status_code", resp.StatusCode),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	return resp, nil
}
