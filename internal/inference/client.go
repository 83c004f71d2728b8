// Package inference talks to the local inference runtime over HTTP.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL    = "http://127.0.0.1:3928"
	DefaultChatPath   = "/inferences/server/chat_completion"
	DefaultHealthPath = "/healthz"
)

// HTTPClient defines the interface for an HTTP client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config locates the runtime and sets transport level timeouts. Zero
// timeouts mean no limit.
type Config struct {
	BaseURL               string
	ChatPath              string
	HealthPath            string
	DialTimeout           time.Duration
	ResponseHeaderTimeout time.Duration
}

// Response is an open upstream response. The caller owns Body and must
// close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// OK reports whether the runtime answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	http   HTTPClient
	cfg    Config
	tracer trace.Tracer
}

// NewClient builds a client. When httpClient is nil a dedicated transport is
// created from cfg; it never sets an overall request timeout because
// completions may stream for a long time.
func NewClient(cfg Config, httpClient HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChatPath == "" {
		cfg.ChatPath = DefaultChatPath
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = DefaultHealthPath
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 nil,
				DialContext:           (&net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   100,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
				// the body is relayed byte for byte, let the caller see the
				// runtime's encoding untouched
				DisableCompression: true,
			},
		}
	}

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/nulzo/prism-local/internal/inference"),
	}
}

// ChatURL is the runtime's chat completion endpoint.
func (c *Client) ChatURL() string {
	return c.cfg.BaseURL + c.cfg.ChatPath
}

// ChatCompletion POSTs body to the runtime and returns the open response.
// Any status code is returned as a Response; only transport failures are
// errors. Cancelling ctx aborts the request and any read of Body.
func (c *Client) ChatCompletion(ctx context.Context, body []byte) (*Response, error) {
	url := c.ChatURL()

	ctx, span := c.tracer.Start(ctx, "inference.chat_completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", url),
			attribute.Int("http.request.body.size", len(body)),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, &TransportError{URL: url, Err: err}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// Health checks that the runtime answers on its health path.
func (c *Client) Health(ctx context.Context) error {
	url := c.cfg.BaseURL + c.cfg.HealthPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{StatusCode: resp.StatusCode, URL: url}
	}
	return nil
}
