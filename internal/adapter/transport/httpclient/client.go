package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"webhook-dispatcher/config"
	"webhook-dispatcher/internal/core/ports"
)

// DefaultResponseBodyLimit caps how much of a response body is kept.
const DefaultResponseBodyLimit int64 = 64 << 10

// Client implements ports.HTTPTransport over a pooled http.Transport. It
// never follows redirects; a 3xx is reported to the caller as is.
type Client struct {
	http      *http.Client
	bodyLimit int64
	userAgent string
}

// New creates a pooled client from the http_client configuration.
func New(cfg config.HTTPClientConfig, userAgent string) *Client {
	dialer := &net.Dialer{
		Timeout:   durationOr(cfg.DialTimeout, 5*time.Second),
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          intOr(cfg.MaxIdleConns, 200),
		MaxIdleConnsPerHost:   intOr(cfg.MaxIdleConnsPerHost, 20),
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       durationOr(cfg.IdleConnTimeout, 90*time.Second),
		TLSHandshakeTimeout:   durationOr(cfg.TLSHandshakeTimeout, 5*time.Second),
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
		DialContext:           dialer.DialContext,
	}
	if cfg.DNSCacheTTL > 0 {
		transport.DialContext = newDNSCache(cfg.DNSCacheTTL, nil).dialContext(dialer)
	}

	return NewWithHTTPClient(&http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, cfg.ResponseBodyLimit, userAgent)
}

// NewWithHTTPClient wraps an existing http.Client.
func NewWithHTTPClient(hc *http.Client, bodyLimit int64, userAgent string) *Client {
	if bodyLimit <= 0 {
		bodyLimit = DefaultResponseBodyLimit
	}
	return &Client{http: hc, bodyLimit: bodyLimit, userAgent: userAgent}
}

// Send performs one request. A non-nil error means no response was received;
// any status code, including 5xx, is returned as a response.
func (c *Client) Send(ctx context.Context, req ports.HTTPRequest) (*ports.HTTPResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpRes.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpRes.Body, c.bodyLimit+1))
	latency := time.Since(start)
	if err != nil {
		// status and headers arrived; keep what was read
		body = nil
	}
	truncated := int64(len(body)) > c.bodyLimit
	if truncated {
		body = body[:c.bodyLimit]
	}
	// drain a little more so the connection can be reused
	_, _ = io.CopyN(io.Discard, httpRes.Body, 4<<10)

	return &ports.HTTPResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       body,
		Truncated:  truncated,
		Latency:    latency,
	}, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

func intOr(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
