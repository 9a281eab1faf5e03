package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/restcheck/restcheck/packages/core/resolve"
)

const (
	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client issues one HTTP call per resolved unit, bounded by a timeout,
// and normalizes the response.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}
	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if c.proxyURL != "" {
		if proxyURL, err := neturl.Parse(c.proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !c.followRedirect || len(via) >= c.maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithDefaultHeaders sets headers sent with every request unless the
// request declares the same header itself.
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables TLS certificate validation.
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// Execute sends the unit's request and returns the executed unit, or an
// error on network or timeout failure.
func (c *Client) Execute(ctx context.Context, unit *resolve.Unit) (*ExecutedUnit, error) {
	sent := buildRequest(unit, c.defaultHeaders)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if sent.Body != "" {
		body = bytes.NewBufferString(sent.Body)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, sent.Method, sent.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range sent.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	return &ExecutedUnit{
		Unit: unit,
		Sent: sent,
		Response: &Response{
			StatusCode: httpResp.StatusCode,
			Status:     httpResp.Status,
			Headers:    headers,
			Body:       respBody,
			Duration:   duration,
		},
	}, nil
}

// buildRequest materializes the literal request: default headers merged
// beneath the unit's own headers (the request wins on collision), and
// the body's declared content type applied only when no header sets one.
func buildRequest(unit *resolve.Unit, defaults map[string]string) *Request {
	req := unit.Request
	sent := &Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: make(map[string]string, len(defaults)+len(req.Headers)),
	}
	for k, v := range defaults {
		sent.Headers[k] = v
	}
	for _, h := range req.Headers {
		sent.Headers[h.Name] = h.Value
	}
	if req.Body != nil {
		sent.Body = req.Body.Raw
		if req.Body.ContentType != "" && !hasHeader(sent.Headers, "Content-Type") {
			sent.Headers["Content-Type"] = req.Body.ContentType
		}
	}
	return sent
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
