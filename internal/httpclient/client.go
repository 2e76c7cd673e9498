// Package httpclient provides the shared HTTP session used for every
// storefront request: fixed browser-like headers, cookie reuse, and a
// per-request timeout.
package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// The storefront answers 403 to anything that does not look like a
// browser, so this header profile is fixed rather than configurable.
// Accept-Encoding only advertises codecs the client decodes itself;
// setting the header by hand disables the transport's transparent gzip.
var sessionHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept-Encoding": "gzip, deflate",
	"Connection":      "keep-alive",
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports whether the status code is a success.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is a session against a single storefront host.
type Client struct {
	hc *http.Client
}

// New builds a session with the given per-request timeout.
func New(timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		hc: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// HTTPClient exposes the underlying client so tests can swap its
// transport.
func (c *Client) HTTPClient() *http.Client {
	return c.hc
}

// Get fetches a URL with the session header profile and returns the
// decoded body. Non-2xx responses are returned, not errors; callers
// decide what a bad status means for their unit of work.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	for k, v := range sessionHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func decodeBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
