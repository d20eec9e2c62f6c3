package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

const maxBody = 4 << 20

// Client is the HTTP client shared by all fetchers.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a client with HTTP/2 enabled on its transport. Per
// request deadlines come from the caller's context.
func NewClient(userAgent string) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   2,
	}
	// Falls back to HTTP/1.1 silently when configuration is refused.
	_ = http2.ConfigureTransport(tr)
	if userAgent == "" {
		userAgent = "infokiosk/1.0"
	}
	return &Client{http: &http.Client{Transport: tr}, userAgent: userAgent}
}

// NewClientWith wraps an existing http.Client (tests).
func NewClientWith(hc *http.Client, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "infokiosk/1.0"
	}
	return &Client{http: hc, userAgent: userAgent}
}

// Get fetches url and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return body, nil
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
