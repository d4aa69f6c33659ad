package source

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxResponseSize = 10 * 1024 * 1024 // firewalls with thousands of rules stay well under this

// HTTPConfig is the shared transport configuration for gateway API clients.
type HTTPConfig struct {
	RequestTimeout time.Duration
	ConnectTimeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Firewall
	// management interfaces commonly run on self-signed certificates.
	InsecureSkipVerify bool
}

func (c *HTTPConfig) ApplyDefaults() {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// NewHTTPClient builds an http.Client per the config.
func NewHTTPClient(cfg HTTPConfig) *http.Client {
	cfg.ApplyDefaults()
	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
		},
	}
}

// GetJSON issues an authenticated GET and decodes the JSON response into
// result. auth mutates the request with vendor-specific credentials.
func GetJSON(ctx context.Context, client *http.Client, url string, auth func(*http.Request), result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed (HTTP 401): check API credentials")
	case http.StatusForbidden:
		return fmt.Errorf("access forbidden (HTTP 403): check API user permissions")
	case http.StatusNotFound:
		return fmt.Errorf("endpoint not found (HTTP 404): check API URL")
	default:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
}
