package api

import (
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single bot API call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// NewHTTPClient returns a pooled HTTP client whose whole request, including
// reading the response body, is bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
		},
	}
}

// readBody reads at most maxResponseBytes of resp's body and closes it.
func readBody(resp *http.Response) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}
