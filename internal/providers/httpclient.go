package providers

import (
	"net/http"
	"time"
)

// newPooledClient builds an HTTP client with keep-alive connection pooling
// shared across calls to the same provider. Pool exhaustion or dial failures
// surface as ordinary transport errors from the adapter.
func newPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
