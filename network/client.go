// Package network provides the shared HTTP client used for manifest and fragment delivery.
package network

import (
	"net/http"
	"time"

	"github.com/livetv-cli/livetv/log"
	"golang.org/x/net/http2"
)

// Client is the HTTP client shared by every engine instance.
// It carries no overall timeout; each request is bounded by its context instead.
var Client = &http.Client{
	Transport: newTransport(),
}

func newTransport() http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 64
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 20 * time.Second
	t.ExpectContinueTimeout = time.Second

	// CDNs serving live segments multiplex far better over h2.
	if err := http2.ConfigureTransport(t); err != nil {
		log.Warnf("http2 unavailable, falling back to http/1.1: %v", err)
	}
	return t
}
