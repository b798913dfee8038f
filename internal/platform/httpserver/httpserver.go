// Package httpserver configures the HTTP server with sane timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an *http.Server for the given address and handler.
// Per-request deadlines come from the timeout middleware; the server
// itself only guards against slow clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
