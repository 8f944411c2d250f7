// Package httpserver builds the server fronting the visitor API.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server for the visitor routes. Requests are small CRUD
// and reporting calls, so read/write timeouts stay tight; idle keep-alives
// are held longer for polling dashboards.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
