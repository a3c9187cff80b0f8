// Package httpserver builds the server hosting the consent surface.
package httpserver

import (
	"net/http"
	"time"
)

// New returns the configured server. Per-request deadlines live in the
// middleware stack; the server only bounds header reads and idle keep-alive
// connections so a slow client cannot pin a listener slot.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
