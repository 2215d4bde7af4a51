package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Only the header read is bounded: request bodies
// can be multi-hundred-megabyte eSocial archives, so body read deadlines are
// left to the upload handler's size ceiling.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
