package routes

import (
	"context"
	"net"
	"net/http"

	"github.com/angelmondragon/storefront/pkg/config"
)

// NewServer builds the HTTP server for handler. Every request context is
// derived from ctx, so cancelling ctx ends open cart event streams and lets
// Shutdown finish draining instead of waiting out its timeout.
func NewServer(ctx context.Context, addr string, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
