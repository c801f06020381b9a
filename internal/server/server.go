package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"inwista-wallet-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server runs the wallet HTTP listener.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// NewServer serves handler on cfg.Port. With EnableH2C the listener also
// accepts cleartext HTTP/2 alongside HTTP/1.1.
func NewServer(cfg models.ServerConfig, handler http.Handler) *Server {
	if cfg.EnableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start listens in the background. Listener failures other than a normal
// shutdown are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown drains in-flight requests for at most the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
