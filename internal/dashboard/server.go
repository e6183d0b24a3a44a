package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mapwatch/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server runs the dashboard router on a TCP listener.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
	addr   string
}

// NewServer binds the router to addr. gin runs in release mode.
func NewServer(addr string, h *Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: h.logger,
		addr:   addr,
	}
}

// Start listens on the configured address and serves in the background. The
// server shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dashboard listen %s: %w", s.addr, err)
	}
	s.addr = ln.Addr().String()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "dashboard server stopped", "dashboard_failed", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()
	s.logger.Info("dashboard listening", logging.String("addr", s.addr))
	return nil
}

// Addr returns the bound address, resolved after Start.
func (s *Server) Addr() string {
	return s.addr
}

// Shutdown stops the server, waiting briefly for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
