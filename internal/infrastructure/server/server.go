package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/handyshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/handyshell/internal/runtime/supervisor"
)

const shutdownTimeout = 2 * time.Second

// StatusProvider reports the supervised backend's state.
type StatusProvider interface {
	Status() supervisor.Status
}

// Server is the loopback admin endpoint
type Server struct {
	addr     string
	router   *gin.Engine
	http     *http.Server
	listener net.Listener
	status   StatusProvider
	logger   *zap.Logger
}

// New creates an admin server instance
func New(addr string, status StatusProvider, metrics *monitoring.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}

	s := &Server{
		addr:   addr,
		router: router,
		status: status,
		logger: logger,
	}

	router.GET("/health", s.health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	s.http = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address and returns the bound address
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve handles requests until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("admin server: Serve called before Listen")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(s.listener)
	}()
	s.logger.Info("Admin server listening", zap.String("addr", s.listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Admin server shutdown incomplete", zap.Error(err))
		return s.http.Close()
	}
	s.logger.Info("Admin server stopped")
	return nil
}

// Run listens and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Backend supervisor.Status `json:"backend"`
}

// health reports 200 while the backend runs and 503 otherwise
func (s *Server) health(c *gin.Context) {
	st := s.status.Status()

	if st.Spawned && !st.Exited && st.State == supervisor.StateRunning.String() {
		c.JSON(http.StatusOK, healthResponse{Status: "ok", Backend: st})
		return
	}
	c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "degraded", Backend: st})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Admin request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
}
