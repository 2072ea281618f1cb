// Package api provides the HTTP status API for an ADTP listener
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZentaChain/adtp/pkg/network"
	"github.com/ZentaChain/adtp/pkg/storage"
)

// StatsSource reports live listener counters
type StatsSource interface {
	Stats() network.Stats
}

// LedgerSource reads the connection ledger
type LedgerSource interface {
	Recent(limit int) ([]*storage.ConnectionRecord, error)
	Counts() (map[string]int, error)
}

// Server represents the HTTP status server
type Server struct {
	stats      StatsSource
	ledger     LedgerSource
	router     *gin.Engine
	addr       string
	httpServer *http.Server
	log        *zap.Logger
	startTime  time.Time
}

// Config holds server configuration
type Config struct {
	Addr         string
	EnableCORS   bool
	RateLimit    int // Requests per minute, 0 disables
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:8080",
		EnableCORS:   false,
		RateLimit:    120,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewServer creates the status server. ledger may be nil.
func NewServer(stats StatsSource, ledger LedgerSource, config *Config, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		stats:     stats,
		ledger:    ledger,
		router:    gin.New(),
		addr:      config.Addr,
		log:       logger,
		startTime: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.setupMiddleware(config)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	if config.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(NewRateLimiter(config.RateLimit)))
	}
	s.router.Use(LoggingMiddleware(s.log))
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/listener/stats", s.handleStats)
		v1.GET("/connections", s.handleConnections)
		v1.GET("/connections/summary", s.handleSummary)
	}

	s.router.GET("/health", s.handleHealth)
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Status API listening", zap.String("addr", s.addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down status API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
