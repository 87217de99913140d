// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tcsantanello/tokengov/internal/vaulthttp"
)

// Server is the vault's main HTTP server: health/readiness endpoints plus,
// once SetupRouter runs, every vault operation route.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
	db     *sql.DB
}

// NewServer creates a new HTTP server. db may be nil; when set, the
// readiness endpoint pings it to report component health.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		db:     db,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the full router: request id, recovery, CORS, logging
// middleware, health/readiness endpoints, and every vault route bound to
// handler. Call once before Start.
func (s *Server) SetupRouter(handler *vaulthttp.Handler, corsEnabled bool, corsOrigins string, rateLimitEnabled bool, rateLimitRPS float64, rateLimitBurst int) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	if cm := createCORSMiddleware(corsEnabled, corsOrigins, s.logger); cm != nil {
		router.Use(cm)
	}
	if rateLimitEnabled {
		router.Use(RateLimitMiddleware(rateLimitRPS, rateLimitBurst, s.logger))
	}
	router.Use(CustomLoggerMiddleware(s.logger))

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	if handler != nil {
		v1 := router.Group("/v1")
		v1.GET("/status", handler.StatusHandler)
		v1.POST("/vaults", handler.CreateVaultHandler)
		v1.GET("/vaults/:name/status", handler.VaultStatusHandler)
		v1.POST("/vaults/:name/tokenize", handler.TokenizeHandler)
		v1.POST("/vaults/:name/detokenize", handler.DetokenizeHandler)
		v1.POST("/vaults/:name/retrieve", handler.RetrieveHandler)
		v1.PATCH("/vaults/:name/tokens", handler.UpdateHandler)
		v1.DELETE("/vaults/:name/tokens/:token", handler.RemoveHandler)
		v1.POST("/vaults/:name/query", handler.QueryHandler)
		v1.POST("/vaults/:name/rekey", handler.RekeyVaultHandler)
	}

	s.router = router
	s.server.Handler = router
	return router
}

// healthHandler reports liveness unconditionally.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports readiness, pinging the database when configured.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else if err := s.db.PingContext(c.Request.Context()); err != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// Start starts the HTTP server. If SetupRouter has not run, Start builds a
// router with only the /health and /ready endpoints and no vault routes.
func (s *Server) Start(ctx context.Context) error {
	if s.server.Handler == nil && s.router != nil {
		s.server.Handler = s.router
	}
	if s.server.Handler == nil {
		s.SetupRouter(nil, false, "", false, 0, 0)
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
