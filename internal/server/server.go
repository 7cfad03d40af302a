// file: internal/server/server.go
// version: 1.0.0
// guid: 2e7f4c9b-6d1a-4f3e-4b8c-0a5d3e6f9c2b

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/abs-meta/internal/cache"
	"github.com/jdfalk/abs-meta/internal/config"
	"github.com/jdfalk/abs-meta/internal/metrics"
	"github.com/jdfalk/abs-meta/internal/models"
	"github.com/jdfalk/abs-meta/internal/providers"
	"github.com/jdfalk/abs-meta/internal/server/middleware"
)

// ServerConfig holds HTTP server timing configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// GetDefaultServerConfig returns sensible defaults for the HTTP server.
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         fmt.Sprintf("%d", config.App().ListenPort),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the metadata provider HTTP surface: provider discovery,
// cached search, and the cache admin endpoints.
type Server struct {
	engine   *gin.Engine
	registry *providers.Registry
	cache    *cache.Service
}

// NewServer wires the routes onto a fresh gin engine.
func NewServer(registry *providers.Registry, svc *cache.Service) *Server {
	metrics.Register()

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.BasicAuth())
	if perMin := config.App().RateLimitPerMinute; perMin > 0 {
		limiter := middleware.NewIPRateLimiter(perMin, perMin)
		engine.Use(limiter.Middleware())
	}

	s := &Server{
		engine:   engine,
		registry: registry,
		cache:    svc,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/providers", s.handleProviders)
	s.engine.GET("/:provider/search", s.handleSearch)
	s.engine.GET("/:provider/:pathParam/search", s.handleSearchWithPathParam)
	s.engine.GET("/:provider/params/:pathParam/whitelist", s.handleParameterWhitelist)
	s.engine.DELETE("/cache/:provider", s.handleClearProvider)
	s.engine.DELETE("/cache/expired", s.handleClearExpired)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start(cfg ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[DEBUG] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("[DEBUG] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleProviders(c *gin.Context) {
	list := make([]gin.H, 0, len(s.registry.All()))
	for _, p := range s.registry.All() {
		cfg := p.Config()
		list = append(list, gin.H{
			"name":                cfg.Name,
			"requiredParams":      cfg.RequiredParams,
			"optionalParams":      cfg.OptionalParams,
			"parameterWhitelists": cfg.ParameterWhitelists,
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": list})
}

func (s *Server) handleParameterWhitelist(c *gin.Context) {
	providerName := c.Param("provider")
	paramName := c.Param("pathParam")

	p := s.registry.Get(providerName)
	if p == nil {
		RespondWithNotFound(c, "provider", providerName)
		return
	}

	whitelist, ok := p.Config().ParameterWhitelists[paramName]
	if !ok {
		RespondWithNotFound(c, "whitelist for parameter", paramName)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider":      providerName,
		"parameter":     paramName,
		"allowedValues": whitelist,
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	s.search(c, nil)
}

// handleSearchWithPathParam binds the positional path segment to the
// provider's first required parameter, falling back to its first optional
// parameter.
func (s *Server) handleSearchWithPathParam(c *gin.Context) {
	providerName := c.Param("provider")
	value := c.Param("pathParam")

	p := s.registry.Get(providerName)
	if p == nil {
		RespondWithNotFound(c, "provider", providerName)
		return
	}

	cfg := p.Config()
	pathParams := map[string]string{}
	switch {
	case len(cfg.RequiredParams) > 0:
		pathParams[cfg.RequiredParams[0]] = value
	case len(cfg.OptionalParams) > 0:
		pathParams[cfg.OptionalParams[0]] = value
	default:
		RespondWithBadRequest(c, fmt.Sprintf("provider '%s' does not accept any path parameters", providerName))
		return
	}

	s.search(c, pathParams)
}

func (s *Server) search(c *gin.Context, pathParams map[string]string) {
	providerName := c.Param("provider")

	p := s.registry.Get(providerName)
	if p == nil {
		RespondWithNotFound(c, "provider", providerName)
		return
	}

	var query models.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondWithBadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	results, err := providers.SearchWithCache(c.Request.Context(), p, s.cache, query, pathParams)
	if err != nil {
		var verr *providers.ValidationError
		if errors.As(err, &verr) {
			RespondWithValidationError(c, verr.Error())
			return
		}
		RespondWithInternalError(c, "search failed")
		return
	}

	if results == nil {
		results = []models.BookMetadata{}
	}

	resp := gin.H{"results": results, "provider": providerName}
	if pathParams != nil {
		resp["pathParams"] = pathParams
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleClearProvider(c *gin.Context) {
	providerName := c.Param("provider")
	if s.registry.Get(providerName) == nil {
		RespondWithNotFound(c, "provider", providerName)
		return
	}

	if err := s.cache.ClearProvider(providerName); err != nil {
		RespondWithInternalError(c, "failed to clear provider cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": providerName, "cleared": true})
}

func (s *Server) handleClearExpired(c *gin.Context) {
	removed, err := s.cache.ClearExpired()
	if err != nil {
		RespondWithInternalError(c, "failed to clear expired entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
