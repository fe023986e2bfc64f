// internal/web/server.go
package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"pingwatch/internal/config"
	"pingwatch/internal/metrics"
	"pingwatch/internal/monitoring"
)

// Server is the HTTP presentation layer. It only reads from the monitor
// core; all of its endpoints are safe to call while probing is running.
type Server struct {
	config  *config.Config
	core    *monitoring.Core
	metrics *metrics.Collector
	router  *gin.Engine
	server  *http.Server

	wsClients   map[*WSClient]bool
	wsClientsMu sync.RWMutex
}

func NewServer(cfg *config.Config, core *monitoring.Core, metricsCollector *metrics.Collector) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	server := &Server{
		config:      cfg,
		core:        core,
		metrics:     metricsCollector,
		router:      router,
		wsClients: make(map[*WSClient]bool),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.serveDashboard)

	api := s.router.Group("/api")
	{
		api.GET("/hosts", s.getHosts)
		api.GET("/hosts/:id", s.getHost)
		api.GET("/hosts/:id/history", s.getHostHistory)
		api.GET("/health", s.healthCheck)
		api.GET("/buildinfo", s.getBuildInfo)
	}

	s.router.GET("/ws", s.handleWebSocket)

	if s.config.Prometheus.Enabled {
		s.router.GET(s.config.Prometheus.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout.Std(),
		WriteTimeout: s.config.Server.WriteTimeout.Std(),
	}

	logrus.WithField("port", s.config.Server.Port).Info("Starting web server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) serveDashboard(c *gin.Context) {
	c.File(s.config.Server.DashboardFile)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
