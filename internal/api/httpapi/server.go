// Package httpapi provides the JSON HTTP API for singers and hosts.
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/osa030/karaokebox/internal/app/session"
	"github.com/osa030/karaokebox/internal/infra/config"
	"github.com/osa030/karaokebox/internal/infra/metrics"
)

// Server routes HTTP requests to the room manager.
type Server struct {
	config  *config.Config
	session *session.Manager
	metrics *metrics.Metrics
	router  *gin.Engine
}

// New creates the API server. A nil metrics disables the metrics endpoint.
func New(cfg *config.Config, mgr *session.Manager, mt *metrics.Metrics) *Server {
	s := &Server{
		config:  cfg,
		session: mgr,
		metrics: mt,
		router:  gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", AdminTokenHeader}

	s.router.Use(gin.Recovery(), RequestLogger(), cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "karaokebox"})
	})
	if s.metrics != nil {
		s.router.GET(s.config.Server.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")
	{
		// Participant routes
		api.GET("/flow-rules", s.listFlowRules)
		api.GET("/songs", s.searchSongs)
		api.POST("/rooms/:id/singers", s.join)
		api.POST("/rooms/:id/requests", s.requestSong)
		api.GET("/rooms/:id/queue", s.queue)
		api.GET("/rooms/:id/events", s.streamEvents)

		// Host routes
		host := api.Group("/")
		host.Use(RequireAdmin(s.config.Admin.Token))
		{
			host.POST("/rooms", s.createRoom)
			host.GET("/rooms", s.listRooms)
			host.GET("/rooms/:id", s.status)
			host.GET("/rooms/:id/recommendation", s.recommend)
			host.POST("/rooms/:id/singers/:sid/kick", s.kick)

			host.POST("/rooms/:id/stage/next", s.startNext)
			host.POST("/rooms/:id/stage/complete", s.completePerformance)
			host.POST("/rooms/:id/moments", s.triggerMoment)
			host.POST("/rooms/:id/moments/end", s.endMoment)

			host.PUT("/rooms/:id/queue-settings", s.updateQueueSettings)
			host.PUT("/rooms/:id/policy", s.updatePolicy)
			host.POST("/rooms/:id/flow-rule", s.applyFlowRule)
			host.POST("/rooms/:id/preset", s.applyPreset)
			host.PUT("/rooms/:id/moderation", s.setModeration)

			host.POST("/rooms/:id/close", s.closeRoom)
			host.POST("/rooms/:id/reopen", s.reopenRoom)
		}
	}
}
