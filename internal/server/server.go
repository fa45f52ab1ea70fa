package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"oncall-bot/internal/refocus"
)

// Server is the bot's HTTP surface: health checks and the webhook
// fallback for deployments without socket access.
type Server struct {
	engine     *gin.Engine
	dispatcher *Dispatcher
	log        *zap.Logger
}

// New builds the router around a dispatcher.
func New(d *Dispatcher, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:     gin.New(),
		dispatcher: d,
		log:        log,
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.POST("/v1/refocus/events", s.handleWebhook)
	return s
}

// Handler exposes the router for serving and for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebhook(c *gin.Context) {
	var ev refocus.RoomEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}
	if ev.RoomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	receipt := uuid.NewString()
	if err := s.dispatcher.HandleEvent(c.Request.Context(), ev); err != nil {
		s.log.Error("webhook dispatch failed",
			zap.String("receipt", receipt),
			zap.String("kind", string(ev.Kind)),
			zap.String("roomId", ev.RoomID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"receipt": receipt, "error": "dispatch failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"receipt": receipt})
}
