package service

import (
	"net/http"
	"time"

	"alert_relay/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter mounts the public endpoints.
func NewRouter(h *Handler, hub *Hub) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.POST("/webhook", h.Webhook)
	router.GET("/results/:clientId", h.Result)
	router.GET("/ws/results", hub.Serve)
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("dur", time.Since(start)))
	}
}

func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
