package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-workspace/internal/auth"
	"github.com/vovakirdan/wirechat-workspace/internal/config"
	"github.com/vovakirdan/wirechat-workspace/internal/core"
	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
)

// NewServer builds an HTTP server exposing the workspace API.
func NewServer(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	limiter := newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	api := router.Group("/api")
	api.Use(AuthMiddleware(authService, logger))
	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter))
	}

	messages := NewMessageHandlers(hub, logger)
	standups := NewStandupHandlers(hub, logger)

	for prefix, kind := range map[string]msgid.Kind{"/channels/:id": msgid.Channel, "/dms/:id": msgid.DM} {
		container := api.Group(prefix)
		container.POST("/messages", messages.Send(kind))
		container.POST("/messages/later", messages.SendLater(kind))
		container.GET("/messages", messages.List(kind))
		container.POST("/standup", standups.Start(kind))
		container.POST("/standup/send", standups.Send(kind))
		container.GET("/standup", standups.Active(kind))
	}

	api.POST("/messages/:id/share", messages.Share)
	api.PUT("/messages/:id", messages.Edit)
	api.DELETE("/messages/:id", messages.Remove)
	api.POST("/messages/:id/pin", messages.Pin)
	api.POST("/messages/:id/unpin", messages.Unpin)
	api.POST("/messages/:id/react", messages.React)
	api.POST("/messages/:id/unreact", messages.Unreact)
	api.GET("/search", messages.Search)
	api.GET("/notifications", messages.Notifications)

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	if limiter != nil {
		stop := make(chan struct{})
		limiter.startCleanup(stop)
		server.RegisterOnShutdown(func() { close(stop) })
	}

	return server
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
