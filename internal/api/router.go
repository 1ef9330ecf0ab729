// Package api wires the HTTP trigger routes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/roksva123/taskbridge/internal/api/handlers"
	"github.com/roksva123/taskbridge/internal/api/middleware"
)

var rejectedMethods = []string{
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodTrace,
}

// NewRouter builds the gin engine. jwtSecret enables bearer auth on every
// route except the health check.
func NewRouter(h *handlers.SyncHandler, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", handlers.Health)
	r.Match(rejectedMethods, "/api/sync", handlers.MethodNotAllowed)
	r.Match(rejectedMethods, "/api/sync-teams", handlers.MethodNotAllowed)

	api := r.Group("/api", middleware.Auth(jwtSecret))
	{
		api.GET("/sync", h.TriggerSync)
		api.POST("/sync", h.TriggerSync)

		api.GET("/sync-teams", h.TriggerTeams)
		api.POST("/sync-teams", h.TriggerTeams)

		api.GET("/v1/sync/history", h.GetSyncHistory)
	}

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
