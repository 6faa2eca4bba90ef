package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/cfa-cal/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/ics/*path", handler.GetFeed)

	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	{
		api.GET("/calendar", handler.GetCalendar)
		api.GET("/venues", handler.ListVenues)

		protected := api.Group("")
		if apiAccessKey != "" {
			protected.Use(authMiddleware(apiAccessKey))
			slog.Info("Refresh and fetch log endpoints require API key")
		} else {
			slog.Warn("Refresh and fetch log endpoints are unauthenticated (API_ACCESS_KEY not set)")
		}
		protected.POST("/calendar/refresh", handler.RefreshCalendar)
		protected.GET("/calendar/refresh", handler.RefreshCalendar)
		protected.GET("/fetch-logs", handler.ListFetchLogs)
	}

	r.GET("/", func(c *gin.Context) {
		suffix := ""
		if apiAccessKey != "" {
			suffix = " (requires X-API-Key header)"
		}

		c.JSON(http.StatusOK, gin.H{
			"service":     "CFA Calendar",
			"version":     cfg.GetVersion(),
			"description": "China Film Archive screening schedule as JSON and iCalendar feeds",
			"endpoints": map[string]string{
				"calendar":   "/api/calendar",
				"feed":       "/ics/[<region>/[<venue>/[<hall>/]]]calendar.ics",
				"venues":     "/api/venues",
				"health":     "/health",
				"refresh":    "/api/calendar/refresh" + suffix,
				"fetch_logs": "/api/fetch-logs" + suffix,
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.NoRoute(handler.NoRoute)
}

// authMiddleware accepts the key in X-API-Key or as a bearer token
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
