package router

import (
	"net/http"
	"strconv"
	"strings"

	"swap4x-backend/internal/config"
	"swap4x-backend/internal/handlers"
	"swap4x-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsMiddleware CORS middleware
// Origins come from config (env override handled at config load time);
// defaults to allow-all when nothing is configured.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowedOrigins := []string{"*"}
		allowCredentials := true
		maxAge := 3600

		if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			allowCredentials = config.AppConfig.CORS.AllowCredentials
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		origin := c.GetHeader("Origin")
		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Handlers bundles the handler set the router mounts.
type Handlers struct {
	Bridge    *handlers.BridgeHandler
	Price     *handlers.PriceHandler
	Analytics *handlers.AnalyticsHandler
	WebSocket *handlers.WebSocketHandler
}

// SetupRouter builds the Gin engine with all routes mounted.
func SetupRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	adminOnly := middleware.NewAdminOnly(allowedIPs)

	// ============ Health ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "swap4x-backend",
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	api := r.Group("/api")
	{
		bridge := api.Group("/bridge")
		{
			bridge.GET("/routes", h.Bridge.GetRoutesHandler)
			bridge.POST("/quote", h.Bridge.GetQuoteHandler)
			bridge.POST("/execute", h.Bridge.ExecuteHandler)
			bridge.GET("/status/:bridgeId", h.Bridge.StatusHandler)
			bridge.GET("/history/:userAddress", h.Bridge.HistoryHandler)
			bridge.GET("/protocols", h.Bridge.ProtocolsHandler)
			bridge.GET("/chains", h.Bridge.ChainsHandler)
		}

		prices := api.Group("/prices")
		{
			prices.GET("", h.Price.GetPricesHandler)
			prices.GET("/:token", h.Price.GetPriceHandler)
			prices.GET("/:token/history", h.Price.GetPriceHistoryHandler)
		}

		api.GET("/analytics", adminOnly.Restrict(), h.Analytics.GetAnalyticsHandler)
	}

	// ============ WebSocket price stream ============
	if h.WebSocket != nil {
		r.GET("/ws/prices", h.WebSocket.StreamHandler)
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check /api endpoints for available APIs",
		})
	})

	return r
}
