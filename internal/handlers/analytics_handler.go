package handlers

import (
	"net/http"
	"strconv"
	"time"

	"swap4x-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnalyticsHandler handles platform analytics API requests
type AnalyticsHandler struct {
	routeRecords repository.RouteRecordRepository
}

// NewAnalyticsHandler creates a new AnalyticsHandler instance
func NewAnalyticsHandler(routeRecords repository.RouteRecordRepository) *AnalyticsHandler {
	return &AnalyticsHandler{routeRecords: routeRecords}
}

// GetAnalyticsHandler handles GET /api/analytics?days=7
// Aggregates protocol and chain-pair volumes over the window.
func (h *AnalyticsHandler) GetAnalyticsHandler(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 || days > 365 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	if h.routeRecords == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"topBridges": []gin.H{},
				"topChains":  []gin.H{},
				"windowDays": days,
			},
		})
		return
	}

	protocols, err := h.routeRecords.ProtocolVolumes(c.Request.Context(), since)
	if err != nil {
		logrus.WithError(err).Error("analytics protocol aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}

	chainPairs, err := h.routeRecords.ChainPairVolumes(c.Request.Context(), since)
	if err != nil {
		logrus.WithError(err).Error("analytics chain aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analytics"})
		return
	}

	var totalRequests int64
	for _, p := range protocols {
		totalRequests += p.Requests
	}

	topBridges := make([]gin.H, 0, len(protocols))
	for _, p := range protocols {
		percentage := 0.0
		if totalRequests > 0 {
			percentage = float64(p.Requests) / float64(totalRequests) * 100
		}
		avgFee, err := h.routeRecords.AverageFeeBps(c.Request.Context(), p.Protocol, since)
		if err != nil {
			logrus.WithError(err).Warn("analytics fee aggregation failed")
		}
		topBridges = append(topBridges, gin.H{
			"name":       p.Protocol,
			"requests":   p.Requests,
			"selected":   p.Selected,
			"percentage": percentage,
			"avgFeeBps":  avgFee,
		})
	}

	topChains := make([]gin.H, 0, len(chainPairs))
	for _, pair := range chainPairs {
		topChains = append(topChains, gin.H{
			"fromChain": pair.FromChain,
			"toChain":   pair.ToChain,
			"requests":  pair.Requests,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"totalRouteRequests": totalRequests,
			"topBridges":         topBridges,
			"topChains":          topChains,
			"windowDays":         days,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
