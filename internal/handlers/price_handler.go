package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"swap4x-backend/internal/pricing"
	"swap4x-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PriceHandler handles market data API requests
type PriceHandler struct {
	oracle  *pricing.Oracle
	history repository.PriceHistoryRepository
}

// NewPriceHandler creates a new PriceHandler instance. history may be nil.
func NewPriceHandler(oracle *pricing.Oracle, history repository.PriceHistoryRepository) *PriceHandler {
	return &PriceHandler{oracle: oracle, history: history}
}

// GetPricesHandler handles GET /api/prices?tokens=USDC,ETH
func (h *PriceHandler) GetPricesHandler(c *gin.Context) {
	tokensParam := c.Query("tokens")
	if tokensParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required parameter: tokens",
			"message": "Please provide comma-separated token symbols",
		})
		return
	}

	prices := make(map[string]float64)
	for _, token := range strings.Split(tokensParam, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(token))
		if symbol == "" {
			continue
		}
		prices[symbol] = h.oracle.GetPrice(c.Request.Context(), symbol)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      prices,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetPriceHandler handles GET /api/prices/:token
func (h *PriceHandler) GetPriceHandler(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("token"))

	price := h.oracle.GetPrice(c.Request.Context(), symbol)
	if price <= 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Token not found",
			"message": "Price data not available for token: " + symbol,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      gin.H{symbol: price},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetPriceHistoryHandler handles GET /api/prices/:token/history
func (h *PriceHandler) GetPriceHistoryHandler(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("token"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"symbol": symbol, "prices": []gin.H{}},
		})
		return
	}

	entries, err := h.history.Recent(c.Request.Context(), symbol, limit)
	if err != nil {
		logrus.WithError(err).Error("price history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch price history"})
		return
	}

	prices := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		prices = append(prices, gin.H{
			"timestamp": entry.CreatedAt.UTC().Format(time.RFC3339),
			"price":     entry.PriceUSD,
			"source":    entry.Source,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"symbol": symbol,
			"prices": prices,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
