package handlers

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/clients"
	"swap4x-backend/internal/config"
	"swap4x-backend/internal/models"
	"swap4x-backend/internal/pricing"
	"swap4x-backend/internal/repository"
	"swap4x-backend/internal/services"
	"swap4x-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BridgeHandler handles bridge route, quote, and lifecycle API requests
type BridgeHandler struct {
	cfg          *config.Config
	aggregator   *services.RouteAggregator
	scorer       *services.RouteScorer
	oracle       *pricing.Oracle
	gas          *clients.GasClient
	bridge       *services.BridgeService
	routeRecords repository.RouteRecordRepository
	status       *services.ProtocolStatusMonitor
}

// NewBridgeHandler creates a new BridgeHandler instance. routeRecords may be
// nil when analytics persistence is disabled, status when protocol health
// monitoring is not running.
func NewBridgeHandler(cfg *config.Config, aggregator *services.RouteAggregator, scorer *services.RouteScorer, oracle *pricing.Oracle, gas *clients.GasClient, bridge *services.BridgeService, routeRecords repository.RouteRecordRepository, status *services.ProtocolStatusMonitor) *BridgeHandler {
	return &BridgeHandler{
		cfg:          cfg,
		aggregator:   aggregator,
		scorer:       scorer,
		oracle:       oracle,
		gas:          gas,
		bridge:       bridge,
		routeRecords: routeRecords,
		status:       status,
	}
}

// GetRoutesHandler handles GET /api/bridge/routes
// Returns every available route for the pair, ranked by the requested
// preference. An empty list is a valid response, not an error.
func (h *BridgeHandler) GetRoutesHandler(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	amountStr := c.Query("amount")
	token := c.Query("token")
	preference := services.ParsePreference(c.DefaultQuery("preference", "balanced"))

	if from == "" || to == "" || amountStr == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Missing required parameters",
			"required": []string{"from", "to", "amount", "token"},
		})
		return
	}

	if !h.cfg.IsSupportedChain(from) || !h.cfg.IsSupportedChain(to) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "Unsupported chain",
			"supportedChains": h.cfg.SupportedChains(),
		})
		return
	}

	decimals := h.cfg.TokenDecimals(token)
	amount, err := utils.ParseUnits(amountStr, decimals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid amount",
			"details": err.Error(),
		})
		return
	}

	results := h.aggregator.GetAllRoutes(c.Request.Context(), from, to, token, amount)
	tokenPrice := h.oracle.GetPrice(c.Request.Context(), token)
	ranked := h.scorer.Rank(results, preference, amount, h.cfg.Platform.FeeBps, tokenPrice, decimals)

	h.recordRoutes(ranked, from, to, token, amountStr, string(preference))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"routes":  ranked,
		"metadata": gin.H{
			"fromChain":  from,
			"toChain":    to,
			"token":      token,
			"amount":     amountStr,
			"preference": preference,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// quoteRequest is the POST /api/bridge/quote body
type quoteRequest struct {
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Protocol string `json:"protocol" binding:"required"`
}

// GetQuoteHandler handles POST /api/bridge/quote
// Expands one protocol's route into a detailed execution quote.
func (h *BridgeHandler) GetQuoteHandler(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Missing required parameters",
			"required": []string{"from", "to", "amount", "token", "protocol"},
		})
		return
	}

	if !h.cfg.IsSupportedChain(req.From) || !h.cfg.IsSupportedChain(req.To) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "Unsupported chain",
			"supportedChains": h.cfg.SupportedChains(),
		})
		return
	}

	adapter, ok := h.aggregator.Registry().Get(req.Protocol)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown protocol: " + req.Protocol,
		})
		return
	}

	decimals := h.cfg.TokenDecimals(req.Token)
	amount, err := utils.ParseUnits(req.Amount, decimals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid amount",
			"details": err.Error(),
		})
		return
	}

	result := adapter.Quote(c.Request.Context(), req.From, req.To, req.Token, amount)
	tokenPrice := h.oracle.GetPrice(c.Request.Context(), req.Token)
	ranked := h.scorer.Rank([]bridges.QuoteResult{result}, services.PreferenceBalanced, amount, h.cfg.Platform.FeeBps, tokenPrice, decimals)
	route := ranked[0]

	nativeSymbol := h.cfg.Networks[req.From].Symbol
	nativePrice := h.oracle.GetPrice(c.Request.Context(), nativeSymbol)

	detail := services.QuoteDetail{
		Route:           route,
		Breakdown:       services.BuildBreakdown(amount, route, decimals),
		Steps:           services.BridgeSteps(req.Protocol, req.From, req.To),
		Risks:           services.BridgeRisks(req.Protocol),
		GasPriceGwei:    h.gas.GasPriceGwei(c.Request.Context(), req.From),
		GasCostUSD:      h.gas.GasCostUSD(c.Request.Context(), req.From, int64(route.GasEstimateUnits), nativePrice),
		ValiditySeconds: h.cfg.Platform.QuoteValiditySeconds,
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"quote":      detail,
		"validUntil": time.Now().Add(time.Duration(h.cfg.Platform.QuoteValiditySeconds) * time.Second).UTC().Format(time.RFC3339),
	})
}

// executeRequest is the POST /api/bridge/execute body
type executeRequest struct {
	From        string  `json:"from" binding:"required"`
	To          string  `json:"to" binding:"required"`
	Amount      string  `json:"amount" binding:"required"`
	Token       string  `json:"token" binding:"required"`
	Protocol    string  `json:"protocol" binding:"required"`
	UserAddress string  `json:"userAddress" binding:"required"`
	Slippage    float64 `json:"slippage"`
}

// ExecuteHandler handles POST /api/bridge/execute
func (h *BridgeHandler) ExecuteHandler(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Missing required parameters",
			"required": []string{"from", "to", "amount", "token", "protocol", "userAddress"},
		})
		return
	}

	decimals := h.cfg.TokenDecimals(req.Token)
	amount, err := utils.ParseUnits(req.Amount, decimals)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid amount",
			"details": err.Error(),
		})
		return
	}

	request, err := h.bridge.Execute(c.Request.Context(), req.UserAddress, req.Protocol, req.From, req.To, req.Token, amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidWallet):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user address"})
		case errors.Is(err, services.ErrUnknownProtocol):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown protocol: " + req.Protocol})
		case errors.Is(err, services.ErrUnsupportedChain):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported chain pair for protocol"})
		case errors.Is(err, services.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Bridge execution is not available without persistence"})
		default:
			logrus.WithError(err).Error("bridge execute failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute bridge"})
		}
		return
	}

	slippage := req.Slippage
	if slippage <= 0 {
		slippage = h.cfg.Platform.MaxSlippagePercent
	}

	minimumReceived := "0"
	if amountOut, ok := new(big.Int).SetString(request.AmountOut, 10); ok {
		minimumReceived = services.SlippageMinimum(amountOut, decimals, slippage)
	}

	estimatedCompletion := time.Now().Add(time.Duration(h.estimatedTime(req.Protocol)) * time.Second)
	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"bridgeId":            request.RequestID,
		"request":             request,
		"slippage":            slippage,
		"minimumReceived":     minimumReceived,
		"estimatedCompletion": estimatedCompletion.UTC().Format(time.RFC3339),
	})
}

// StatusHandler handles GET /api/bridge/status/:bridgeId
func (h *BridgeHandler) StatusHandler(c *gin.Context) {
	request, err := h.bridge.Status(c.Request.Context(), c.Param("bridgeId"))
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bridge transaction not found"})
			return
		}
		if errors.Is(err, services.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Bridge status is not available without persistence"})
			return
		}
		logrus.WithError(err).Error("bridge status lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get bridge status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  request,
	})
}

// HistoryHandler handles GET /api/bridge/history/:userAddress
func (h *BridgeHandler) HistoryHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	history, total, err := h.bridge.History(c.Request.Context(), c.Param("userAddress"), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidWallet) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user address"})
			return
		}
		if errors.Is(err, services.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Bridge history is not available without persistence"})
			return
		}
		logrus.WithError(err).Error("bridge history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get bridge history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
		"pagination": gin.H{
			"page":     page,
			"pageSize": pageSize,
			"total":    total,
		},
	})
}

// ProtocolsHandler handles GET /api/bridge/protocols
func (h *BridgeHandler) ProtocolsHandler(c *gin.Context) {
	adapters := h.aggregator.Registry().All()
	protocols := make([]gin.H, 0, len(adapters))
	for _, a := range adapters {
		chains := make([]string, 0)
		for chain := range h.cfg.Networks {
			if a.SupportsChain(chain) {
				chains = append(chains, chain)
			}
		}
		protocols = append(protocols, gin.H{
			"name":        a.Protocol(),
			"displayName": a.DisplayName(),
			"chains":      chains,
			"apiUrl":      h.cfg.BridgeAPIURL(a.Protocol()),
			"status":      h.protocolStatus(a.Protocol()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"protocols": protocols,
	})
}

// ChainsHandler handles GET /api/bridge/chains
func (h *BridgeHandler) ChainsHandler(c *gin.Context) {
	chains := make([]gin.H, 0, len(h.cfg.Networks))
	for name, net := range h.cfg.Networks {
		chains = append(chains, gin.H{
			"name":    name,
			"chainId": net.ChainID,
			"symbol":  net.Symbol,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chains":  chains,
	})
}

// protocolStatus returns the cached health verdict for a protocol, or
// "unknown" when monitoring is disabled or the cache entry is stale.
func (h *BridgeHandler) protocolStatus(protocol string) string {
	if h.status == nil {
		return services.ProtocolStatusUnknown
	}
	return h.status.Status(protocol).Status
}

// estimatedTime returns the protocol's profile time for completion estimates.
func (h *BridgeHandler) estimatedTime(protocol string) int {
	if adapter, ok := h.aggregator.Registry().Get(protocol); ok {
		if t := adapter.Profile().EstimatedTimeSeconds; t > 0 {
			return t
		}
	}
	return 300
}

// recordRoutes persists ranked routes for analytics, best effort.
func (h *BridgeHandler) recordRoutes(ranked []services.RankedRoute, from, to, token, amount, preference string) {
	if h.routeRecords == nil || len(ranked) == 0 {
		return
	}
	records := make([]*models.BridgeRouteRecord, 0, len(ranked))
	for i, r := range ranked {
		records = append(records, &models.BridgeRouteRecord{
			Protocol:   r.Protocol,
			FromChain:  from,
			ToChain:    to,
			Token:      token,
			AmountIn:   amount,
			AmountOut:  r.AmountOut.String(),
			FeeBps:     int(r.FeeBps),
			TimeSec:    r.EstimatedTimeSeconds,
			Score:      r.Score,
			Source:     string(r.Source),
			Preference: preference,
			Selected:   i == 0,
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.routeRecords.CreateBatch(ctx, records); err != nil {
			logrus.WithError(err).Warn("failed to persist route records")
		}
	}()
}
