package app

import (
	"sync"
	"time"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/clients"
	"swap4x-backend/internal/config"
	"swap4x-backend/internal/db"
	"swap4x-backend/internal/events"
	"swap4x-backend/internal/pricing"
	"swap4x-backend/internal/repository"
	"swap4x-backend/internal/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceContainer wires repositories, clients, and services once at startup.
type ServiceContainer struct {
	DB *gorm.DB

	// Repositories
	BridgeRequestRepo repository.BridgeRequestRepository
	RouteRecordRepo   repository.RouteRecordRepository
	PriceHistoryRepo  repository.PriceHistoryRepository

	// Clients
	NATSClient      *clients.NATSClient
	CoinGeckoClient *clients.CoinGeckoClient
	GasClient       *clients.GasClient

	// Core services
	Aggregator    *services.RouteAggregator
	Scorer        *services.RouteScorer
	BridgeService *services.BridgeService
	Publisher     *events.Publisher
	Consumer      *events.Consumer

	// Pricing
	Oracle       *pricing.Oracle
	PriceMonitor *pricing.Monitor

	// Background services
	StatusMonitor   *services.BridgeStatusMonitor
	ProtocolMonitor *services.ProtocolStatusMonitor
	PushService     *services.WebSocketPushService
}

var (
	Container     *ServiceContainer
	containerOnce sync.Once
)

// InitializeContainer builds the global service container. Safe to call more
// than once; only the first call does work.
func InitializeContainer(cfg *config.Config) *ServiceContainer {
	containerOnce.Do(func() {
		c := &ServiceContainer{DB: db.DB}

		if c.DB != nil {
			c.BridgeRequestRepo = repository.NewBridgeRequestRepository(c.DB)
			c.RouteRecordRepo = repository.NewRouteRecordRepository(c.DB)
			c.PriceHistoryRepo = repository.NewPriceHistoryRepository(c.DB)
		}

		if cfg.NATS.URL != "" {
			natsClient, err := clients.NewNATSClient(cfg.NATS.URL)
			if err != nil {
				logrus.WithError(err).Warn("NATS unavailable, bridge events disabled")
			} else {
				c.NATSClient = natsClient
			}
		}
		c.Publisher = events.NewPublisher(c.NATSClient)

		c.CoinGeckoClient = clients.NewCoinGeckoClient(cfg.Prices.CoinGeckoBaseURL, cfg.Prices.CoinGeckoAPIKey)
		c.GasClient = clients.NewGasClient(cfg)

		registry := bridgesRegistry(cfg)
		c.Aggregator = services.NewRouteAggregator(registry)
		c.Scorer = services.NewRouteScorer(cfg.Scoring)
		c.BridgeService = services.NewBridgeService(cfg, registry, c.BridgeRequestRepo, c.Publisher)

		c.Oracle = pricing.NewOracle(
			c.CoinGeckoClient.GetPrices,
			time.Duration(cfg.Prices.CacheTTLSeconds)*time.Second,
		)
		c.PriceMonitor = pricing.NewMonitor(
			c.Oracle,
			c.PriceHistoryRepo,
			cfg.Platform.SupportedTokens,
			time.Duration(cfg.Prices.RefreshIntervalSeconds)*time.Second,
			time.Duration(cfg.Prices.HistoryRetentionDays)*24*time.Hour,
		)

		c.PushService = services.NewWebSocketPushService()
		c.PushService.SetSnapshotSource(c.Oracle.Snapshot)
		c.PriceMonitor.AddListener(c.PushService)

		c.StatusMonitor = services.NewBridgeStatusMonitor(
			c.BridgeRequestRepo,
			c.Publisher,
			time.Duration(cfg.Monitor.RequestSweepIntervalSeconds)*time.Second,
			time.Duration(cfg.Monitor.RequestMaxAgeSeconds)*time.Second,
		)

		endpoints := make(map[string]string, len(cfg.Bridges))
		for protocol := range cfg.Bridges {
			endpoints[protocol] = cfg.BridgeAPIURL(protocol)
		}
		c.ProtocolMonitor = services.NewProtocolStatusMonitor(
			registry,
			endpoints,
			time.Duration(cfg.Monitor.BridgeCheckIntervalSeconds)*time.Second,
			time.Duration(cfg.Monitor.StatusMaxAgeSeconds)*time.Second,
		)

		if c.NATSClient != nil && c.BridgeRequestRepo != nil {
			c.Consumer = events.NewConsumer(c.NATSClient, c.BridgeService)
		}

		Container = c
		logrus.Info("service container initialized")
	})
	return Container
}

// bridgesRegistry builds the adapter set from configured quoting endpoints.
func bridgesRegistry(cfg *config.Config) *bridges.Registry {
	return bridges.DefaultRegistry(
		cfg.BridgeAPIURL("stargate"),
		cfg.BridgeAPIURL("hop"),
	)
}

// StartBackground launches the monitors and event consumer.
func (c *ServiceContainer) StartBackground() {
	c.PriceMonitor.Start()
	c.ProtocolMonitor.Start()
	if c.BridgeRequestRepo != nil {
		c.StatusMonitor.Start()
	}
	if c.Consumer != nil {
		if err := c.Consumer.Start(); err != nil {
			logrus.WithError(err).Warn("bridge status consumer unavailable")
		}
	}
}

// Shutdown stops background work and closes connections.
func (c *ServiceContainer) Shutdown() {
	if c.Consumer != nil {
		c.Consumer.Stop()
	}
	c.PriceMonitor.Stop()
	c.ProtocolMonitor.Stop()
	c.StatusMonitor.Stop()
	c.GasClient.Close()
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
}
