package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swap4x-backend/internal/app"
	"swap4x-backend/internal/config"
	"swap4x-backend/internal/db"
	"swap4x-backend/internal/handlers"
	"swap4x-backend/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if cfg.Database.DSN != "" {
		db.InitDB()
	} else {
		logrus.Warn("no database configured, bridge history and analytics disabled")
	}

	container := app.InitializeContainer(cfg)
	container.StartBackground()

	h := router.Handlers{
		Bridge: handlers.NewBridgeHandler(
			cfg,
			container.Aggregator,
			container.Scorer,
			container.Oracle,
			container.GasClient,
			container.BridgeService,
			container.RouteRecordRepo,
			container.ProtocolMonitor,
		),
		Price:     handlers.NewPriceHandler(container.Oracle, container.PriceHistoryRepo),
		Analytics: handlers.NewAnalyticsHandler(container.RouteRecordRepo),
		WebSocket: handlers.NewWebSocketHandler(container.PushService),
	}

	engine := router.SetupRouter(h)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down")

	container.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("forced shutdown")
	}
	logrus.Info("server stopped")
}
