package services

import (
	"context"
	"math/big"
	"sync"
	"time"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/metrics"

	"github.com/sirupsen/logrus"
)

// RouteAggregator fans a quote request out to every eligible bridge adapter
// concurrently and collects the results in adapter registration order.
type RouteAggregator struct {
	registry *bridges.Registry
}

// NewRouteAggregator creates a route aggregator over the adapter registry.
func NewRouteAggregator(registry *bridges.Registry) *RouteAggregator {
	return &RouteAggregator{registry: registry}
}

// Registry exposes the underlying adapter registry.
func (a *RouteAggregator) Registry() *bridges.Registry {
	return a.registry
}

// GetAllRoutes queries every adapter that supports the chain pair and returns
// their quotes in registration order. Adapters never make each other wait:
// each runs in its own goroutine with its own timeout, and a panicking
// adapter is dropped from the result instead of failing the request.
func (a *RouteAggregator) GetAllRoutes(ctx context.Context, fromChain, toChain, token string, amount *big.Int) []bridges.QuoteResult {
	started := time.Now()
	metrics.RouteRequestsTotal.WithLabelValues(fromChain, toChain).Inc()

	eligible := a.registry.Eligible(fromChain, toChain)
	if len(eligible) == 0 {
		metrics.RoutesReturned.Observe(0)
		return nil
	}

	// slots keyed by adapter index keep the output ordering deterministic
	slots := make([]*bridges.QuoteResult, len(eligible))
	var wg sync.WaitGroup
	for i, adapter := range eligible {
		wg.Add(1)
		go func(i int, adapter bridges.Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					metrics.AdapterPanicsTotal.WithLabelValues(adapter.Protocol()).Inc()
					logrus.WithFields(logrus.Fields{
						"protocol": adapter.Protocol(),
						"panic":    r,
					}).Error("adapter panicked, excluding from results")
				}
			}()
			result := adapter.Quote(ctx, fromChain, toChain, token, amount)
			metrics.AdapterQuotesTotal.WithLabelValues(adapter.Protocol(), string(result.Source)).Inc()
			slots[i] = &result
		}(i, adapter)
	}
	wg.Wait()

	results := make([]bridges.QuoteResult, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	metrics.RoutesReturned.Observe(float64(len(results)))
	metrics.AggregationDuration.Observe(time.Since(started).Seconds())
	return results
}
