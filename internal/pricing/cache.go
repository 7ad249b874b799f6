package pricing

import (
	"context"
	"strings"
	"sync"
	"time"

	"swap4x-backend/internal/metrics"

	"github.com/sirupsen/logrus"
)

// staticPrices is the last-resort price table used when no live or cached
// price is available.
var staticPrices = map[string]float64{
	"USDC":   1.0,
	"USDT":   1.0,
	"ETH":    3500.0,
	"WETH":   3500.0,
	"MATIC":  0.80,
	"WMATIC": 0.80,
	"BTC":    65000.0,
	"WBTC":   65000.0,
}

// FetchFunc fetches live USD prices for the given symbols.
type FetchFunc func(ctx context.Context, symbols []string) (map[string]float64, error)

// PriceEntry is a cached price with its origin and fetch time.
type PriceEntry struct {
	Symbol    string    `json:"symbol"`
	PriceUSD  float64   `json:"price_usd"`
	Source    string    `json:"source"` // coingecko or static
	FetchedAt time.Time `json:"fetched_at"`
}

// Oracle caches USD token prices with a freshness window. Expired entries
// trigger a live fetch; on fetch failure the expired entry keeps serving, and
// tokens never fetched fall back to the static table.
type Oracle struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]PriceEntry
}

// NewOracle creates a price oracle with the given fetcher and freshness window.
func NewOracle(fetch FetchFunc, ttl time.Duration) *Oracle {
	return &Oracle{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]PriceEntry),
	}
}

// GetPrice returns the USD price for a symbol. Resolution order: fresh cache,
// live fetch, stale cache, static table. The final static fallback returns 0
// for unknown symbols.
func (o *Oracle) GetPrice(ctx context.Context, symbol string) float64 {
	symbol = strings.ToUpper(symbol)

	o.mu.RLock()
	entry, ok := o.entries[symbol]
	o.mu.RUnlock()

	if ok && !o.isStale(entry) {
		metrics.PriceCacheHits.Inc()
		return entry.PriceUSD
	}
	metrics.PriceCacheMisses.Inc()

	fetched, err := o.fetch(ctx, []string{symbol})
	if err == nil {
		if price, found := fetched[symbol]; found && price > 0 {
			o.store(symbol, price, "coingecko")
			return price
		}
	} else {
		metrics.PriceFetchFailures.Inc()
		logrus.WithFields(logrus.Fields{
			"symbol": symbol,
			"error":  err,
		}).Warn("live price fetch failed")
	}

	// serve the expired entry rather than nothing
	if ok {
		return entry.PriceUSD
	}
	if price, found := staticPrices[symbol]; found {
		o.store(symbol, price, "static")
		return price
	}
	return 0
}

// Refresh fetches live prices for all symbols in one batch and returns the
// entries that were updated. The caller decides what to do with them
// (persist history, push to listeners).
func (o *Oracle) Refresh(ctx context.Context, symbols []string) []PriceEntry {
	fetched, err := o.fetch(ctx, symbols)
	if err != nil {
		metrics.PriceFetchFailures.Inc()
		logrus.WithError(err).Warn("price refresh failed, cache unchanged")
		return nil
	}

	updated := make([]PriceEntry, 0, len(fetched))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(symbol)
		price, found := fetched[symbol]
		if !found || price <= 0 {
			continue
		}
		updated = append(updated, o.store(symbol, price, "coingecko"))
	}
	return updated
}

// Snapshot returns a copy of every cached entry.
func (o *Oracle) Snapshot() []PriceEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entries := make([]PriceEntry, 0, len(o.entries))
	for _, entry := range o.entries {
		entries = append(entries, entry)
	}
	return entries
}

func (o *Oracle) store(symbol string, price float64, source string) PriceEntry {
	entry := PriceEntry{
		Symbol:    symbol,
		PriceUSD:  price,
		Source:    source,
		FetchedAt: o.now(),
	}
	o.mu.Lock()
	o.entries[symbol] = entry
	o.mu.Unlock()
	return entry
}

func (o *Oracle) isStale(entry PriceEntry) bool {
	return o.now().Sub(entry.FetchedAt) >= o.ttl
}
