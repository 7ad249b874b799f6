package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher records every fetch and serves a fixed price map.
type countingFetcher struct {
	mu     sync.Mutex
	calls  int
	prices map[string]float64
	err    error
}

func (f *countingFetcher) fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

func (f *countingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestOracle(f *countingFetcher) (*Oracle, *time.Time) {
	o := NewOracle(f.fetch, 60*time.Second)
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return clock }
	return o, &clock
}

func TestGetPriceCachesWithinWindow(t *testing.T) {
	f := &countingFetcher{prices: map[string]float64{"ETH": 3200.0}}
	o, clock := newTestOracle(f)
	ctx := context.Background()

	assert.Equal(t, 3200.0, o.GetPrice(ctx, "ETH"))
	require.Equal(t, 1, f.callCount())

	*clock = clock.Add(30 * time.Second)
	assert.Equal(t, 3200.0, o.GetPrice(ctx, "ETH"))
	assert.Equal(t, 1, f.callCount(), "second call within the window must not fetch")
}

func TestGetPriceRefetchesAfterExpiry(t *testing.T) {
	f := &countingFetcher{prices: map[string]float64{"ETH": 3200.0}}
	o, clock := newTestOracle(f)
	ctx := context.Background()

	o.GetPrice(ctx, "ETH")
	f.prices = map[string]float64{"ETH": 3300.0}

	*clock = clock.Add(61 * time.Second)
	assert.Equal(t, 3300.0, o.GetPrice(ctx, "ETH"))
	assert.Equal(t, 2, f.callCount())
}

func TestGetPriceServesStaleOnFetchFailure(t *testing.T) {
	f := &countingFetcher{prices: map[string]float64{"ETH": 3200.0}}
	o, clock := newTestOracle(f)
	ctx := context.Background()

	o.GetPrice(ctx, "ETH")

	f.err = errors.New("upstream down")
	*clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 3200.0, o.GetPrice(ctx, "ETH"), "expired entry keeps serving when the fetch fails")
}

func TestGetPriceStaticFallback(t *testing.T) {
	f := &countingFetcher{err: errors.New("upstream down")}
	o, _ := newTestOracle(f)
	ctx := context.Background()

	tests := []struct {
		symbol string
		want   float64
	}{
		{"USDC", 1.0},
		{"USDT", 1.0},
		{"ETH", 3500.0},
		{"WETH", 3500.0},
		{"MATIC", 0.80},
		{"WMATIC", 0.80},
		{"BTC", 65000.0},
		{"WBTC", 65000.0},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, o.GetPrice(ctx, tt.symbol))
		})
	}
}

func TestGetPriceUnknownSymbol(t *testing.T) {
	f := &countingFetcher{err: errors.New("upstream down")}
	o, _ := newTestOracle(f)
	assert.Equal(t, 0.0, o.GetPrice(context.Background(), "SHIB"))
}

func TestGetPriceSymbolCaseInsensitive(t *testing.T) {
	f := &countingFetcher{prices: map[string]float64{"ETH": 3200.0}}
	o, _ := newTestOracle(f)
	ctx := context.Background()

	o.GetPrice(ctx, "eth")
	o.GetPrice(ctx, "ETH")
	assert.Equal(t, 1, f.callCount())
}

func TestRefreshBatch(t *testing.T) {
	f := &countingFetcher{prices: map[string]float64{"ETH": 3200.0, "USDC": 1.0}}
	o, _ := newTestOracle(f)

	updated := o.Refresh(context.Background(), []string{"ETH", "USDC", "SHIB"})
	require.Len(t, updated, 2)
	assert.Equal(t, 1, f.callCount())

	symbols := map[string]float64{}
	for _, e := range updated {
		symbols[e.Symbol] = e.PriceUSD
		assert.Equal(t, "coingecko", e.Source)
	}
	assert.Equal(t, map[string]float64{"ETH": 3200.0, "USDC": 1.0}, symbols)
}

func TestRefreshFailureLeavesCacheUntouched(t *testing.T) {
	f := &countingFetcher{prices: map[string]float64{"ETH": 3200.0}}
	o, _ := newTestOracle(f)
	o.Refresh(context.Background(), []string{"ETH"})

	f.err = errors.New("upstream down")
	assert.Nil(t, o.Refresh(context.Background(), []string{"ETH"}))
	require.Len(t, o.Snapshot(), 1)
	assert.Equal(t, 3200.0, o.Snapshot()[0].PriceUSD)
}
