package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap4x-backend/internal/bridges"
)

// panicAdapter simulates an adapter that blows up mid-quote.
type panicAdapter struct{}

func (panicAdapter) Protocol() string                { return "broken" }
func (panicAdapter) DisplayName() string             { return "Broken Bridge" }
func (panicAdapter) Profile() bridges.Profile        { return bridges.Profile{} }
func (panicAdapter) SupportsChain(chain string) bool { return true }
func (panicAdapter) Quote(ctx context.Context, fromChain, toChain, token string, amount *big.Int) bridges.QuoteResult {
	panic("upstream client bug")
}

func TestGetAllRoutesFallbackOnly(t *testing.T) {
	agg := NewRouteAggregator(bridges.DefaultRegistry("", ""))

	results := agg.GetAllRoutes(context.Background(), "ethereum", "polygon", "USDC", big.NewInt(1000000))
	require.Len(t, results, 5)

	protocols := make([]string, 0, len(results))
	for _, r := range results {
		assert.Equal(t, bridges.QuoteSourceFallback, r.Source)
		protocols = append(protocols, r.Quote.Protocol)
	}
	assert.Equal(t, []string{"stargate", "hop", "synapse", "across", "multichain"}, protocols)
}

func TestGetAllRoutesSameChain(t *testing.T) {
	agg := NewRouteAggregator(bridges.DefaultRegistry("", ""))
	results := agg.GetAllRoutes(context.Background(), "ethereum", "ethereum", "USDC", big.NewInt(1000000))
	assert.Empty(t, results)
}

func TestGetAllRoutesUnsupportedChain(t *testing.T) {
	agg := NewRouteAggregator(bridges.DefaultRegistry("", ""))
	results := agg.GetAllRoutes(context.Background(), "ethereum", "solana", "USDC", big.NewInt(1000000))
	assert.Empty(t, results)
}

func TestGetAllRoutesDropsPanickingAdapter(t *testing.T) {
	registry := bridges.NewRegistry(
		bridges.NewAcrossAdapter(),
		panicAdapter{},
		bridges.NewSynapseAdapter(),
	)
	agg := NewRouteAggregator(registry)

	results := agg.GetAllRoutes(context.Background(), "ethereum", "polygon", "USDC", big.NewInt(1000000))
	require.Len(t, results, 2)
	assert.Equal(t, "across", results[0].Quote.Protocol)
	assert.Equal(t, "synapse", results[1].Quote.Protocol)
}

func TestAggregateAndRankBalanced(t *testing.T) {
	// 1000 USDC ethereum to polygon, default profiles, balanced preference
	agg := NewRouteAggregator(bridges.DefaultRegistry("", ""))
	scorer := NewRouteScorer(testScoringConfig())
	amount := big.NewInt(1000000000)

	results := agg.GetAllRoutes(context.Background(), "ethereum", "polygon", "USDC", amount)
	ranked := scorer.Rank(results, PreferenceBalanced, amount, 5, 1.0, 6)
	require.Len(t, ranked, 5)

	wantOrder := []string{"across", "hop", "stargate", "synapse", "multichain"}
	wantScores := []float64{231.86, 191.79, 167.98, 149.32, 113.98}
	for i := range ranked {
		assert.Equal(t, wantOrder[i], ranked[i].Protocol)
		assert.InDelta(t, wantScores[i], ranked[i].Score, 1e-9)
	}

	assert.Equal(t, "999700000", ranked[0].AmountOut.String())
}
