package services

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/config"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		FastestTimeScale:         100000,
		BalancedFeeWeight:        30,
		BalancedTimeScale:        30000,
		BalancedConfidenceWeight: 40,
	}
}

func quoteWith(protocol string, feeBps int64, timeSec int, confidence float64) bridges.RouteQuote {
	return bridges.RouteQuote{
		Protocol:             protocol,
		FeeBps:               feeBps,
		EstimatedTimeSeconds: timeSec,
		Confidence:           confidence,
	}
}

func TestParsePreference(t *testing.T) {
	assert.Equal(t, PreferenceCheapest, ParsePreference("cheapest"))
	assert.Equal(t, PreferenceFastest, ParsePreference("fastest"))
	assert.Equal(t, PreferenceSafest, ParsePreference("safest"))
	assert.Equal(t, PreferenceBalanced, ParsePreference("balanced"))
	assert.Equal(t, PreferenceBalanced, ParsePreference(""))
	assert.Equal(t, PreferenceBalanced, ParsePreference("CHEAPEST"))
}

func TestScoreFormulas(t *testing.T) {
	scorer := NewRouteScorer(testScoringConfig())

	tests := []struct {
		name  string
		quote bridges.RouteQuote
		pref  Preference
		want  float64
	}{
		{name: "cheapest six bps", quote: quoteWith("stargate", 6, 300, 0.95), pref: PreferenceCheapest, want: 99.94},
		{name: "cheapest three bps", quote: quoteWith("across", 3, 180, 0.88), pref: PreferenceCheapest, want: 99.97},
		{name: "fastest 300s", quote: quoteWith("stargate", 6, 300, 0.95), pref: PreferenceFastest, want: 333.33},
		{name: "fastest 180s", quote: quoteWith("across", 3, 180, 0.88), pref: PreferenceFastest, want: 555.56},
		{name: "safest", quote: quoteWith("stargate", 6, 300, 0.95), pref: PreferenceSafest, want: 95},
		{name: "balanced stargate", quote: quoteWith("stargate", 6, 300, 0.95), pref: PreferenceBalanced, want: 167.98},
		{name: "balanced hop", quote: quoteWith("hop", 4, 240, 0.92), pref: PreferenceBalanced, want: 191.79},
		{name: "balanced synapse", quote: quoteWith("synapse", 5, 360, 0.90), pref: PreferenceBalanced, want: 149.32},
		{name: "balanced across", quote: quoteWith("across", 3, 180, 0.88), pref: PreferenceBalanced, want: 231.86},
		{name: "balanced multichain", quote: quoteWith("multichain", 8, 600, 0.85), pref: PreferenceBalanced, want: 113.98},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.quote, tt.pref), 1e-9)
		})
	}
}

func TestScoreMonotonicity(t *testing.T) {
	scorer := NewRouteScorer(testScoringConfig())

	t.Run("lower fee scores higher under cheapest", func(t *testing.T) {
		cheap := scorer.Score(quoteWith("a", 3, 300, 0.9), PreferenceCheapest)
		dear := scorer.Score(quoteWith("b", 8, 300, 0.9), PreferenceCheapest)
		assert.Greater(t, cheap, dear)
	})

	t.Run("shorter time scores higher under fastest", func(t *testing.T) {
		quick := scorer.Score(quoteWith("a", 5, 180, 0.9), PreferenceFastest)
		slow := scorer.Score(quoteWith("b", 5, 600, 0.9), PreferenceFastest)
		assert.Greater(t, quick, slow)
	})

	t.Run("higher confidence scores higher under safest", func(t *testing.T) {
		safe := scorer.Score(quoteWith("a", 5, 300, 0.95), PreferenceSafest)
		risky := scorer.Score(quoteWith("b", 5, 300, 0.85), PreferenceSafest)
		assert.Greater(t, safe, risky)
	})
}

func TestRankOrdersDescendingWithStableTies(t *testing.T) {
	scorer := NewRouteScorer(testScoringConfig())
	amount := big.NewInt(1000000)

	// identical profiles tie exactly; input order must survive the sort
	results := []bridges.QuoteResult{
		{Quote: quoteWith("first", 5, 300, 0.90), Source: bridges.QuoteSourceFallback},
		{Quote: quoteWith("winner", 3, 180, 0.95), Source: bridges.QuoteSourceFallback},
		{Quote: quoteWith("second", 5, 300, 0.90), Source: bridges.QuoteSourceFallback},
	}

	ranked := scorer.Rank(results, PreferenceBalanced, amount, 5, 1.0, 6)
	require.Len(t, ranked, 3)
	assert.Equal(t, "winner", ranked[0].Protocol)
	assert.Equal(t, "first", ranked[1].Protocol)
	assert.Equal(t, "second", ranked[2].Protocol)
	assert.Equal(t, ranked[1].Score, ranked[2].Score)
}

func TestRankFeeBreakdown(t *testing.T) {
	scorer := NewRouteScorer(testScoringConfig())
	amount := big.NewInt(1000000)

	results := []bridges.QuoteResult{
		{Quote: quoteWith("stargate", 6, 300, 0.95), Source: bridges.QuoteSourceLive},
	}

	ranked := scorer.Rank(results, PreferenceCheapest, amount, 5, 1.0, 6)
	require.Len(t, ranked, 1)

	r := ranked[0]
	assert.Equal(t, "600", r.ProtocolFeeAmount.String())
	assert.Equal(t, "500", r.PlatformFeeAmount.String())
	assert.Equal(t, "1100", r.TotalFeeAmount.String())
	// 1100 smallest units of a 6-decimal token at $1
	assert.InDelta(t, 0.0011, r.TotalFeeUSD, 1e-9)
	assert.Equal(t, bridges.QuoteSourceLive, r.Source)
}

func TestRankEmptyInput(t *testing.T) {
	scorer := NewRouteScorer(testScoringConfig())
	ranked := scorer.Rank(nil, PreferenceBalanced, big.NewInt(1), 5, 1.0, 6)
	assert.Empty(t, ranked)
}
