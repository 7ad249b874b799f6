package services

import (
	"math"
	"math/big"
	"sort"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/config"
	"swap4x-backend/internal/utils"
)

// Preference selects the scoring strategy for route ranking.
type Preference string

const (
	PreferenceCheapest Preference = "cheapest"
	PreferenceFastest  Preference = "fastest"
	PreferenceSafest   Preference = "safest"
	PreferenceBalanced Preference = "balanced"
)

// ParsePreference normalizes a request parameter, defaulting to balanced.
func ParsePreference(s string) Preference {
	switch Preference(s) {
	case PreferenceCheapest, PreferenceFastest, PreferenceSafest, PreferenceBalanced:
		return Preference(s)
	default:
		return PreferenceBalanced
	}
}

// RankedRoute is a RouteQuote with the fee breakdown and score derived for
// one request. Derived fields are recomputed per request and never persisted
// with the quote.
type RankedRoute struct {
	bridges.RouteQuote
	Source            bridges.QuoteSource `json:"source"`
	PlatformFeeAmount *big.Int            `json:"platformFeeAmount"`
	ProtocolFeeAmount *big.Int            `json:"protocolFeeAmount"`
	TotalFeeAmount    *big.Int            `json:"totalFeeAmount"`
	TotalFeeUSD       float64             `json:"totalFeeUsd"`
	Score             float64             `json:"score"`
}

// RouteScorer scores routes under a user preference. Scoring is a pure
// function of the quote and the configured weights; every strategy shares the
// 0..100 scale so scores stay comparable across preferences.
type RouteScorer struct {
	cfg config.ScoringConfig
}

// NewRouteScorer creates a scorer with the configured weights.
func NewRouteScorer(cfg config.ScoringConfig) *RouteScorer {
	return &RouteScorer{cfg: cfg}
}

// Score computes the route's score under the given preference, rounded
// half-up to 2 decimal places.
func (s *RouteScorer) Score(q bridges.RouteQuote, pref Preference) float64 {
	var raw float64
	switch pref {
	case PreferenceCheapest:
		raw = (1 - float64(q.FeeBps)/10000) * 100
	case PreferenceFastest:
		raw = (1 / float64(q.EstimatedTimeSeconds)) * s.cfg.FastestTimeScale
	case PreferenceSafest:
		raw = q.Confidence * 100
	default:
		raw = (1-float64(q.FeeBps)/10000)*s.cfg.BalancedFeeWeight +
			(1/float64(q.EstimatedTimeSeconds))*s.cfg.BalancedTimeScale +
			q.Confidence*s.cfg.BalancedConfidenceWeight
	}
	return math.Round(raw*100) / 100
}

// Rank scores every quote and sorts descending. Ties keep the input order,
// which is the adapter registration order the aggregator preserves.
func (s *RouteScorer) Rank(results []bridges.QuoteResult, pref Preference, amount *big.Int, platformFeeBps int64, tokenPriceUSD float64, tokenDecimals int) []RankedRoute {
	ranked := make([]RankedRoute, 0, len(results))
	for _, result := range results {
		q := result.Quote
		protocolFee := bridges.FeeAmount(amount, q.FeeBps)
		platformFee := bridges.FeeAmount(amount, platformFeeBps)
		totalFee := new(big.Int).Add(protocolFee, platformFee)

		ranked = append(ranked, RankedRoute{
			RouteQuote:        q,
			Source:            result.Source,
			PlatformFeeAmount: platformFee,
			ProtocolFeeAmount: protocolFee,
			TotalFeeAmount:    totalFee,
			TotalFeeUSD:       feeUSD(totalFee, tokenDecimals, tokenPriceUSD),
			Score:             s.Score(q, pref),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// feeUSD converts a smallest-unit fee amount into USD for display.
func feeUSD(fee *big.Int, decimals int, priceUSD float64) float64 {
	if fee == nil || fee.Sign() == 0 || priceUSD <= 0 {
		return 0
	}
	return utils.UnitsToFloat(fee, decimals) * priceUSD
}
