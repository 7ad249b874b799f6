package bridges

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"time"
)

// QuoteSource tells whether a quote came from a live provider call or from
// the adapter's static fallback profile. The external contract is the same
// either way; the distinction exists so callers and tests can observe
// degraded operation without relying on swallowed errors.
type QuoteSource string

const (
	QuoteSourceLive     QuoteSource = "live"
	QuoteSourceFallback QuoteSource = "fallback"
)

// RouteQuote is the normalized result of one bridge protocol's offer to move
// an amount of a token between chains.
type RouteQuote struct {
	Protocol             string          `json:"protocol"`
	Name                 string          `json:"name"`
	FeeBps               int64           `json:"fee"`
	EstimatedTimeSeconds int             `json:"estimatedTime"`
	GasEstimateUnits     uint64          `json:"gasEstimate"`
	Confidence           float64         `json:"confidence"`
	AmountOut            *big.Int        `json:"amountOut"`
	Raw                  json.RawMessage `json:"data,omitempty"`
}

// QuoteResult pairs a RouteQuote with its source branch.
type QuoteResult struct {
	Quote  RouteQuote
	Source QuoteSource
}

// Profile is an adapter's static fee/time/gas/confidence estimate, used as
// the fallback whenever the live quoting endpoint cannot be reached.
type Profile struct {
	Name                 string
	FeeBps               int64
	EstimatedTimeSeconds int
	GasEstimateUnits     uint64
	Confidence           float64
}

// Adapter is the uniform contract every bridge protocol integration
// implements. Quote never fails: on any upstream problem it returns the
// static profile with Source set to QuoteSourceFallback.
type Adapter interface {
	Protocol() string
	DisplayName() string
	Profile() Profile
	SupportsChain(chain string) bool
	Quote(ctx context.Context, fromChain, toChain, token string, amount *big.Int) QuoteResult
}

// quoteTimeout bounds every live provider call independently. A timed-out
// call resolves to the fallback profile and does not affect sibling calls.
const quoteTimeout = 5 * time.Second

// newQuoteHTTPClient returns the HTTP client used for provider quoting calls.
func newQuoteHTTPClient() *http.Client {
	return &http.Client{
		Timeout: quoteTimeout,
	}
}

// AmountOut computes amount*(10000-feeBps)/10000 in integer arithmetic on
// the smallest-unit amount, so currency values never pass through floats.
func AmountOut(amount *big.Int, feeBps int64) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, big.NewInt(10000-feeBps))
	return out.Div(out, big.NewInt(10000))
}

// FeeAmount computes amount*feeBps/10000 in integer arithmetic.
func FeeAmount(amount *big.Int, feeBps int64) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(feeBps))
	return fee.Div(fee, big.NewInt(10000))
}

// fallbackQuote builds the static-profile RouteQuote for an adapter.
func fallbackQuote(protocol string, p Profile, amount *big.Int) QuoteResult {
	return QuoteResult{
		Quote: RouteQuote{
			Protocol:             protocol,
			Name:                 p.Name,
			FeeBps:               p.FeeBps,
			EstimatedTimeSeconds: p.EstimatedTimeSeconds,
			GasEstimateUnits:     p.GasEstimateUnits,
			Confidence:           p.Confidence,
			AmountOut:            AmountOut(amount, p.FeeBps),
		},
		Source: QuoteSourceFallback,
	}
}

// supportsPair reports whether both chains are in the adapter's support set.
func supportsPair(a Adapter, fromChain, toChain string) bool {
	return a.SupportsChain(fromChain) && a.SupportsChain(toChain)
}

// Registry holds the configured adapters in declaration order. The order is
// load-bearing: the route scorer's stable sort breaks score ties by it.
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry builds a registry preserving the given adapter order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: adapters,
		byName:   make(map[string]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		r.byName[a.Protocol()] = a
	}
	return r
}

// DefaultRegistry returns the production adapter set. Stargate and Hop carry
// live quoting endpoints; the rest quote from their static profiles only.
func DefaultRegistry(stargateURL, hopURL string) *Registry {
	return NewRegistry(
		NewStargateAdapter(stargateURL),
		NewHopAdapter(hopURL),
		NewSynapseAdapter(),
		NewAcrossAdapter(),
		NewMultichainAdapter(),
	)
}

// All returns the adapters in declaration order.
func (r *Registry) All() []Adapter {
	return r.adapters
}

// Get returns the adapter for a protocol identifier.
func (r *Registry) Get(protocol string) (Adapter, bool) {
	a, ok := r.byName[protocol]
	return a, ok
}

// Eligible returns the adapters whose support set covers both chains,
// preserving declaration order. Same-chain pairs have no eligible adapters.
func (r *Registry) Eligible(fromChain, toChain string) []Adapter {
	if fromChain == toChain {
		return nil
	}
	eligible := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		if supportsPair(a, fromChain, toChain) {
			eligible = append(eligible, a)
		}
	}
	return eligible
}
