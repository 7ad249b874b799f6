package bridges

import (
	"context"
	"math/big"
)

// staticAdapter quotes from a fixed profile without any upstream call.
// Synapse, Across and Multichain have no public quoting integration yet, so
// their adapters always answer from the declared profile.
type staticAdapter struct {
	protocol string
	profile  Profile
	chains   map[string]bool
}

func (a *staticAdapter) Protocol() string { return a.protocol }

func (a *staticAdapter) DisplayName() string { return a.profile.Name }

func (a *staticAdapter) Profile() Profile { return a.profile }

func (a *staticAdapter) SupportsChain(chain string) bool { return a.chains[chain] }

// Quote returns the static profile quote. With no live call there is no
// provider payload, so the source is always the fallback branch.
func (a *staticAdapter) Quote(ctx context.Context, fromChain, toChain, token string, amount *big.Int) QuoteResult {
	return fallbackQuote(a.protocol, a.profile, amount)
}

// NewSynapseAdapter creates the Synapse Protocol adapter.
func NewSynapseAdapter() Adapter {
	return &staticAdapter{
		protocol: "synapse",
		profile: Profile{
			Name:                 "Synapse Protocol",
			FeeBps:               5,
			EstimatedTimeSeconds: 360,
			GasEstimateUnits:     180000,
			Confidence:           0.90,
		},
		chains: map[string]bool{
			"ethereum": true, "polygon": true, "arbitrum": true,
			"optimism": true, "avalanche": true, "bsc": true, "fantom": true,
		},
	}
}

// NewAcrossAdapter creates the Across Protocol adapter.
func NewAcrossAdapter() Adapter {
	return &staticAdapter{
		protocol: "across",
		profile: Profile{
			Name:                 "Across Protocol",
			FeeBps:               3,
			EstimatedTimeSeconds: 180,
			GasEstimateUnits:     100000,
			Confidence:           0.88,
		},
		chains: map[string]bool{
			"ethereum": true, "polygon": true, "arbitrum": true, "optimism": true,
		},
	}
}

// NewMultichainAdapter creates the Multichain adapter.
func NewMultichainAdapter() Adapter {
	return &staticAdapter{
		protocol: "multichain",
		profile: Profile{
			Name:                 "Multichain",
			FeeBps:               8,
			EstimatedTimeSeconds: 600,
			GasEstimateUnits:     200000,
			Confidence:           0.85,
		},
		chains: map[string]bool{
			"ethereum": true, "polygon": true, "arbitrum": true, "optimism": true,
			"avalanche": true, "bsc": true, "fantom": true, "moonbeam": true,
		},
	}
}
