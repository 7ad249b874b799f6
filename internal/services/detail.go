package services

import (
	"fmt"
	"math/big"

	"swap4x-backend/internal/utils"

	"github.com/shopspring/decimal"
)

// BridgeStep is one stage of the fixed bridge execution sequence.
type BridgeStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Estimated   string `json:"estimated"`
}

// FeeBreakdown presents the quote amounts in human-decimal form.
type FeeBreakdown struct {
	InputAmount  string `json:"inputAmount"`
	ProtocolFee  string `json:"protocolFee"`
	PlatformFee  string `json:"platformFee"`
	OutputAmount string `json:"outputAmount"`
}

// QuoteDetail expands a ranked route into an execution plan and risk list.
type QuoteDetail struct {
	Route           RankedRoute  `json:"route"`
	Breakdown       FeeBreakdown `json:"breakdown"`
	Steps           []BridgeStep `json:"steps"`
	Risks           []string     `json:"risks"`
	GasPriceGwei    float64      `json:"gasPriceGwei"`
	GasCostUSD      float64      `json:"gasCostUsd"`
	ValiditySeconds int          `json:"validitySeconds"`
}

var commonRisks = []string{
	"Smart contract risk",
	"Bridge validator risk",
	"Network congestion delays",
}

// protocolRisks maps each protocol to its specific risk addition.
var protocolRisks = map[string]string{
	"stargate":   "Liquidity pool imbalance",
	"hop":        "AMM slippage",
	"synapse":    "Cross-chain message delays",
	"across":     "Relayer availability",
	"multichain": "Multi-signature security",
}

// BridgeSteps returns the fixed 4-stage execution sequence for a route.
func BridgeSteps(protocol, fromChain, toChain string) []BridgeStep {
	return []BridgeStep{
		{Step: 1, Description: fmt.Sprintf("Approve token spending on %s", fromChain), Estimated: "30 seconds"},
		{Step: 2, Description: fmt.Sprintf("Initiate bridge transaction via %s", protocol), Estimated: "60 seconds"},
		{Step: 3, Description: "Wait for cross-chain confirmation", Estimated: "3-10 minutes"},
		{Step: 4, Description: fmt.Sprintf("Receive tokens on %s", toChain), Estimated: "30 seconds"},
	}
}

// BridgeRisks returns the common risks plus the protocol-specific addition.
func BridgeRisks(protocol string) []string {
	risks := make([]string, len(commonRisks), len(commonRisks)+1)
	copy(risks, commonRisks)
	if extra, ok := protocolRisks[protocol]; ok {
		risks = append(risks, extra)
	}
	return risks
}

// BuildBreakdown formats the quote amounts as human-decimal strings.
func BuildBreakdown(amount *big.Int, route RankedRoute, decimals int) FeeBreakdown {
	return FeeBreakdown{
		InputAmount:  utils.FormatUnits(amount, decimals),
		ProtocolFee:  utils.FormatUnits(route.ProtocolFeeAmount, decimals),
		PlatformFee:  utils.FormatUnits(route.PlatformFeeAmount, decimals),
		OutputAmount: utils.FormatUnits(route.AmountOut, decimals),
	}
}

// SlippageMinimum applies a slippage tolerance to an output amount and
// returns the guaranteed minimum in human-decimal form.
func SlippageMinimum(amountOut *big.Int, decimals int, slippagePercent float64) string {
	out, err := decimal.NewFromString(utils.FormatUnits(amountOut, decimals))
	if err != nil {
		return "0"
	}
	factor := decimal.NewFromFloat(1 - slippagePercent/100)
	return out.Mul(factor).Truncate(int32(decimals)).String()
}
