package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"swap4x-backend/internal/config"
)

func gasTestConfig() *config.Config {
	return &config.Config{
		Platform: config.PlatformConfig{
			GasMultiplier: 1.2,
		},
		Networks: map[string]config.NetworkConfig{
			"ethereum": {GasFallbackGwei: 20},
			"polygon":  {GasFallbackGwei: 30},
			"arbitrum": {GasFallbackGwei: 0.1},
		},
	}
}

func TestGasPriceGweiFallback(t *testing.T) {
	c := NewGasClient(gasTestConfig())
	defer c.Close()
	ctx := context.Background()

	// no RPC endpoints configured, so every chain uses its fallback
	assert.InDelta(t, 24.0, c.GasPriceGwei(ctx, "ethereum"), 1e-9)
	assert.InDelta(t, 36.0, c.GasPriceGwei(ctx, "polygon"), 1e-9)
	assert.InDelta(t, 0.12, c.GasPriceGwei(ctx, "arbitrum"), 1e-9)
}

func TestGasPriceGweiUnknownChain(t *testing.T) {
	c := NewGasClient(gasTestConfig())
	defer c.Close()

	assert.Zero(t, c.GasPriceGwei(context.Background(), "solana"))
}

func TestGasCostUSD(t *testing.T) {
	c := NewGasClient(gasTestConfig())
	defer c.Close()
	ctx := context.Background()

	// 150000 units at 24 gwei is 0.0036 ETH; at $3500 that is $12.60
	got := c.GasCostUSD(ctx, "ethereum", 150000, 3500.0)
	assert.InDelta(t, 12.6, got, 1e-6)

	assert.Zero(t, c.GasCostUSD(ctx, "ethereum", 150000, 0))
}
