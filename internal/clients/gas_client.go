package clients

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"swap4x-backend/internal/config"
	"swap4x-backend/internal/metrics"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

var errNoRPC = errors.New("no rpc url configured for chain")

// GasClient estimates per-chain gas prices. It asks the chain RPC first and
// falls back to the configured per-chain constant when the RPC is missing or
// unreachable.
type GasClient struct {
	multiplier float64
	fallbacks  map[string]float64 // chain -> gwei
	rpcURLs    map[string]string

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

// NewGasClient creates a gas client from the network configuration.
func NewGasClient(cfg *config.Config) *GasClient {
	fallbacks := make(map[string]float64, len(cfg.Networks))
	rpcURLs := make(map[string]string, len(cfg.Networks))
	for chain, net := range cfg.Networks {
		fallbacks[chain] = net.GasFallbackGwei
		if len(net.RPCEndpoints) > 0 {
			rpcURLs[chain] = net.RPCEndpoints[0]
		}
	}
	return &GasClient{
		multiplier: cfg.Platform.GasMultiplier,
		fallbacks:  fallbacks,
		rpcURLs:    rpcURLs,
		clients:    make(map[string]*ethclient.Client),
	}
}

// GasPriceGwei returns the effective gas price for a chain in gwei, with the
// configured headroom multiplier applied.
func (c *GasClient) GasPriceGwei(ctx context.Context, chain string) float64 {
	base, live := c.suggestGwei(ctx, chain)
	if !live {
		metrics.GasPriceFallbacks.WithLabelValues(chain).Inc()
		base = c.fallbacks[chain]
	}
	return base * c.multiplier
}

// GasCostUSD converts a gas unit estimate on a chain into USD using the
// chain's native token price.
func (c *GasClient) GasCostUSD(ctx context.Context, chain string, gasUnits int64, nativePriceUSD float64) float64 {
	priceGwei := c.GasPriceGwei(ctx, chain)
	// gasUnits * gwei -> native token amount
	nativeAmount := float64(gasUnits) * priceGwei / params.GWei
	return nativeAmount * nativePriceUSD
}

// suggestGwei queries the chain RPC for a gas price suggestion.
func (c *GasClient) suggestGwei(ctx context.Context, chain string) (float64, bool) {
	client, err := c.dial(chain)
	if err != nil {
		return 0, false
	}

	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	price, err := client.SuggestGasPrice(callCtx)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"chain": chain,
			"error": err,
		}).Warn("gas price suggestion failed, using fallback")
		c.evict(chain)
		return 0, false
	}
	if price == nil || price.Sign() <= 0 {
		return 0, false
	}

	gwei, _ := new(big.Float).Quo(
		new(big.Float).SetInt(price),
		big.NewFloat(params.GWei),
	).Float64()
	return gwei, true
}

func (c *GasClient) dial(chain string) (*ethclient.Client, error) {
	url, ok := c.rpcURLs[chain]
	if !ok {
		return nil, errNoRPC
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[chain]; ok {
		return client, nil
	}
	client, err := ethclient.Dial(url)
	if err != nil {
		return nil, err
	}
	c.clients[chain] = client
	return client, nil
}

// evict drops a cached RPC connection so the next call redials.
func (c *GasClient) evict(chain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[chain]; ok {
		client.Close()
		delete(c.clients, chain)
	}
}

// Close releases all cached RPC connections.
func (c *GasClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for chain, client := range c.clients {
		client.Close()
		delete(c.clients, chain)
	}
}
