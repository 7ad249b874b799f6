package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CoinGeckoClient CoinGecko simple price API client
type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// coinIDs maps token symbols to CoinGecko coin ids. Wrapped tokens share the
// id of the underlying asset.
var coinIDs = map[string]string{
	"USDC":   "usd-coin",
	"USDT":   "tether",
	"ETH":    "ethereum",
	"WETH":   "ethereum",
	"MATIC":  "matic-network",
	"WMATIC": "matic-network",
	"BTC":    "bitcoin",
	"WBTC":   "wrapped-bitcoin",
	"DAI":    "dai",
	"BNB":    "binancecoin",
	"AVAX":   "avalanche-2",
}

// NewCoinGeckoClient creates a new CoinGecko client
func NewCoinGeckoClient(baseURL, apiKey string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGeckoClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetPrices fetches USD prices for the given symbols in one call.
// Symbols without a known coin id are skipped silently.
func (c *CoinGeckoClient) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	idToSymbol := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		upper := strings.ToUpper(sym)
		id, ok := coinIDs[upper]
		if !ok {
			continue
		}
		if _, seen := idToSymbol[id]; !seen {
			ids = append(ids, id)
		}
		idToSymbol[id] = upper
	}
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")

	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-CG-Demo-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode coingecko response: %w", err)
	}

	prices := make(map[string]float64, len(payload))
	for id, entry := range payload {
		if entry.USD <= 0 {
			continue
		}
		// wrapped tokens share the same coin id, fill all aliases
		for alias, aliasID := range coinIDs {
			if aliasID == id {
				prices[alias] = entry.USD
			}
		}
	}
	return prices, nil
}
