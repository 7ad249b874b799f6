package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Database DatabaseConfig           `yaml:"database"`
	NATS     NATSConfig               `yaml:"nats"`
	CORS     CORSConfig               `yaml:"cors"`
	Admin    AdminConfig              `yaml:"admin"`
	Platform PlatformConfig           `yaml:"platform"`
	Scoring  ScoringConfig            `yaml:"scoring"`
	Networks map[string]NetworkConfig `yaml:"networks"`
	Bridges  map[string]BridgeConfig  `yaml:"bridges"`
	Prices   PricesConfig             `yaml:"prices"`
	Monitor  MonitorConfig            `yaml:"monitor"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"`
}

// PlatformConfig platform-level bridge parameters
type PlatformConfig struct {
	// FeeBps is the aggregator's own markup in basis points, additive to
	// each bridge protocol's fee.
	FeeBps int64 `yaml:"feeBps"`
	// GasMultiplier biases suggested gas prices toward faster inclusion.
	GasMultiplier float64 `yaml:"gasMultiplier"`
	// MaxSlippagePercent default slippage tolerance for execute requests.
	MaxSlippagePercent float64 `yaml:"maxSlippagePercent"`
	// SupportedTokens are the symbols the platform quotes and pre-warms.
	SupportedTokens []string `yaml:"supportedTokens"`
	// TokenDecimals maps token symbol to decimals. Missing entries fall back
	// to 6 (the USDC reference used throughout the quote math).
	TokenDecimals map[string]int `yaml:"tokenDecimals"`
	// QuoteValiditySeconds how long a detailed quote stays valid.
	QuoteValiditySeconds int `yaml:"quoteValiditySeconds"`
}

// ScoringConfig tuning constants for the route scorer. The balanced weights
// and inverse-time scales are tunables with no deeper rationale; they only
// have to stay consistent within one scoring call.
type ScoringConfig struct {
	FastestTimeScale         float64 `yaml:"fastestTimeScale"`
	BalancedFeeWeight        float64 `yaml:"balancedFeeWeight"`
	BalancedTimeScale        float64 `yaml:"balancedTimeScale"`
	BalancedConfidenceWeight float64 `yaml:"balancedConfidenceWeight"`
}

// NetworkConfig per-chain network configuration
type NetworkConfig struct {
	ChainID         int      `yaml:"chainId"`
	Name            string   `yaml:"name"`
	Symbol          string   `yaml:"symbol"`
	RPCEndpoints    []string `yaml:"rpcEndpoints"`
	GasFallbackGwei float64  `yaml:"gasFallbackGwei"`
}

// BridgeConfig per-protocol bridge configuration
type BridgeConfig struct {
	APIURL  string `yaml:"apiUrl"`
	Enabled *bool  `yaml:"enabled"`
}

// PricesConfig market data configuration
type PricesConfig struct {
	CoinGeckoBaseURL       string `yaml:"coingeckoBaseUrl"`
	CoinGeckoAPIKey        string `yaml:"coingeckoApiKey"`
	CacheTTLSeconds        int    `yaml:"cacheTtlSeconds"`
	RefreshIntervalSeconds int    `yaml:"refreshIntervalSeconds"`
	HistoryRetentionDays   int    `yaml:"historyRetentionDays"`
}

// MonitorConfig background monitor configuration. The bridge check pair
// drives the per-protocol health cache; the request pair drives expiry of
// stalled bridge requests.
type MonitorConfig struct {
	BridgeCheckIntervalSeconds  int `yaml:"bridgeCheckIntervalSeconds"`
	StatusMaxAgeSeconds         int `yaml:"statusMaxAgeSeconds"`
	RequestSweepIntervalSeconds int `yaml:"requestSweepIntervalSeconds"`
	RequestMaxAgeSeconds        int `yaml:"requestMaxAgeSeconds"`
}

// AppConfig global application configuration instance
var AppConfig *Config

// LoadConfig loads configuration from a YAML file, applies defaults and
// environment variable overrides, and stores the result in AppConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	AppConfig = cfg
	return cfg, nil
}

// defaultConfig returns the built-in configuration mirroring the platform
// production defaults. A config file only needs to override what differs.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
		Platform: PlatformConfig{
			FeeBps:             5,
			GasMultiplier:      1.2,
			MaxSlippagePercent: 0.5,
			SupportedTokens:    []string{"USDC", "USDT", "ETH", "WETH", "MATIC", "WMATIC", "BTC", "WBTC"},
			TokenDecimals: map[string]int{
				"USDC": 6, "USDT": 6,
				"ETH": 18, "WETH": 18, "MATIC": 18, "WMATIC": 18,
				"BTC": 8, "WBTC": 8,
			},
			QuoteValiditySeconds: 30,
		},
		Scoring: ScoringConfig{
			FastestTimeScale:         100000,
			BalancedFeeWeight:        30,
			BalancedTimeScale:        30000,
			BalancedConfidenceWeight: 40,
		},
		Networks: map[string]NetworkConfig{
			"ethereum":  {ChainID: 1, Name: "Ethereum", Symbol: "ETH", GasFallbackGwei: 20},
			"polygon":   {ChainID: 137, Name: "Polygon", Symbol: "MATIC", GasFallbackGwei: 30},
			"arbitrum":  {ChainID: 42161, Name: "Arbitrum", Symbol: "ETH", GasFallbackGwei: 0.1},
			"optimism":  {ChainID: 10, Name: "Optimism", Symbol: "ETH", GasFallbackGwei: 0.001},
			"base":      {ChainID: 8453, Name: "Base", Symbol: "ETH", GasFallbackGwei: 0.01},
			"avalanche": {ChainID: 43114, Name: "Avalanche", Symbol: "AVAX", GasFallbackGwei: 25},
			"bsc":       {ChainID: 56, Name: "BNB Chain", Symbol: "BNB", GasFallbackGwei: 5},
			"fantom":    {ChainID: 250, Name: "Fantom", Symbol: "FTM", GasFallbackGwei: 50},
		},
		Bridges: map[string]BridgeConfig{
			"stargate": {APIURL: "https://api.stargate.finance/v1"},
			"hop":      {APIURL: "https://api.hop.exchange/v1"},
		},
		Prices: PricesConfig{
			CoinGeckoBaseURL:       "https://api.coingecko.com/api/v3",
			CacheTTLSeconds:        60,
			RefreshIntervalSeconds: 60,
			HistoryRetentionDays:   7,
		},
		Monitor: MonitorConfig{
			BridgeCheckIntervalSeconds:  300,
			StatusMaxAgeSeconds:         600,
			RequestSweepIntervalSeconds: 60,
			RequestMaxAgeSeconds:        1800,
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
// Priority: environment variable > YAML config > default.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Prices.CoinGeckoAPIKey = v
	}
	if v := os.Getenv("PLATFORM_FEE_BPS"); v != "" {
		if bps, err := strconv.ParseInt(v, 10, 64); err == nil && bps >= 0 {
			cfg.Platform.FeeBps = bps
		}
	}
	if v := os.Getenv("GAS_MULTIPLIER"); v != "" {
		if m, err := strconv.ParseFloat(v, 64); err == nil && m > 0 {
			cfg.Platform.GasMultiplier = m
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		cfg.CORS.AllowedOrigins = cfg.CORS.AllowedOrigins[:0]
		for _, o := range origins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, trimmed)
			}
		}
	}
	// Per-chain RPC overrides: ETHEREUM_RPC, POLYGON_RPC, ...
	for chain, network := range cfg.Networks {
		envKey := strings.ToUpper(chain) + "_RPC"
		if v := os.Getenv(envKey); v != "" {
			network.RPCEndpoints = []string{v}
			cfg.Networks[chain] = network
		}
	}
}

// applyDefaults fills zero values that neither YAML nor env provided.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Platform.GasMultiplier <= 0 {
		cfg.Platform.GasMultiplier = 1.2
	}
	if cfg.Platform.QuoteValiditySeconds <= 0 {
		cfg.Platform.QuoteValiditySeconds = 30
	}
	if cfg.Scoring.FastestTimeScale <= 0 {
		cfg.Scoring.FastestTimeScale = 100000
	}
	if cfg.Scoring.BalancedFeeWeight <= 0 {
		cfg.Scoring.BalancedFeeWeight = 30
	}
	if cfg.Scoring.BalancedTimeScale <= 0 {
		cfg.Scoring.BalancedTimeScale = 30000
	}
	if cfg.Scoring.BalancedConfidenceWeight <= 0 {
		cfg.Scoring.BalancedConfidenceWeight = 40
	}
	if cfg.Prices.CacheTTLSeconds <= 0 {
		cfg.Prices.CacheTTLSeconds = 60
	}
	if cfg.Prices.RefreshIntervalSeconds <= 0 {
		cfg.Prices.RefreshIntervalSeconds = 60
	}
	if cfg.Prices.HistoryRetentionDays <= 0 {
		cfg.Prices.HistoryRetentionDays = 7
	}
	if cfg.Monitor.BridgeCheckIntervalSeconds <= 0 {
		cfg.Monitor.BridgeCheckIntervalSeconds = 300
	}
	if cfg.Monitor.StatusMaxAgeSeconds <= 0 {
		cfg.Monitor.StatusMaxAgeSeconds = 600
	}
	if cfg.Monitor.RequestSweepIntervalSeconds <= 0 {
		cfg.Monitor.RequestSweepIntervalSeconds = 60
	}
	if cfg.Monitor.RequestMaxAgeSeconds <= 0 {
		cfg.Monitor.RequestMaxAgeSeconds = 1800
	}
}

// SupportedChains returns the configured chain names in map order.
func (c *Config) SupportedChains() []string {
	chains := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		chains = append(chains, name)
	}
	return chains
}

// IsSupportedChain reports whether the chain name is configured.
func (c *Config) IsSupportedChain(chain string) bool {
	_, ok := c.Networks[chain]
	return ok
}

// TokenDecimals returns the decimals for a token symbol, defaulting to 6.
func (c *Config) TokenDecimals(symbol string) int {
	if d, ok := c.Platform.TokenDecimals[strings.ToUpper(symbol)]; ok {
		return d
	}
	return 6
}

// BridgeAPIURL returns the configured quoting endpoint for a protocol,
// empty when none is configured.
func (c *Config) BridgeAPIURL(protocol string) string {
	if b, ok := c.Bridges[protocol]; ok {
		return b.APIURL
	}
	return ""
}
