// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Wallet kinds.
const (
	WalletRPC      = "rpc"
	WalletKeystore = "keystore"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Network   NetworkConfig   `mapstructure:"network"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"` // used in TUI mode, rotated
	TUIMode     bool   `mapstructure:"-"`        // set at runtime
}

// NetworkConfig describes the single network the client trades on.
type NetworkConfig struct {
	ChainID           uint64         `mapstructure:"chain_id"`
	ChainName         string         `mapstructure:"chain_name"`
	NativeCurrency    CurrencyConfig `mapstructure:"native_currency"`
	RPCURLs           []string       `mapstructure:"rpc_urls"`
	BlockExplorerURLs []string       `mapstructure:"block_explorer_urls"`
}

// CurrencyConfig describes the native currency.
type CurrencyConfig struct {
	Name     string `mapstructure:"name"`
	Symbol   string `mapstructure:"symbol"`
	Decimals uint8  `mapstructure:"decimals"`
}

// ContractsConfig holds the deployed contract addresses.
type ContractsConfig struct {
	Token string `mapstructure:"token"`
	Sale  string `mapstructure:"sale"`
}

// TokenAddress returns the token address as common.Address.
func (c *ContractsConfig) TokenAddress() common.Address {
	return common.HexToAddress(c.Token)
}

// SaleAddress returns the sale address as common.Address.
func (c *ContractsConfig) SaleAddress() common.Address {
	return common.HexToAddress(c.Sale)
}

// WalletConfig selects and configures the wallet provider.
type WalletConfig struct {
	// Kind is "rpc" (EIP-1193 JSON-RPC wallet endpoint) or "keystore".
	Kind string `mapstructure:"kind"`

	// URL of the wallet endpoint for kind "rpc" (http(s) or ws(s)).
	URL string `mapstructure:"url"`

	// Keystore settings for kind "keystore".
	KeystoreDir   string `mapstructure:"keystore_dir"`
	Account       string `mapstructure:"account"`
	PassphraseEnv string `mapstructure:"passphrase_env"`

	// EventPollInterval drives account/chain change detection when the
	// endpoint cannot push notifications.
	EventPollInterval time.Duration `mapstructure:"event_poll_interval"`

	// ConfirmPollInterval is the receipt polling period while awaiting finality.
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"`
}

// AccountAddress returns the configured keystore account, if any.
func (c *WalletConfig) AccountAddress() common.Address {
	return common.HexToAddress(c.Account)
}

// RPCConfig throttles read traffic.
type RPCConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// MonitorConfig controls the passive display refresh.
type MonitorConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceExporter  string `mapstructure:"trace_exporter"` // zipkin, otlp-grpc, otlp-http, console, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("TSALE")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "TSALE_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "TSALE_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "TSALE_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "TSALE_LOG_FILE")

	// Network
	v.BindEnv("network.chain_id", "TSALE_CHAIN_ID")
	v.BindEnv("network.rpc_urls", "TSALE_RPC_URLS")

	// Contracts
	v.BindEnv("contracts.token", "TSALE_TOKEN_ADDRESS", "TOKEN_ADDRESS")
	v.BindEnv("contracts.sale", "TSALE_SALE_ADDRESS", "TOKENSALE_ADDRESS")

	// Wallet
	v.BindEnv("wallet.kind", "TSALE_WALLET_KIND")
	v.BindEnv("wallet.url", "TSALE_WALLET_URL")
	v.BindEnv("wallet.keystore_dir", "TSALE_KEYSTORE_DIR")
	v.BindEnv("wallet.account", "TSALE_ACCOUNT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "TSALE_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "TSALE_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "TSALE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "TSALE_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "tokensale-client")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Sepolia
	v.SetDefault("network.chain_id", 11155111)
	v.SetDefault("network.chain_name", "Sepolia Test Network")
	v.SetDefault("network.native_currency.name", "Sepolia ETH")
	v.SetDefault("network.native_currency.symbol", "ETH")
	v.SetDefault("network.native_currency.decimals", 18)
	v.SetDefault("network.rpc_urls", []string{"https://rpc.sepolia.org"})
	v.SetDefault("network.block_explorer_urls", []string{"https://sepolia.etherscan.io"})

	// Deployed contracts
	v.SetDefault("contracts.token", "0x829b714f4492c668023f04fffe24cc491a4d7d57")
	v.SetDefault("contracts.sale", "0x4dfe6171d0edca008eb1e79476b5ebebc1bb8c32")

	// Wallet defaults (Frame listens on 1248)
	v.SetDefault("wallet.kind", WalletRPC)
	v.SetDefault("wallet.url", "http://127.0.0.1:1248")
	v.SetDefault("wallet.passphrase_env", "TSALE_KEYSTORE_PASSPHRASE")
	v.SetDefault("wallet.event_poll_interval", "2s")
	v.SetDefault("wallet.confirm_poll_interval", "2s")

	// RPC read throttling
	v.SetDefault("rpc.requests_per_second", 10)
	v.SetDefault("rpc.burst", 10)

	// Monitor
	v.SetDefault("monitor.refresh_interval", "15s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "tokensale-client")
	v.SetDefault("telemetry.trace_exporter", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Network.ChainID == 0 {
		return fmt.Errorf("network.chain_id is required")
	}
	if c.Network.ChainName == "" {
		return fmt.Errorf("network.chain_name is required")
	}
	if c.Network.NativeCurrency.Symbol == "" {
		return fmt.Errorf("network.native_currency.symbol is required")
	}
	if c.Network.NativeCurrency.Decimals != 18 {
		return fmt.Errorf("network.native_currency.decimals must be 18, got %d", c.Network.NativeCurrency.Decimals)
	}
	if len(c.Network.RPCURLs) == 0 {
		return fmt.Errorf("network.rpc_urls cannot be empty")
	}
	for _, raw := range c.Network.RPCURLs {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid network.rpc_urls entry %q: %w", raw, err)
		}
	}
	if !common.IsHexAddress(c.Contracts.Token) {
		return fmt.Errorf("invalid contracts.token: %s", c.Contracts.Token)
	}
	if !common.IsHexAddress(c.Contracts.Sale) {
		return fmt.Errorf("invalid contracts.sale: %s", c.Contracts.Sale)
	}

	switch c.Wallet.Kind {
	case WalletRPC:
		if c.Wallet.URL == "" {
			return fmt.Errorf("wallet.url is required for wallet kind %q", WalletRPC)
		}
	case WalletKeystore:
		if c.Wallet.KeystoreDir == "" {
			return fmt.Errorf("wallet.keystore_dir is required for wallet kind %q", WalletKeystore)
		}
		if c.Wallet.Account != "" && !common.IsHexAddress(c.Wallet.Account) {
			return fmt.Errorf("invalid wallet.account: %s", c.Wallet.Account)
		}
	case "":
		// No wallet configured: every operation reports a missing provider.
	default:
		return fmt.Errorf("unknown wallet.kind %q", c.Wallet.Kind)
	}

	if c.Wallet.ConfirmPollInterval <= 0 {
		return fmt.Errorf("wallet.confirm_poll_interval must be positive")
	}
	if c.RPC.RequestsPerSecond <= 0 || c.RPC.Burst < 1 {
		return fmt.Errorf("rpc.requests_per_second and rpc.burst must be positive")
	}
	return nil
}
