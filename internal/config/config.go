// Package config loads the signals configuration from YAML, environment and defaults.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/trading"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. SIGNALS_GATEWAY_PROVIDER.
const EnvPrefix = "SIGNALS"

// DefaultConfigName is the file looked up in the working directory when no path is given.
const DefaultConfigName = "signals"

// Config is the complete application configuration.
type Config struct {
	App         AppConfig     `mapstructure:"app" yaml:"app"`
	Orders      OrdersConfig  `mapstructure:"orders" yaml:"orders"`
	Instruments []string      `mapstructure:"instruments" yaml:"instruments" validate:"required,min=1,dive,required"`
	Gateway     GatewayConfig `mapstructure:"gateway" yaml:"gateway"`
	Server      ServerConfig  `mapstructure:"server" yaml:"server"`
}

type AppConfig struct {
	Name     string `mapstructure:"name" yaml:"name" validate:"required"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

// OrdersConfig bounds trade actions and fixes the metadata sent with every order.
type OrdersConfig struct {
	MinVolume          float64 `mapstructure:"min_volume" yaml:"min_volume" validate:"gt=0"`
	MaxVolume          float64 `mapstructure:"max_volume" yaml:"max_volume" validate:"gtefield=MinVolume"`
	DefaultVolume      float64 `mapstructure:"default_volume" yaml:"default_volume" validate:"gtefield=MinVolume,ltefield=MaxVolume"`
	StopDistancePoints int     `mapstructure:"stop_distance_points" yaml:"stop_distance_points" validate:"gt=0"`
	Deviation          int     `mapstructure:"deviation" yaml:"deviation" validate:"gte=0"`
	Magic              int64   `mapstructure:"magic" yaml:"magic" validate:"gte=0"`
	Tag                string  `mapstructure:"tag" yaml:"tag" validate:"max=31"`
}

// GatewayConfig selects the venue. Only the selected provider's section is validated.
type GatewayConfig struct {
	Provider string                 `mapstructure:"provider" yaml:"provider" validate:"required,oneof=terminal binance-paper binance-live paper"`
	Terminal gateway.TerminalConfig `mapstructure:"terminal" yaml:"terminal" validate:"-"`
	Binance  gateway.BinanceConfig  `mapstructure:"binance" yaml:"binance" validate:"-"`
	Paper    gateway.PaperConfig    `mapstructure:"paper" yaml:"paper" validate:"-"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:     "argo-signals",
			LogLevel: "info",
		},
		Orders: OrdersConfig{
			MinVolume:          0.01,
			MaxVolume:          100,
			DefaultVolume:      0.1,
			StopDistancePoints: 10,
			Deviation:          10,
			Magic:              234000,
			Tag:                "AI-generated trade",
		},
		Instruments: []string{"XAUUSD", "EURUSD", "GBPUSD"},
		Gateway: GatewayConfig{
			Provider: string(gateway.ProviderTerminal),
			Terminal: gateway.TerminalConfig{
				URL:              "ws://127.0.0.1:8765/terminal",
				MinBridgeVersion: gateway.DefaultMinBridgeVersion,
			},
			Paper: gateway.PaperConfig{
				QuoteSource: gateway.QuoteSourceStatic,
				Quotes: map[string]float64{
					"XAUUSD": 2000.0,
					"EURUSD": 1.085,
					"GBPUSD": 1.27,
				},
				PointSizes: map[string]float64{
					"XAUUSD": 0.01,
					"EURUSD": 0.00001,
					"GBPUSD": 0.00001,
				},
			},
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.log_level", d.App.LogLevel)

	v.SetDefault("orders.min_volume", d.Orders.MinVolume)
	v.SetDefault("orders.max_volume", d.Orders.MaxVolume)
	v.SetDefault("orders.default_volume", d.Orders.DefaultVolume)
	v.SetDefault("orders.stop_distance_points", d.Orders.StopDistancePoints)
	v.SetDefault("orders.deviation", d.Orders.Deviation)
	v.SetDefault("orders.magic", d.Orders.Magic)
	v.SetDefault("orders.tag", d.Orders.Tag)

	v.SetDefault("instruments", d.Instruments)

	v.SetDefault("gateway.provider", d.Gateway.Provider)
	v.SetDefault("gateway.terminal.url", d.Gateway.Terminal.URL)
	v.SetDefault("gateway.terminal.login", d.Gateway.Terminal.Login)
	v.SetDefault("gateway.terminal.password", d.Gateway.Terminal.Password)
	v.SetDefault("gateway.terminal.server", d.Gateway.Terminal.Server)
	v.SetDefault("gateway.terminal.min_bridge_version", d.Gateway.Terminal.MinBridgeVersion)
	v.SetDefault("gateway.binance.api_key", "")
	v.SetDefault("gateway.binance.secret_key", "")
	v.SetDefault("gateway.binance.base_url", "")
	v.SetDefault("gateway.paper.quote_source", d.Gateway.Paper.QuoteSource)
	v.SetDefault("gateway.paper.polygon_api_key", "")

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
}

// Load reads the configuration file at path, or ./signals.yaml when path is empty and the file exists.
// Environment variables prefixed with SIGNALS_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	// map defaults are applied here; viper would merge them key by key into file values
	if len(cfg.Gateway.Paper.Quotes) == 0 {
		cfg.Gateway.Paper.Quotes = Default().Gateway.Paper.Quotes
	}

	if len(cfg.Gateway.Paper.PointSizes) == 0 {
		cfg.Gateway.Paper.PointSizes = Default().Gateway.Paper.PointSizes
	}

	// viper lowercases map keys; symbols are upper case
	cfg.Gateway.Paper.Quotes = upperKeys(cfg.Gateway.Paper.Quotes)
	cfg.Gateway.Paper.PointSizes = upperKeys(cfg.Gateway.Paper.PointSizes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration. Provider sections are checked when the gateway is built.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to write config file %s", path)
	}

	return nil
}

// ProviderConfig returns a pointer to the selected provider's section.
func (c *Config) ProviderConfig() any {
	switch gateway.ProviderType(c.Gateway.Provider) {
	case gateway.ProviderTerminal:
		return &c.Gateway.Terminal
	case gateway.ProviderBinancePaper, gateway.ProviderBinanceLive:
		return &c.Gateway.Binance
	case gateway.ProviderPaper:
		return &c.Gateway.Paper
	default:
		return nil
	}
}

// NewGateway builds the configured venue gateway.
func (c *Config) NewGateway(log *logger.Logger) (gateway.Gateway, error) {
	return gateway.NewGateway(gateway.ProviderType(c.Gateway.Provider), c.ProviderConfig(), log)
}

// SubmitterConfig converts the order settings for the submitter.
func (c *Config) SubmitterConfig() trading.SubmitterConfig {
	return trading.SubmitterConfig{
		Instruments:        append([]string(nil), c.Instruments...),
		MinVolume:          decimal.NewFromFloat(c.Orders.MinVolume),
		MaxVolume:          decimal.NewFromFloat(c.Orders.MaxVolume),
		StopDistancePoints: c.Orders.StopDistancePoints,
		Deviation:          c.Orders.Deviation,
		Magic:              c.Orders.Magic,
		Tag:                c.Orders.Tag,
	}
}

// DefaultVolume returns the lot size used when a trade action gives none.
func (c *Config) DefaultVolume() decimal.Decimal {
	return decimal.NewFromFloat(c.Orders.DefaultVolume)
}

func upperKeys(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}

	out := make(map[string]float64, len(m))
	for key, value := range m {
		out[strings.ToUpper(key)] = value
	}

	return out
}
