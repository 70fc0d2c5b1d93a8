package gateway

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/utils"
)

type ProviderType string

const (
	ProviderTerminal     ProviderType = "terminal"
	ProviderBinancePaper ProviderType = "binance-paper"
	ProviderBinanceLive  ProviderType = "binance-live"
	ProviderPaper        ProviderType = "paper"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderTerminal: {
		Name:           string(ProviderTerminal),
		DisplayName:    "Terminal Bridge",
		Description:    "Local broker terminal reached through a websocket bridge",
		IsPaperTrading: false,
	},
	ProviderBinancePaper: {
		Name:           string(ProviderBinancePaper),
		DisplayName:    "Binance Testnet",
		Description:    "Binance testnet for paper trading cryptocurrency without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceLive: {
		Name:           string(ProviderBinanceLive),
		DisplayName:    "Binance Live",
		Description:    "Binance live environment for real-funds cryptocurrency trading",
		IsPaperTrading: false,
	},
	ProviderPaper: {
		Name:           string(ProviderPaper),
		DisplayName:    "Paper Venue",
		Description:    "In-process venue filling at the quoted ask, priced from static quotes or polygon.io",
		IsPaperTrading: true,
	},
}

// GetSupportedProviders returns the registered provider names in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific venue provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported venue provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderTerminal:
		return utils.ToJSONSchema(TerminalConfig{})
	case ProviderBinancePaper, ProviderBinanceLive:
		return utils.ToJSONSchema(BinanceConfig{})
	case ProviderPaper:
		return utils.ToJSONSchema(PaperConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported venue provider: %s", providerName)
	}
}

// ParseProviderConfig parses and validates a JSON configuration string for the given provider.
func ParseProviderConfig(providerName string, jsonConfig string) (any, error) {
	switch ProviderType(providerName) {
	case ProviderTerminal:
		return parseConfig[TerminalConfig](jsonConfig)
	case ProviderBinancePaper, ProviderBinanceLive:
		return parseConfig[BinanceConfig](jsonConfig)
	case ProviderPaper:
		return parseConfig[PaperConfig](jsonConfig)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported venue provider: %s", providerName)
	}
}

// NewGateway creates a venue gateway for the provider type.
// config must be a pointer to the provider's config struct.
func NewGateway(providerType ProviderType, config any, log *logger.Logger) (Gateway, error) {
	switch providerType {
	case ProviderTerminal:
		cfg, ok := config.(*TerminalConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "invalid config type for terminal provider")
		}

		return wrapGateway(NewTerminalGateway(*cfg, log))

	case ProviderBinancePaper, ProviderBinanceLive:
		cfg, ok := config.(*BinanceConfig)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "invalid config type for %s provider", providerType)
		}

		return wrapGateway(NewBinanceGateway(*cfg, providerType == ProviderBinancePaper, log))

	case ProviderPaper:
		cfg, ok := config.(*PaperConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "invalid config type for paper provider")
		}

		return wrapGateway(NewPaperGateway(*cfg, log))

	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported venue provider: %s", providerType)
	}
}

// wrapGateway keeps a failed constructor from returning a typed nil Gateway.
func wrapGateway[G Gateway](gateway G, err error) (Gateway, error) {
	if err != nil {
		return nil, err
	}

	return gateway, nil
}

func parseConfig[T any](jsonConfig string) (*T, error) {
	var config T
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse provider config", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config any) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, fmt.Sprintf("invalid %T", config), err)
	}

	return nil
}
