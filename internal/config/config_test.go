package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) write(content string) string {
	path := filepath.Join(suite.dir, "signals.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *ConfigTestSuite) TestDefaultIsValid() {
	cfg := Default()
	suite.NoError(cfg.Validate())
	suite.Equal([]string{"XAUUSD", "EURUSD", "GBPUSD"}, cfg.Instruments)
	suite.Equal(int64(234000), cfg.Orders.Magic)
	suite.Equal("AI-generated trade", cfg.Orders.Tag)
}

func (suite *ConfigTestSuite) TestLoad_File() {
	path := suite.write(`
app:
  log_level: debug
orders:
  max_volume: 5
  stop_distance_points: 20
instruments: [XAUUSD]
gateway:
  provider: paper
  paper:
    quote_source: static
    quotes:
      XAUUSD: 2310.5
    point_sizes:
      XAUUSD: 0.01
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("debug", cfg.App.LogLevel)
	suite.Equal("argo-signals", cfg.App.Name)
	suite.Equal(5.0, cfg.Orders.MaxVolume)
	suite.Equal(0.01, cfg.Orders.MinVolume)
	suite.Equal(20, cfg.Orders.StopDistancePoints)
	suite.Equal([]string{"XAUUSD"}, cfg.Instruments)
	suite.Equal(map[string]float64{"XAUUSD": 2310.5}, cfg.Gateway.Paper.Quotes)

	paper, ok := cfg.ProviderConfig().(*gateway.PaperConfig)
	suite.Require().True(ok)
	suite.Equal("static", paper.QuoteSource)
}

func (suite *ConfigTestSuite) TestLoad_EnvOverrides() {
	path := suite.write("gateway:\n  provider: paper\n")
	suite.T().Setenv("SIGNALS_GATEWAY_PROVIDER", "terminal")
	suite.T().Setenv("SIGNALS_GATEWAY_TERMINAL_URL", "ws://10.0.0.5:9000/terminal")
	suite.T().Setenv("SIGNALS_ORDERS_DEVIATION", "25")

	cfg, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal("terminal", cfg.Gateway.Provider)
	suite.Equal("ws://10.0.0.5:9000/terminal", cfg.Gateway.Terminal.URL)
	suite.Equal(25, cfg.Orders.Deviation)
}

func (suite *ConfigTestSuite) TestLoad_Invalid() {
	suite.Run("unknown provider", func() {
		_, err := Load(suite.write("gateway:\n  provider: ftx\n"))
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	})

	suite.Run("inverted volume bounds", func() {
		_, err := Load(suite.write("orders:\n  min_volume: 10\n  max_volume: 1\n"))
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	})

	suite.Run("missing file", func() {
		_, err := Load(filepath.Join(suite.dir, "missing.yaml"))
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
	})
}

func (suite *ConfigTestSuite) TestSaveAndLoad() {
	cfg := Default()
	cfg.Gateway.Provider = string(gateway.ProviderBinancePaper)
	cfg.Gateway.Binance.ApiKey = "key"
	cfg.Gateway.Binance.SecretKey = "secret"

	path := filepath.Join(suite.dir, "saved.yaml")
	suite.Require().NoError(Save(path, cfg))

	loaded, err := Load(path)
	suite.Require().NoError(err)
	suite.Equal(cfg.Gateway.Provider, loaded.Gateway.Provider)
	suite.Equal("key", loaded.Gateway.Binance.ApiKey)
	suite.Equal(cfg.Gateway.Paper.PointSizes, loaded.Gateway.Paper.PointSizes)
	suite.Equal(cfg.Orders, loaded.Orders)
}

func (suite *ConfigTestSuite) TestSubmitterConfig() {
	cfg := Default()
	submitter := cfg.SubmitterConfig()

	suite.True(decimal.RequireFromString("0.01").Equal(submitter.MinVolume))
	suite.True(decimal.NewFromInt(100).Equal(submitter.MaxVolume))
	suite.Equal(10, submitter.StopDistancePoints)
	suite.Equal(cfg.Instruments, submitter.Instruments)
	suite.True(decimal.RequireFromString("0.1").Equal(cfg.DefaultVolume()))
}

func (suite *ConfigTestSuite) TestNewGateway() {
	cfg := Default()
	cfg.Gateway.Provider = string(gateway.ProviderPaper)

	gw, err := cfg.NewGateway(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Equal("paper", gw.Name())
}
