package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-signals/e2e/terminal/mockserver"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

type TerminalGatewayTestSuite struct {
	suite.Suite
	server *mockserver.MockTerminalServer
}

func TestTerminalGatewaySuite(t *testing.T) {
	suite.Run(t, new(TerminalGatewayTestSuite))
}

func (suite *TerminalGatewayTestSuite) SetupTest() {
	suite.server = mockserver.NewMockTerminalServer(mockserver.ServerConfig{
		Version:  "1.2.0",
		Login:    5001,
		Password: "secret",
		Ticks: map[string]mockserver.Tick{
			"XAUUSD": {Bid: 1999.8, Ask: 2000.0},
		},
		Symbols: map[string]mockserver.SymbolInfo{
			"XAUUSD": {Point: 0.1, Digits: 1},
		},
	})
	suite.Require().NoError(suite.server.Start(":0"))
}

func (suite *TerminalGatewayTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
}

func (suite *TerminalGatewayTestSuite) newGateway(config TerminalConfig) *TerminalGateway {
	if config.URL == "" {
		config.URL = suite.server.WebSocketURL()
	}

	gateway, err := NewTerminalGateway(config, logger.NewNopLogger())
	suite.Require().NoError(err)

	return gateway
}

func (suite *TerminalGatewayTestSuite) connect() Session {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := suite.newGateway(TerminalConfig{Login: 5001, Password: "secret"}).Connect(ctx)
	suite.Require().NoError(err)

	return session
}

func (suite *TerminalGatewayTestSuite) TestNewTerminalGateway_InvalidURL() {
	gateway, err := NewTerminalGateway(TerminalConfig{URL: "not a url"}, logger.NewNopLogger())
	suite.Nil(gateway)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *TerminalGatewayTestSuite) TestConnect_Handshake() {
	session := suite.connect()
	defer session.Close()

	suite.Equal(1, suite.server.Calls("initialize"))
	suite.Equal(TerminalDoneCode, session.DoneCode())
}

func (suite *TerminalGatewayTestSuite) TestConnect_BadCredentials() {
	_, err := suite.newGateway(TerminalConfig{Login: 5001, Password: "wrong"}).Connect(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeGatewayUnavailable))
	suite.Contains(err.Error(), "Authorization failed")
}

func (suite *TerminalGatewayTestSuite) TestConnect_BridgeTooOld() {
	gateway := suite.newGateway(TerminalConfig{Login: 5001, Password: "secret", MinBridgeVersion: "1.5.0"})

	_, err := gateway.Connect(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeGatewayUnavailable))
	suite.Contains(err.Error(), "older than required")
}

func (suite *TerminalGatewayTestSuite) TestConnect_Unreachable() {
	gateway := suite.newGateway(TerminalConfig{URL: "ws://127.0.0.1:1/terminal"})

	_, err := gateway.Connect(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeGatewayUnavailable))
}

func (suite *TerminalGatewayTestSuite) TestAskPriceAndMetadata() {
	session := suite.connect()
	defer session.Close()

	ask, err := session.AskPrice(context.Background(), "XAUUSD")
	suite.NoError(err)
	suite.Require().True(ask.IsSome())
	suite.True(decimal.NewFromInt(2000).Equal(ask.Unwrap()))

	missing, err := session.AskPrice(context.Background(), "EURUSD")
	suite.NoError(err)
	suite.True(missing.IsNone())

	instrument, err := session.InstrumentMetadata(context.Background(), "XAUUSD")
	suite.NoError(err)
	suite.Require().True(instrument.IsSome())
	suite.True(decimal.RequireFromString("0.1").Equal(instrument.Unwrap().PointSize))
	suite.Equal(int32(1), instrument.Unwrap().Digits)

	unknown, err := session.InstrumentMetadata(context.Background(), "EURUSD")
	suite.NoError(err)
	suite.True(unknown.IsNone())
}

func (suite *TerminalGatewayTestSuite) TestSubmitOrder() {
	session := suite.connect()
	defer session.Close()

	req, err := types.NewOrderRequest(types.OrderRequestParams{
		Symbol:         "XAUUSD",
		Direction:      types.DirectionBuy,
		Volume:         decimal.RequireFromString("0.1"),
		ReferencePrice: decimal.NewFromInt(2000),
		StopLoss:       decimal.NewFromInt(1999),
		TakeProfit:     decimal.NewFromInt(2001),
		PointSize:      decimal.RequireFromString("0.1"),
		Deviation:      10,
		Magic:          types.DefaultOrderMagic,
		Tag:            types.DefaultOrderTag,
	}, time.Now())
	suite.Require().NoError(err)

	reply, err := session.SubmitOrder(context.Background(), req)
	suite.NoError(err)
	suite.Equal(TerminalDoneCode, reply.Code)
	suite.Equal("100001", reply.OrderID)
	suite.True(decimal.NewFromInt(2000).Equal(reply.ExecutedPrice))

	orders := suite.server.Orders()
	suite.Require().Len(orders, 1)
	suite.Equal("deal", orders[0].Action)
	suite.Equal("buy", orders[0].Type)
	suite.True(decimal.NewFromInt(1999).Equal(orders[0].SL))
	suite.True(decimal.NewFromInt(2001).Equal(orders[0].TP))
	suite.Equal(int64(234000), orders[0].Magic)
	suite.Equal("AI-generated trade", orders[0].Comment)
	suite.Equal("ioc", orders[0].TypeFilling)
	suite.Equal("gtc", orders[0].TypeTime)
	suite.Equal(req.ID, orders[0].ClientID)
}

func (suite *TerminalGatewayTestSuite) TestSubmitOrder_Rejected() {
	suite.server.SetRetcode(10019, "No money")

	session := suite.connect()
	defer session.Close()

	req, err := types.NewOrderRequest(types.OrderRequestParams{
		Symbol:         "XAUUSD",
		Direction:      types.DirectionSell,
		Volume:         decimal.RequireFromString("0.1"),
		ReferencePrice: decimal.NewFromInt(2000),
		StopLoss:       decimal.NewFromInt(2001),
		TakeProfit:     decimal.NewFromInt(1999),
		PointSize:      decimal.RequireFromString("0.1"),
		Deviation:      10,
	}, time.Now())
	suite.Require().NoError(err)

	reply, err := session.SubmitOrder(context.Background(), req)
	suite.NoError(err)
	suite.Equal("10019", reply.Code)
	suite.Equal("No money", reply.Message)
}

func (suite *TerminalGatewayTestSuite) TestCloseReleasesConnection() {
	session := suite.connect()
	suite.NoError(session.Close())

	suite.Eventually(func() bool {
		return suite.server.OpenConnections() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
