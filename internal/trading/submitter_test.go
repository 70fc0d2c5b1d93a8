package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/mocks"
	signalerrors "github.com/rxtech-lab/argo-signals/pkg/errors"
)

type SubmitterTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	gateway   *mocks.MockGateway
	session   *mocks.MockSession
	submitter *Submitter
}

func TestSubmitterSuite(t *testing.T) {
	suite.Run(t, new(SubmitterTestSuite))
}

func defaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		Instruments:        []string{"XAUUSD", "EURUSD", "GBPUSD"},
		MinVolume:          decimal.RequireFromString("0.01"),
		MaxVolume:          decimal.RequireFromString("100"),
		StopDistancePoints: 10,
		Deviation:          10,
		Magic:              types.DefaultOrderMagic,
		Tag:                types.DefaultOrderTag,
	}
}

func (suite *SubmitterTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.gateway = mocks.NewMockGateway(suite.ctrl)
	suite.session = mocks.NewMockSession(suite.ctrl)
	suite.gateway.EXPECT().Name().Return("mock").AnyTimes()

	submitter, err := NewSubmitter(suite.gateway, defaultSubmitterConfig(), logger.NewNopLogger())
	suite.Require().NoError(err)
	submitter.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	suite.submitter = submitter
}

func (suite *SubmitterTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *SubmitterTestSuite) expectQuote(symbol, ask, point string) {
	suite.session.EXPECT().AskPrice(gomock.Any(), symbol).
		Return(optional.Some(decimal.RequireFromString(ask)), nil)
	suite.session.EXPECT().InstrumentMetadata(gomock.Any(), symbol).
		Return(optional.Some(types.Instrument{Symbol: symbol, PointSize: decimal.RequireFromString(point), Digits: 2}), nil)
}

func (suite *SubmitterTestSuite) TestNewSubmitter_InvalidConfig() {
	suite.Run("empty allow-list", func() {
		config := defaultSubmitterConfig()
		config.Instruments = nil
		_, err := NewSubmitter(suite.gateway, config, logger.NewNopLogger())
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeInvalidConfiguration))
	})

	suite.Run("inverted volume bounds", func() {
		config := defaultSubmitterConfig()
		config.MaxVolume = decimal.RequireFromString("0.001")
		_, err := NewSubmitter(suite.gateway, config, logger.NewNopLogger())
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeInvalidConfiguration))
	})
}

func (suite *SubmitterTestSuite) TestSubmit_InvalidActionMakesNoGatewayCalls() {
	for _, action := range []string{"hold", "BUY", " buy", ""} {
		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "XAUUSD",
			Action: action,
			Volume: decimal.RequireFromString("0.1"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeInvalidAction), "action %q", action)
	}
}

func (suite *SubmitterTestSuite) TestSubmit_LocalValidation() {
	suite.Run("unsupported symbol", func() {
		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "BTCUSD",
			Action: "buy",
			Volume: decimal.RequireFromString("0.1"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeUnsupportedSymbol))
	})

	suite.Run("volume below minimum", func() {
		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "XAUUSD",
			Action: "buy",
			Volume: decimal.RequireFromString("0.001"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeInvalidVolume))
	})

	suite.Run("volume above maximum", func() {
		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "XAUUSD",
			Action: "sell",
			Volume: decimal.RequireFromString("100.5"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeInvalidVolume))
	})
}

func (suite *SubmitterTestSuite) TestSubmit_HandshakeFailure() {
	suite.gateway.EXPECT().Connect(gomock.Any()).Return(nil, errors.New("terminal not running"))

	_, err := suite.submitter.Submit(context.Background(), SubmitParams{
		Symbol: "XAUUSD",
		Action: "buy",
		Volume: decimal.RequireFromString("0.1"),
	})
	suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeGatewayUnavailable))
	suite.Contains(err.Error(), "terminal not running")
}

func (suite *SubmitterTestSuite) TestSubmit_BuyBracket() {
	var sent types.OrderRequest

	gomock.InOrder(
		suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil),
		suite.session.EXPECT().AskPrice(gomock.Any(), "XAUUSD").Return(optional.Some(decimal.RequireFromString("2000.00")), nil),
		suite.session.EXPECT().InstrumentMetadata(gomock.Any(), "XAUUSD").
			Return(optional.Some(types.Instrument{Symbol: "XAUUSD", PointSize: decimal.RequireFromString("0.1"), Digits: 2}), nil),
		suite.session.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req types.OrderRequest) (types.VenueReply, error) {
				sent = req
				return types.VenueReply{Code: "10009", OrderID: "555", ExecutedPrice: decimal.RequireFromString("2000.05")}, nil
			}).Times(1),
		suite.session.EXPECT().DoneCode().Return("10009"),
		suite.session.EXPECT().Close().Return(nil),
	)

	result, err := suite.submitter.Submit(context.Background(), SubmitParams{
		Symbol: "XAUUSD",
		Action: "buy",
		Volume: decimal.RequireFromString("0.1"),
	})
	suite.Require().NoError(err)

	suite.True(decimal.RequireFromString("1999.00").Equal(sent.StopLoss))
	suite.True(decimal.RequireFromString("2001.00").Equal(sent.TakeProfit))
	suite.True(decimal.RequireFromString("2000.00").Equal(sent.ReferencePrice))
	suite.Equal(10, sent.Deviation)
	suite.Equal(int64(234000), sent.Magic)
	suite.Equal("AI-generated trade", sent.Tag)
	suite.Equal(types.OrderFillingIOC, sent.Filling)
	suite.Equal(types.OrderExpirationGTC, sent.Expiration)

	suite.Equal(sent.ID, result.RequestID)
	suite.Equal("555", result.OrderID)
	suite.Equal("Trade executed: buy at 2000.05", result.Message())
}

func (suite *SubmitterTestSuite) TestSubmit_SellBracket() {
	var sent types.OrderRequest

	suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil)
	suite.expectQuote("XAUUSD", "2000.00", "0.1")
	suite.session.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req types.OrderRequest) (types.VenueReply, error) {
			sent = req
			return types.VenueReply{Code: "10009", ExecutedPrice: decimal.RequireFromString("1999.95")}, nil
		})
	suite.session.EXPECT().DoneCode().Return("10009")
	suite.session.EXPECT().Close().Return(nil)

	_, err := suite.submitter.Submit(context.Background(), SubmitParams{
		Symbol: "XAUUSD",
		Action: "sell",
		Volume: decimal.RequireFromString("0.1"),
	})
	suite.Require().NoError(err)
	suite.True(decimal.RequireFromString("2001.00").Equal(sent.StopLoss))
	suite.True(decimal.RequireFromString("1999.00").Equal(sent.TakeProfit))
}

func (suite *SubmitterTestSuite) TestSubmit_QuoteUnavailable() {
	suite.Run("no tick", func() {
		suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil)
		suite.session.EXPECT().AskPrice(gomock.Any(), "EURUSD").Return(optional.None[decimal.Decimal](), nil)
		suite.session.EXPECT().Close().Return(nil)

		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "EURUSD",
			Action: "buy",
			Volume: decimal.RequireFromString("0.1"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeQuoteUnavailable))
	})

	suite.Run("no metadata", func() {
		suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil)
		suite.session.EXPECT().AskPrice(gomock.Any(), "EURUSD").Return(optional.Some(decimal.RequireFromString("1.0850")), nil)
		suite.session.EXPECT().InstrumentMetadata(gomock.Any(), "EURUSD").Return(optional.None[types.Instrument](), nil)
		suite.session.EXPECT().Close().Return(nil)

		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "EURUSD",
			Action: "buy",
			Volume: decimal.RequireFromString("0.1"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeQuoteUnavailable))
	})

	suite.Run("lookup error", func() {
		suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil)
		suite.session.EXPECT().AskPrice(gomock.Any(), "EURUSD").Return(optional.None[decimal.Decimal](), errors.New("bridge closed"))
		suite.session.EXPECT().Close().Return(nil)

		_, err := suite.submitter.Submit(context.Background(), SubmitParams{
			Symbol: "EURUSD",
			Action: "buy",
			Volume: decimal.RequireFromString("0.1"),
		})
		suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeQuoteUnavailable))
	})
}

func (suite *SubmitterTestSuite) TestSubmit_VenueRejected() {
	suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil)
	suite.expectQuote("GBPUSD", "1.2700", "0.0001")
	suite.session.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
		Return(types.VenueReply{Code: "10019", Message: "No money"}, nil).Times(1)
	suite.session.EXPECT().DoneCode().Return("10009")
	suite.session.EXPECT().Close().Return(nil)

	result, err := suite.submitter.Submit(context.Background(), SubmitParams{
		Symbol: "GBPUSD",
		Action: "buy",
		Volume: decimal.RequireFromString("1"),
	})
	suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeVenueRejected))

	rejected, ok := signalerrors.AsVenueRejected(err)
	suite.Require().True(ok)
	suite.Equal("10019", rejected.Code)
	suite.Equal("No money", rejected.Message)
	suite.Equal("Trade failed: No money", StatusMessage(result, err))
}

func (suite *SubmitterTestSuite) TestSubmit_TransportErrorIsNotRetried() {
	suite.gateway.EXPECT().Connect(gomock.Any()).Return(suite.session, nil)
	suite.expectQuote("XAUUSD", "2000.00", "0.1")
	suite.session.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
		Return(types.VenueReply{}, signalerrors.New(signalerrors.ErrCodeOrderFailed, "connection reset")).Times(1)
	suite.session.EXPECT().Close().Return(nil)

	_, err := suite.submitter.Submit(context.Background(), SubmitParams{
		Symbol: "XAUUSD",
		Action: "buy",
		Volume: decimal.RequireFromString("0.1"),
	})
	suite.True(signalerrors.HasCode(err, signalerrors.ErrCodeOrderFailed))
}

func (suite *SubmitterTestSuite) TestSubmit_PaperVenue() {
	quotes := mocks.NewMockQuoteSource(suite.ctrl)
	quotes.EXPECT().LastAsk(gomock.Any(), "XAUUSD").Return(optional.Some(decimal.RequireFromString("2000.00")), nil).Times(2)

	paper := gateway.NewPaperGatewayWithQuotes(quotes, map[string]float64{"XAUUSD": 0.1}, logger.NewNopLogger())
	submitter, err := NewSubmitter(paper, defaultSubmitterConfig(), logger.NewNopLogger())
	suite.Require().NoError(err)

	result, err := submitter.Submit(context.Background(), SubmitParams{
		Symbol: "XAUUSD",
		Action: "sell",
		Volume: decimal.RequireFromString("0.5"),
	})
	suite.Require().NoError(err)
	suite.Equal(gateway.PaperDoneCode, result.Code)
	suite.True(decimal.RequireFromString("2001").Equal(result.StopLoss))
	suite.Len(paper.Orders(), 1)
}

func (suite *SubmitterTestSuite) TestComputeBracket() {
	ref := decimal.RequireFromString("1.08500")
	point := decimal.RequireFromString("0.00001")

	buy := ComputeBracket(types.DirectionBuy, ref, point, 10)
	suite.True(decimal.RequireFromString("1.08490").Equal(buy.StopLoss))
	suite.True(decimal.RequireFromString("1.08510").Equal(buy.TakeProfit))

	sell := ComputeBracket(types.DirectionSell, ref, point, 10)
	suite.True(buy.StopLoss.Equal(sell.TakeProfit))
	suite.True(buy.TakeProfit.Equal(sell.StopLoss))
}

func (suite *SubmitterTestSuite) TestStatusMessage() {
	suite.Equal("Trade failed: [501] venue handshake failed",
		StatusMessage(types.OrderResult{}, signalerrors.New(signalerrors.ErrCodeGatewayUnavailable, "venue handshake failed")))
}
