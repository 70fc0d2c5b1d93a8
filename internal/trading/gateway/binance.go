package gateway

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// BinanceDoneCode is the order status of a fully executed entry.
const BinanceDoneCode = string(binance.OrderStatusTypeFilled)

// REST endpoints selected per gateway.
const (
	BinanceLiveURL    = "https://api.binance.com"
	BinanceTestnetURL = "https://testnet.binance.vision"
)

// BinanceConfig contains configuration for Binance trading.
type BinanceConfig struct {
	ApiKey    string `json:"apiKey" yaml:"api_key" mapstructure:"api_key" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `json:"secretKey" yaml:"secret_key" mapstructure:"secret_key" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// BaseURL overrides the REST endpoint. Used by tests.
	BaseURL string `json:"baseUrl,omitempty" yaml:"base_url" mapstructure:"base_url" jsonschema:"title=Base URL,description=Optional REST endpoint override"`
}

// Service interfaces for mocking the Binance API

// PingService interface for the connectivity check.
type PingService interface {
	Do(ctx context.Context) error
}

// BookTickerService interface for best bid/ask lookups.
type BookTickerService interface {
	Symbol(symbol string) BookTickerService
	Do(ctx context.Context) ([]*binance.BookTicker, error)
}

// ExchangeInfoService interface for symbol filters.
type ExchangeInfoService interface {
	Symbol(symbol string) ExchangeInfoService
	Do(ctx context.Context) (*binance.ExchangeInfo, error)
}

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// CreateOCOService interface for the exit bracket.
type CreateOCOService interface {
	Symbol(symbol string) CreateOCOService
	Side(side binance.SideType) CreateOCOService
	Quantity(quantity string) CreateOCOService
	Price(price string) CreateOCOService
	StopPrice(price string) CreateOCOService
	StopLimitPrice(price string) CreateOCOService
	StopLimitTimeInForce(tif binance.TimeInForceType) CreateOCOService
	ListClientOrderID(id string) CreateOCOService
	Do(ctx context.Context) (*binance.CreateOCOResponse, error)
}

// BinanceClient interface abstracts the Binance client for testing.
type BinanceClient interface {
	NewPingService() PingService
	NewBookTickerService() BookTickerService
	NewExchangeInfoService() ExchangeInfoService
	NewCreateOrderService() CreateOrderService
	NewCreateOCOService() CreateOCOService
}

// realBinanceClient wraps the actual binance.Client.
type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewPingService() PingService {
	return &realPingService{service: r.client.NewPingService()}
}

func (r *realBinanceClient) NewBookTickerService() BookTickerService {
	return &realBookTickerService{service: r.client.NewListBookTickersService()}
}

func (r *realBinanceClient) NewExchangeInfoService() ExchangeInfoService {
	return &realExchangeInfoService{service: r.client.NewExchangeInfoService()}
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewCreateOCOService() CreateOCOService {
	return &realCreateOCOService{service: r.client.NewCreateOCOService()}
}

// Real service wrappers

type realPingService struct {
	service *binance.PingService
}

func (s *realPingService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realBookTickerService struct {
	service *binance.ListBookTickersService
}

func (s *realBookTickerService) Symbol(symbol string) BookTickerService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realBookTickerService) Do(ctx context.Context) ([]*binance.BookTicker, error) {
	return s.service.Do(ctx)
}

type realExchangeInfoService struct {
	service *binance.ExchangeInfoService
}

func (s *realExchangeInfoService) Symbol(symbol string) ExchangeInfoService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realExchangeInfoService) Do(ctx context.Context) (*binance.ExchangeInfo, error) {
	return s.service.Do(ctx)
}

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realCreateOCOService struct {
	service *binance.CreateOCOService
}

func (s *realCreateOCOService) Symbol(symbol string) CreateOCOService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOCOService) Side(side binance.SideType) CreateOCOService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOCOService) Quantity(quantity string) CreateOCOService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOCOService) Price(price string) CreateOCOService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOCOService) StopPrice(price string) CreateOCOService {
	s.service = s.service.StopPrice(price)

	return s
}

func (s *realCreateOCOService) StopLimitPrice(price string) CreateOCOService {
	s.service = s.service.StopLimitPrice(price)

	return s
}

func (s *realCreateOCOService) StopLimitTimeInForce(tif binance.TimeInForceType) CreateOCOService {
	s.service = s.service.StopLimitTimeInForce(tif)

	return s
}

func (s *realCreateOCOService) ListClientOrderID(id string) CreateOCOService {
	s.service = s.service.ListClientOrderID(id)

	return s
}

func (s *realCreateOCOService) Do(ctx context.Context) (*binance.CreateOCOResponse, error) {
	return s.service.Do(ctx)
}

// BinanceGateway submits bracketed orders to Binance spot.
// The entry is a LIMIT IOC order capped by the deviation; the exits are one OCO order.
type BinanceGateway struct {
	client BinanceClient
	log    *logger.Logger
}

// NewBinanceGateway creates a new Binance gateway.
// If useTestnet is true, connects to Binance Testnet (https://testnet.binance.vision/).
// If config.BaseURL is set, it takes precedence over useTestnet.
func NewBinanceGateway(config BinanceConfig, useTestnet bool, log *logger.Logger) (*BinanceGateway, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)

	// per client; binance.UseTestnet would switch every client in the process
	switch {
	case config.BaseURL != "":
		client.BaseURL = config.BaseURL
	case useTestnet:
		client.BaseURL = BinanceTestnetURL
	default:
		client.BaseURL = BinanceLiveURL
	}

	return newBinanceGatewayWithClient(&realBinanceClient{client: client}, log), nil
}

// newBinanceGatewayWithClient creates a gateway with a custom client.
// This is used for testing with mock clients.
func newBinanceGatewayWithClient(client BinanceClient, log *logger.Logger) *BinanceGateway {
	return &BinanceGateway{
		client: client,
		log:    log.Named("binance"),
	}
}

// Name implements Gateway.
func (g *BinanceGateway) Name() string {
	return "binance"
}

// Connect pings the REST API. Binance sessions hold no connection so Close is a no-op.
func (g *BinanceGateway) Connect(ctx context.Context) (Session, error) {
	if err := g.client.NewPingService().Do(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeGatewayUnavailable, "failed to reach Binance", err)
	}

	return &binanceSession{client: g.client, log: g.log}, nil
}

type binanceSession struct {
	client BinanceClient
	log    *logger.Logger
}

// AskPrice implements Session.
func (s *binanceSession) AskPrice(ctx context.Context, symbol string) (optional.Option[decimal.Decimal], error) {
	tickers, err := s.client.NewBookTickerService().Symbol(symbol).Do(ctx)
	if err != nil {
		return optional.None[decimal.Decimal](), errors.Wrapf(errors.ErrCodeVenueProtocol, err, "failed to fetch book ticker for %s", symbol)
	}

	for _, ticker := range tickers {
		if ticker == nil || ticker.Symbol != symbol {
			continue
		}

		ask, err := decimal.NewFromString(ticker.AskPrice)
		if err != nil || !ask.IsPositive() {
			return optional.None[decimal.Decimal](), nil
		}

		return optional.Some(ask), nil
	}

	return optional.None[decimal.Decimal](), nil
}

// InstrumentMetadata implements Session using the PRICE_FILTER tick size.
func (s *binanceSession) InstrumentMetadata(ctx context.Context, symbol string) (optional.Option[types.Instrument], error) {
	info, err := s.client.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		return optional.None[types.Instrument](), errors.Wrapf(errors.ErrCodeVenueProtocol, err, "failed to fetch exchange info for %s", symbol)
	}

	for i := range info.Symbols {
		sym := &info.Symbols[i]
		if sym.Symbol != symbol {
			continue
		}

		filter := sym.PriceFilter()
		if filter == nil {
			return optional.None[types.Instrument](), nil
		}

		tick, err := decimal.NewFromString(filter.TickSize)
		if err != nil || !tick.IsPositive() {
			return optional.None[types.Instrument](), nil
		}

		return optional.Some(types.Instrument{
			Symbol:    symbol,
			PointSize: tick,
			Digits:    -tick.Exponent(),
		}), nil
	}

	return optional.None[types.Instrument](), nil
}

// SubmitOrder implements Session.
func (s *binanceSession) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.VenueReply, error) {
	side, exitSide := binance.SideTypeBuy, binance.SideTypeSell
	slippage := req.PointSize.Mul(decimal.NewFromInt(int64(req.Deviation)))
	limit := req.ReferencePrice.Add(slippage)

	if req.Direction == types.DirectionSell {
		side, exitSide = binance.SideTypeSell, binance.SideTypeBuy
		limit = req.ReferencePrice.Sub(slippage)
	}

	resp, err := s.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeIOC).
		Quantity(req.Volume.String()).
		Price(limit.String()).
		NewClientOrderID(req.ID).
		Do(ctx)
	if err != nil {
		if reply, ok := replyFromAPIError(err); ok {
			return reply, nil
		}

		return types.VenueReply{}, errors.Wrap(errors.ErrCodeOrderFailed, "failed to place order on Binance", err)
	}

	reply := types.VenueReply{
		Code:          string(resp.Status),
		Message:       "order " + string(resp.Status),
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ExecutedPrice: averageFillPrice(resp),
	}

	if resp.Status != binance.OrderStatusTypeFilled {
		return reply, nil
	}

	_, err = s.client.NewCreateOCOService().
		Symbol(req.Symbol).
		Side(exitSide).
		Quantity(resp.ExecutedQuantity).
		Price(req.TakeProfit.String()).
		StopPrice(req.StopLoss.String()).
		StopLimitPrice(req.StopLoss.String()).
		StopLimitTimeInForce(binance.TimeInForceTypeGTC).
		ListClientOrderID(req.ID).
		Do(ctx)
	if err != nil {
		s.log.Error("Entry filled but exit bracket was not placed",
			zap.String("order_id", reply.OrderID),
			zap.String("symbol", req.Symbol),
			zap.Error(err))

		if bracketReply, ok := replyFromAPIError(err); ok {
			return bracketReply, nil
		}

		return types.VenueReply{}, errors.Wrap(errors.ErrCodeOrderFailed, "failed to place exit bracket on Binance", err)
	}

	return reply, nil
}

// DoneCode implements Session.
func (s *binanceSession) DoneCode() string {
	return BinanceDoneCode
}

// Close implements Session.
func (s *binanceSession) Close() error {
	return nil
}

// replyFromAPIError turns a venue-side rejection into a reply carrying the venue's code and message.
func replyFromAPIError(err error) (types.VenueReply, bool) {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return types.VenueReply{}, false
	}

	return types.VenueReply{
		Code:    strconv.FormatInt(apiErr.Code, 10),
		Message: apiErr.Message,
	}, true
}

func averageFillPrice(resp *binance.CreateOrderResponse) decimal.Decimal {
	executed, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil || !executed.IsPositive() {
		return decimal.Zero
	}

	quote, err := decimal.NewFromString(resp.CummulativeQuoteQuantity)
	if err != nil {
		return decimal.Zero
	}

	return quote.Div(executed)
}
