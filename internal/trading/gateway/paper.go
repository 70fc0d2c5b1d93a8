package gateway

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

const (
	// PaperDoneCode is the reply code of a simulated fill.
	PaperDoneCode = "DONE"
	// PaperRequoteCode is returned when the ask moved past the deviation since the reference price.
	PaperRequoteCode = "REQUOTE"
	// PaperNoQuoteCode is returned when the quote disappeared between lookup and submission.
	PaperNoQuoteCode = "NO_QUOTE"
)

// Quote source names.
const (
	QuoteSourceStatic  = "static"
	QuoteSourcePolygon = "polygon"
)

// PaperConfig configures the in-process paper venue.
type PaperConfig struct {
	QuoteSource   string `json:"quoteSource" yaml:"quote_source" mapstructure:"quote_source" jsonschema:"title=Quote Source,description=Where asks come from,enum=static,enum=polygon,default=static" validate:"required,oneof=static polygon"`
	PolygonApiKey string `json:"polygonApiKey,omitempty" yaml:"polygon_api_key" mapstructure:"polygon_api_key" jsonschema:"title=Polygon API Key,description=Required when quoteSource is polygon" validate:"required_if=QuoteSource polygon"`
	// Quotes maps symbols to a fixed ask for the static source.
	Quotes map[string]float64 `json:"quotes,omitempty" yaml:"quotes" mapstructure:"quotes" jsonschema:"title=Static Quotes,description=Fixed ask per symbol"`
	// PointSizes maps symbols to their minimum price increment.
	PointSizes map[string]float64 `json:"pointSizes" yaml:"point_sizes" mapstructure:"point_sizes" jsonschema:"title=Point Sizes,description=Minimum price increment per symbol" validate:"required,min=1,dive,gt=0"`
}

// QuoteSource supplies the ask the paper venue fills at.
type QuoteSource interface {
	LastAsk(ctx context.Context, symbol string) (optional.Option[decimal.Decimal], error)
}

// StaticQuoteSource serves fixed asks.
type StaticQuoteSource struct {
	quotes map[string]decimal.Decimal
}

// NewStaticQuoteSource creates a quote source from a symbol to ask table.
func NewStaticQuoteSource(quotes map[string]float64) *StaticQuoteSource {
	table := make(map[string]decimal.Decimal, len(quotes))
	for symbol, ask := range quotes {
		table[symbol] = decimal.NewFromFloat(ask)
	}

	return &StaticQuoteSource{quotes: table}
}

// LastAsk implements QuoteSource.
func (s *StaticQuoteSource) LastAsk(_ context.Context, symbol string) (optional.Option[decimal.Decimal], error) {
	ask, ok := s.quotes[symbol]
	if !ok || !ask.IsPositive() {
		return optional.None[decimal.Decimal](), nil
	}

	return optional.Some(ask), nil
}

// ForexQuoteClient is the part of the polygon REST client used for quotes.
type ForexQuoteClient interface {
	GetLastForexQuote(ctx context.Context, params *models.GetLastForexQuoteParams, options ...models.RequestOption) (*models.GetLastForexQuoteResponse, error)
}

// PolygonQuoteSource reads the last forex quote from polygon.io.
// Symbols are six letter currency pairs such as EURUSD or XAUUSD.
type PolygonQuoteSource struct {
	client ForexQuoteClient
}

// NewPolygonQuoteSource creates a quote source backed by the polygon REST API.
func NewPolygonQuoteSource(apiKey string) *PolygonQuoteSource {
	return NewPolygonQuoteSourceWithClient(polygon.New(apiKey))
}

// NewPolygonQuoteSourceWithClient creates a quote source with a custom client.
func NewPolygonQuoteSourceWithClient(client ForexQuoteClient) *PolygonQuoteSource {
	return &PolygonQuoteSource{client: client}
}

// LastAsk implements QuoteSource.
func (s *PolygonQuoteSource) LastAsk(ctx context.Context, symbol string) (optional.Option[decimal.Decimal], error) {
	from, to, ok := splitCurrencyPair(symbol)
	if !ok {
		return optional.None[decimal.Decimal](), nil
	}

	resp, err := s.client.GetLastForexQuote(ctx, &models.GetLastForexQuoteParams{From: from, To: to})
	if err != nil {
		return optional.None[decimal.Decimal](), errors.Wrapf(errors.ErrCodeVenueProtocol, err, "failed to fetch polygon quote for %s", symbol)
	}

	if resp == nil || resp.Last.Ask <= 0 {
		return optional.None[decimal.Decimal](), nil
	}

	return optional.Some(decimal.NewFromFloat(resp.Last.Ask)), nil
}

func splitCurrencyPair(symbol string) (string, string, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if len(symbol) != 6 {
		return "", "", false
	}

	return symbol[:3], symbol[3:], true
}

// PaperGateway is an in-process venue. It fills market orders at the current ask
// unless the ask has moved more than the deviation away from the reference price.
type PaperGateway struct {
	quotes     QuoteSource
	pointSizes map[string]decimal.Decimal
	log        *logger.Logger

	mu     sync.Mutex
	orders []types.OrderRequest
}

// NewPaperGateway creates a paper venue from its config.
func NewPaperGateway(config PaperConfig, log *logger.Logger) (*PaperGateway, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	var quotes QuoteSource

	switch config.QuoteSource {
	case QuoteSourcePolygon:
		quotes = NewPolygonQuoteSource(config.PolygonApiKey)
	default:
		quotes = NewStaticQuoteSource(config.Quotes)
	}

	return NewPaperGatewayWithQuotes(quotes, config.PointSizes, log), nil
}

// NewPaperGatewayWithQuotes creates a paper venue with a custom quote source.
func NewPaperGatewayWithQuotes(quotes QuoteSource, pointSizes map[string]float64, log *logger.Logger) *PaperGateway {
	points := make(map[string]decimal.Decimal, len(pointSizes))
	for symbol, point := range pointSizes {
		points[symbol] = decimal.NewFromFloat(point)
	}

	return &PaperGateway{
		quotes:     quotes,
		pointSizes: points,
		log:        log.Named("paper"),
	}
}

// Name implements Gateway.
func (g *PaperGateway) Name() string {
	return string(ProviderPaper)
}

// Connect implements Gateway. The paper venue is always reachable.
func (g *PaperGateway) Connect(_ context.Context) (Session, error) {
	return &paperSession{gateway: g}, nil
}

// Orders returns the orders filled so far.
func (g *PaperGateway) Orders() []types.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	orders := make([]types.OrderRequest, len(g.orders))
	copy(orders, g.orders)

	return orders
}

func (g *PaperGateway) record(req types.OrderRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.orders = append(g.orders, req)
}

type paperSession struct {
	gateway *PaperGateway
}

// AskPrice implements Session.
func (s *paperSession) AskPrice(ctx context.Context, symbol string) (optional.Option[decimal.Decimal], error) {
	return s.gateway.quotes.LastAsk(ctx, symbol)
}

// InstrumentMetadata implements Session.
func (s *paperSession) InstrumentMetadata(_ context.Context, symbol string) (optional.Option[types.Instrument], error) {
	point, ok := s.gateway.pointSizes[symbol]
	if !ok || !point.IsPositive() {
		return optional.None[types.Instrument](), nil
	}

	return optional.Some(types.Instrument{
		Symbol:    symbol,
		PointSize: point,
		Digits:    -point.Exponent(),
	}), nil
}

// SubmitOrder implements Session.
func (s *paperSession) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.VenueReply, error) {
	quote, err := s.gateway.quotes.LastAsk(ctx, req.Symbol)
	if err != nil {
		return types.VenueReply{}, errors.Wrap(errors.ErrCodeOrderFailed, "failed to price paper order", err)
	}

	ask, err := quote.Take()
	if err != nil {
		return types.VenueReply{Code: PaperNoQuoteCode, Message: "no quote for " + req.Symbol}, nil
	}

	maxSlippage := req.PointSize.Mul(decimal.NewFromInt(int64(req.Deviation)))
	if ask.Sub(req.ReferencePrice).Abs().GreaterThan(maxSlippage) {
		return types.VenueReply{
			Code:    PaperRequoteCode,
			Message: "price moved to " + ask.String(),
		}, nil
	}

	s.gateway.record(req)

	orderID := uuid.New().String()
	s.gateway.log.Info("Paper order filled",
		zap.String("order_id", orderID),
		zap.String("symbol", req.Symbol),
		zap.String("direction", string(req.Direction)),
		zap.String("price", ask.String()))

	return types.VenueReply{
		Code:          PaperDoneCode,
		Message:       "done",
		OrderID:       orderID,
		ExecutedPrice: ask,
	}, nil
}

// DoneCode implements Session.
func (s *paperSession) DoneCode() string {
	return PaperDoneCode
}

// Close implements Session.
func (s *paperSession) Close() error {
	return nil
}
