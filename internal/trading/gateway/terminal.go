package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

const (
	// TerminalDoneCode is the terminal retcode for an executed request.
	TerminalDoneCode = "10009"
	// DefaultMinBridgeVersion is the oldest bridge protocol this client speaks.
	DefaultMinBridgeVersion = "1.0.0"
)

// Bridge methods.
const (
	methodInitialize = "initialize"
	methodTick       = "symbol_info_tick"
	methodSymbolInfo = "symbol_info"
	methodOrderSend  = "order_send"
)

// TerminalConfig configures the websocket bridge in front of a broker terminal.
type TerminalConfig struct {
	URL              string `json:"url" yaml:"url" mapstructure:"url" jsonschema:"title=Bridge URL,description=Websocket endpoint of the terminal bridge" validate:"required,url"`
	Login            int64  `json:"login" yaml:"login" mapstructure:"login" jsonschema:"title=Login,description=Trading account number (0 uses the terminal's logged in account)" validate:"gte=0"`
	Password         string `json:"password" yaml:"password" mapstructure:"password" jsonschema:"title=Password,description=Trading account password"`
	Server           string `json:"server" yaml:"server" mapstructure:"server" jsonschema:"title=Server,description=Broker trade server name"`
	MinBridgeVersion string `json:"minBridgeVersion" yaml:"min_bridge_version" mapstructure:"min_bridge_version" jsonschema:"title=Minimum bridge version,description=Oldest bridge version accepted during the handshake"`
}

// wire messages

type terminalRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type terminalResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *terminalError  `json:"error,omitempty"`
}

type terminalError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *terminalError) Error() string {
	return fmt.Sprintf("bridge error %d: %s", e.Code, e.Message)
}

type initializeParams struct {
	Login    int64  `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
	Server   string `json:"server,omitempty"`
}

type initializeResult struct {
	OK       bool   `json:"ok"`
	Version  string `json:"version"`
	Terminal string `json:"terminal"`
	Message  string `json:"message"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type tickPayload struct {
	Bid  decimal.Decimal `json:"bid"`
	Ask  decimal.Decimal `json:"ask"`
	Time int64           `json:"time"`
}

type tickResult struct {
	Tick *tickPayload `json:"tick"`
}

type symbolInfoPayload struct {
	Name   string          `json:"name"`
	Point  decimal.Decimal `json:"point"`
	Digits int32           `json:"digits"`
}

type symbolInfoResult struct {
	Info *symbolInfoPayload `json:"info"`
}

type orderSendParams struct {
	Action      string          `json:"action"`
	Symbol      string          `json:"symbol"`
	Volume      decimal.Decimal `json:"volume"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	SL          decimal.Decimal `json:"sl"`
	TP          decimal.Decimal `json:"tp"`
	Deviation   int             `json:"deviation"`
	Magic       int64           `json:"magic"`
	Comment     string          `json:"comment"`
	TypeFilling string          `json:"type_filling"`
	TypeTime    string          `json:"type_time"`
	ClientID    string          `json:"client_id"`
}

type orderSendResult struct {
	Retcode int             `json:"retcode"`
	Comment string          `json:"comment"`
	Order   int64           `json:"order"`
	Price   decimal.Decimal `json:"price"`
}

// TerminalGateway talks to a broker terminal through a local websocket bridge.
type TerminalGateway struct {
	config TerminalConfig
	dialer *websocket.Dialer
	log    *logger.Logger
}

// NewTerminalGateway validates the config and returns a gateway. No connection is made until Connect.
func NewTerminalGateway(config TerminalConfig, log *logger.Logger) (*TerminalGateway, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	if config.MinBridgeVersion == "" {
		config.MinBridgeVersion = DefaultMinBridgeVersion
	}

	return &TerminalGateway{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: 45 * time.Second,
		},
		log: log.Named("terminal"),
	}, nil
}

// Name implements Gateway.
func (g *TerminalGateway) Name() string {
	return string(ProviderTerminal)
}

// Connect dials the bridge and runs the terminal initialize handshake.
func (g *TerminalGateway) Connect(ctx context.Context) (Session, error) {
	conn, _, err := g.dialer.DialContext(ctx, g.config.URL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGatewayUnavailable, "failed to reach terminal bridge", err)
	}

	session := &terminalSession{
		conn: conn,
		log:  g.log,
	}

	var result initializeResult

	err = session.call(ctx, methodInitialize, initializeParams{
		Login:    g.config.Login,
		Password: g.config.Password,
		Server:   g.config.Server,
	}, &result)
	if err != nil {
		_ = conn.Close()

		return nil, errors.Wrap(errors.ErrCodeGatewayUnavailable, "terminal initialization failed", err)
	}

	if !result.OK {
		_ = conn.Close()

		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, "terminal initialization failed: %s", result.Message)
	}

	if err := version.CheckBridgeCompatibility(g.config.MinBridgeVersion, result.Version); err != nil {
		_ = conn.Close()

		return nil, errors.Wrap(errors.ErrCodeGatewayUnavailable, "incompatible terminal bridge", err)
	}

	g.log.Debug("Terminal session opened",
		zap.String("terminal", result.Terminal),
		zap.String("bridge_version", result.Version))

	return session, nil
}

type terminalSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *logger.Logger
}

// call writes one request and blocks until the response with the same id arrives.
func (s *terminalSession) call(ctx context.Context, method string, params any, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, _ := ctx.Deadline()
	_ = s.conn.SetWriteDeadline(deadline)
	_ = s.conn.SetReadDeadline(deadline)

	// unblock the read if the caller gives up
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	id := uuid.New().String()
	if err := s.conn.WriteJSON(terminalRequest{ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("write %s: %w", method, err)
	}

	for {
		var resp terminalResponse
		if err := s.conn.ReadJSON(&resp); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("read %s: %w", method, err)
		}

		if resp.ID != id {
			s.log.Debug("Ignoring bridge message for another request", zap.String("id", resp.ID))

			continue
		}

		if resp.Error != nil {
			return resp.Error
		}

		if out == nil || len(resp.Result) == 0 {
			return nil
		}

		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}

		return nil
	}
}

// AskPrice implements Session.
func (s *terminalSession) AskPrice(ctx context.Context, symbol string) (optional.Option[decimal.Decimal], error) {
	var result tickResult
	if err := s.call(ctx, methodTick, symbolParams{Symbol: symbol}, &result); err != nil {
		return optional.None[decimal.Decimal](), errors.Wrapf(errors.ErrCodeVenueProtocol, err, "failed to fetch tick for %s", symbol)
	}

	if result.Tick == nil || !result.Tick.Ask.IsPositive() {
		return optional.None[decimal.Decimal](), nil
	}

	return optional.Some(result.Tick.Ask), nil
}

// InstrumentMetadata implements Session.
func (s *terminalSession) InstrumentMetadata(ctx context.Context, symbol string) (optional.Option[types.Instrument], error) {
	var result symbolInfoResult
	if err := s.call(ctx, methodSymbolInfo, symbolParams{Symbol: symbol}, &result); err != nil {
		return optional.None[types.Instrument](), errors.Wrapf(errors.ErrCodeVenueProtocol, err, "failed to fetch symbol info for %s", symbol)
	}

	if result.Info == nil || !result.Info.Point.IsPositive() {
		return optional.None[types.Instrument](), nil
	}

	return optional.Some(types.Instrument{
		Symbol:    symbol,
		PointSize: result.Info.Point,
		Digits:    result.Info.Digits,
	}), nil
}

// SubmitOrder implements Session.
func (s *terminalSession) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.VenueReply, error) {
	params := orderSendParams{
		Action:      "deal",
		Symbol:      req.Symbol,
		Volume:      req.Volume,
		Type:        string(req.Direction),
		Price:       req.ReferencePrice,
		SL:          req.StopLoss,
		TP:          req.TakeProfit,
		Deviation:   req.Deviation,
		Magic:       req.Magic,
		Comment:     req.Tag,
		TypeFilling: "ioc",
		TypeTime:    "gtc",
		ClientID:    req.ID,
	}

	var result orderSendResult
	if err := s.call(ctx, methodOrderSend, params, &result); err != nil {
		return types.VenueReply{}, errors.Wrap(errors.ErrCodeOrderFailed, "order_send round trip failed", err)
	}

	reply := types.VenueReply{
		Code:          strconv.Itoa(result.Retcode),
		Message:       result.Comment,
		OrderID:       "",
		ExecutedPrice: result.Price,
	}

	if result.Order != 0 {
		reply.OrderID = strconv.FormatInt(result.Order, 10)
	}

	// some bridges report price 0 for instant deals
	if !reply.ExecutedPrice.IsPositive() {
		reply.ExecutedPrice = req.ReferencePrice
	}

	return reply, nil
}

// DoneCode implements Session.
func (s *terminalSession) DoneCode() string {
	return TerminalDoneCode
}

// Close sends a normal closure frame and closes the connection.
func (s *terminalSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	return s.conn.Close()
}
