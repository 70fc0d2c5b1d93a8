package trading

import (
	"context"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/trading/gateway"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// State is a step of a single submission.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateQuoteLookup State = "quote_lookup"
	StateSubmitting  State = "submitting"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// SubmitterConfig bounds what the submitter accepts and fixes the order metadata.
type SubmitterConfig struct {
	// Instruments is the symbol allow-list.
	Instruments        []string        `validate:"required,min=1,dive,required"`
	MinVolume          decimal.Decimal `validate:"-"`
	MaxVolume          decimal.Decimal `validate:"-"`
	StopDistancePoints int             `validate:"gt=0"`
	Deviation          int             `validate:"gte=0"`
	Magic              int64           `validate:"gte=0"`
	Tag                string          `validate:"max=31"`
}

// Submitter implements OrderSubmitter against one venue gateway.
// It holds no per-submission state and is safe for concurrent use.
type Submitter struct {
	gateway gateway.Gateway
	config  SubmitterConfig
	log     *logger.Logger
	now     func() time.Time
}

// NewSubmitter validates the config and returns a submitter bound to the gateway.
func NewSubmitter(gw gateway.Gateway, config SubmitterConfig, log *logger.Logger) (*Submitter, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid submitter config", err)
	}

	if !config.MinVolume.IsPositive() || config.MaxVolume.LessThan(config.MinVolume) {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"invalid volume bounds [%s, %s]", config.MinVolume, config.MaxVolume)
	}

	return &Submitter{
		gateway: gw,
		config:  config,
		log:     log.Named("submitter"),
		now:     time.Now,
	}, nil
}

// Instruments returns the symbol allow-list.
func (s *Submitter) Instruments() []string {
	return slices.Clone(s.config.Instruments)
}

// Submit implements OrderSubmitter.
//
// Local validation runs before any venue call. The session opened by the handshake
// is closed before Submit returns. The order is sent at most once.
func (s *Submitter) Submit(ctx context.Context, params SubmitParams) (result types.OrderResult, err error) {
	log := s.log.With(
		zap.String("venue", s.gateway.Name()),
		zap.String("symbol", params.Symbol),
		zap.String("action", params.Action),
		zap.String("volume", params.Volume.String()),
	)

	state := StateIdle
	transition := func(next State) {
		log.Debug("Submission state changed", zap.String("from", string(state)), zap.String("to", string(next)))
		state = next
	}

	defer func() {
		s.record(params, err)

		if err != nil {
			transition(StateFailed)
			log.Warn("Trade failed", zap.Error(err))

			return
		}

		transition(StateSucceeded)
		log.Info(result.Message(),
			zap.String("order_id", result.OrderID),
			zap.String("price", result.ExecutedPrice.String()))
	}()

	transition(StateValidating)

	direction, err := s.validate(params)
	if err != nil {
		return types.OrderResult{}, err
	}

	session, err := s.gateway.Connect(ctx)
	if err != nil {
		return types.OrderResult{}, errors.Wrap(errors.ErrCodeGatewayUnavailable, "venue handshake failed", err)
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("Failed to close venue session", zap.Error(closeErr))
		}
	}()

	transition(StateQuoteLookup)

	ask, err := session.AskPrice(ctx, params.Symbol)
	if err != nil {
		return types.OrderResult{}, errors.Wrapf(errors.ErrCodeQuoteUnavailable, err, "failed to look up ask for %s", params.Symbol)
	}

	reference, err := ask.Take()
	if err != nil {
		return types.OrderResult{}, errors.Newf(errors.ErrCodeQuoteUnavailable, "no ask price for %s", params.Symbol)
	}

	metadata, err := session.InstrumentMetadata(ctx, params.Symbol)
	if err != nil {
		return types.OrderResult{}, errors.Wrapf(errors.ErrCodeQuoteUnavailable, err, "failed to look up instrument %s", params.Symbol)
	}

	instrument, err := metadata.Take()
	if err != nil {
		return types.OrderResult{}, errors.Newf(errors.ErrCodeQuoteUnavailable, "no instrument metadata for %s", params.Symbol)
	}

	bracket := ComputeBracket(direction, reference, instrument.PointSize, s.config.StopDistancePoints)

	req, err := types.NewOrderRequest(types.OrderRequestParams{
		Symbol:         params.Symbol,
		Direction:      direction,
		Volume:         params.Volume,
		ReferencePrice: reference,
		StopLoss:       bracket.StopLoss,
		TakeProfit:     bracket.TakeProfit,
		PointSize:      instrument.PointSize,
		Deviation:      s.config.Deviation,
		Magic:          s.config.Magic,
		Tag:            s.config.Tag,
	}, s.now())
	if err != nil {
		return types.OrderResult{}, err
	}

	transition(StateSubmitting)
	log.Info("Submitting order",
		zap.String("request_id", req.ID),
		zap.String("reference_price", req.ReferencePrice.String()),
		zap.String("stop_loss", req.StopLoss.String()),
		zap.String("take_profit", req.TakeProfit.String()))

	reply, err := session.SubmitOrder(ctx, req)
	if err != nil {
		return types.OrderResult{}, err
	}

	switch outcome := types.DecideOutcome(req, reply, session.DoneCode()).(type) {
	case types.OrderResult:
		return outcome, nil
	case types.OrderRejected:
		return types.OrderResult{}, errors.Wrap(errors.ErrCodeVenueRejected, "Trade failed",
			errors.NewVenueRejectedError(outcome.Code, outcome.Message))
	default:
		return types.OrderResult{}, errors.Newf(errors.ErrCodeUnknown, "unexpected order outcome %T", outcome)
	}
}

// validate checks the action against local rules only.
func (s *Submitter) validate(params SubmitParams) (types.Direction, error) {
	direction, err := types.ParseDirection(params.Action)
	if err != nil {
		return "", err
	}

	if !slices.Contains(s.config.Instruments, params.Symbol) {
		return "", errors.Newf(errors.ErrCodeUnsupportedSymbol,
			"unsupported symbol %q: must be one of %v", params.Symbol, s.config.Instruments)
	}

	if params.Volume.LessThan(s.config.MinVolume) || params.Volume.GreaterThan(s.config.MaxVolume) {
		return "", errors.Newf(errors.ErrCodeInvalidVolume,
			"volume %s outside [%s, %s]", params.Volume, s.config.MinVolume, s.config.MaxVolume)
	}

	return direction, nil
}

func (s *Submitter) record(params SubmitParams, err error) {
	symbol, direction := params.Symbol, params.Action

	if errors.HasCode(err, errors.ErrCodeInvalidAction) || errors.HasCode(err, errors.ErrCodeUnsupportedSymbol) {
		symbol, direction = "invalid", "invalid"
	}

	metrics.OrdersTotal.WithLabelValues(symbol, direction, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeFilled
	case errors.HasCode(err, errors.ErrCodeVenueRejected):
		return metrics.OutcomeRejected
	case errors.HasCode(err, errors.ErrCodeGatewayUnavailable):
		return metrics.OutcomeGatewayUnavailable
	case errors.HasCode(err, errors.ErrCodeQuoteUnavailable):
		return metrics.OutcomeQuoteUnavailable
	case errors.HasCode(err, errors.ErrCodeInvalidAction),
		errors.HasCode(err, errors.ErrCodeUnsupportedSymbol),
		errors.HasCode(err, errors.ErrCodeInvalidVolume):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// StatusMessage renders a submission result as the one-line status shown to the user.
func StatusMessage(result types.OrderResult, err error) string {
	if err == nil {
		return result.Message()
	}

	if rejected, ok := errors.AsVenueRejected(err); ok {
		return "Trade failed: " + rejected.Message
	}

	return "Trade failed: " + err.Error()
}
