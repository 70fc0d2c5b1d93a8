package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

type OrderFilling string

type OrderExpiration string

const (
	// OrderFillingIOC fills what is available within the deviation and cancels the rest.
	OrderFillingIOC OrderFilling = "IOC"
	// OrderExpirationGTC keeps the order until it is cancelled.
	OrderExpirationGTC OrderExpiration = "GTC"
)

const (
	DefaultOrderTag   = "AI-generated trade"
	DefaultOrderMagic = 234000
)

// OrderRequest is a bracketed market order ready for submission.
// It is built once per trade action and passed by value.
type OrderRequest struct {
	ID        string          `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol    string          `yaml:"symbol" json:"symbol" validate:"required"`
	Direction Direction       `yaml:"direction" json:"direction" validate:"required,oneof=buy sell"`
	Volume    decimal.Decimal `yaml:"volume" json:"volume"`
	// ReferencePrice is the venue ask at request time.
	ReferencePrice decimal.Decimal `yaml:"reference_price" json:"reference_price"`
	StopLoss       decimal.Decimal `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit     decimal.Decimal `yaml:"take_profit" json:"take_profit"`
	// PointSize is the instrument increment the bracket and deviation are measured in.
	PointSize decimal.Decimal `yaml:"point_size" json:"point_size"`
	// Deviation is the maximum accepted slippage in points.
	Deviation  int             `yaml:"deviation" json:"deviation" validate:"gte=0"`
	Magic      int64           `yaml:"magic" json:"magic" validate:"gte=0"`
	Tag        string          `yaml:"tag" json:"tag" validate:"max=31"`
	Filling    OrderFilling    `yaml:"filling" json:"filling" validate:"required,oneof=IOC"`
	Expiration OrderExpiration `yaml:"expiration" json:"expiration" validate:"required,oneof=GTC"`
	CreatedAt  time.Time       `yaml:"created_at" json:"created_at" validate:"required"`
}

// OrderRequestParams holds everything needed to build an OrderRequest.
type OrderRequestParams struct {
	Symbol         string
	Direction      Direction
	Volume         decimal.Decimal
	ReferencePrice decimal.Decimal
	StopLoss       decimal.Decimal
	TakeProfit     decimal.Decimal
	PointSize      decimal.Decimal
	Deviation      int
	Magic          int64
	Tag            string
}

// NewOrderRequest assigns an ID and timestamp and validates the result.
func NewOrderRequest(params OrderRequestParams, now time.Time) (OrderRequest, error) {
	req := OrderRequest{
		ID:             uuid.New().String(),
		Symbol:         params.Symbol,
		Direction:      params.Direction,
		Volume:         params.Volume,
		ReferencePrice: params.ReferencePrice,
		StopLoss:       params.StopLoss,
		TakeProfit:     params.TakeProfit,
		PointSize:      params.PointSize,
		Deviation:      params.Deviation,
		Magic:          params.Magic,
		Tag:            params.Tag,
		Filling:        OrderFillingIOC,
		Expiration:     OrderExpirationGTC,
		CreatedAt:      now.UTC(),
	}

	if err := req.Validate(); err != nil {
		return OrderRequest{}, err
	}

	return req, nil
}

// Validate validates the OrderRequest struct and its price geometry.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderRequest, "invalid order request", err)
	}

	if !r.Volume.IsPositive() {
		return errors.New(errors.ErrCodeInvalidOrderRequest, "order volume must be greater than zero")
	}

	if !r.ReferencePrice.IsPositive() {
		return errors.New(errors.ErrCodeInvalidOrderRequest, "reference price must be greater than zero")
	}

	if !r.PointSize.IsPositive() {
		return errors.New(errors.ErrCodeInvalidOrderRequest, "point size must be greater than zero")
	}

	switch r.Direction {
	case DirectionBuy:
		if !r.StopLoss.LessThan(r.ReferencePrice) || !r.TakeProfit.GreaterThan(r.ReferencePrice) {
			return errors.New(errors.ErrCodeInvalidOrderRequest, "buy order needs stop loss below and take profit above the entry")
		}
	case DirectionSell:
		if !r.StopLoss.GreaterThan(r.ReferencePrice) || !r.TakeProfit.LessThan(r.ReferencePrice) {
			return errors.New(errors.ErrCodeInvalidOrderRequest, "sell order needs stop loss above and take profit below the entry")
		}
	}

	return nil
}

// VenueReply is the raw answer of a venue to a submitted order.
type VenueReply struct {
	Code          string
	Message       string
	OrderID       string
	ExecutedPrice decimal.Decimal
}

// OrderOutcome is either OrderResult or OrderRejected.
type OrderOutcome interface {
	isOrderOutcome()
}

// OrderResult is a successfully executed order.
type OrderResult struct {
	RequestID     string          `json:"request_id"`
	OrderID       string          `json:"order_id"`
	Symbol        string          `json:"symbol"`
	Direction     Direction       `json:"direction"`
	Volume        decimal.Decimal `json:"volume"`
	ExecutedPrice decimal.Decimal `json:"executed_price"`
	StopLoss      decimal.Decimal `json:"stop_loss"`
	TakeProfit    decimal.Decimal `json:"take_profit"`
	Code          string          `json:"code"`
}

// OrderRejected is an order the venue processed and declined.
type OrderRejected struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (OrderResult) isOrderOutcome()   {}
func (OrderRejected) isOrderOutcome() {}

// Message renders the status line shown to the user.
func (r OrderResult) Message() string {
	return fmt.Sprintf("Trade executed: %s at %s", r.Direction, r.ExecutedPrice.String())
}

// DecideOutcome classifies a venue reply once. doneCode is the venue's success status.
func DecideOutcome(req OrderRequest, reply VenueReply, doneCode string) OrderOutcome {
	if reply.Code != doneCode {
		return OrderRejected{Code: reply.Code, Message: reply.Message}
	}

	return OrderResult{
		RequestID:     req.ID,
		OrderID:       reply.OrderID,
		Symbol:        req.Symbol,
		Direction:     req.Direction,
		Volume:        req.Volume,
		ExecutedPrice: reply.ExecutedPrice,
		StopLoss:      req.StopLoss,
		TakeProfit:    req.TakeProfit,
		Code:          reply.Code,
	}
}
