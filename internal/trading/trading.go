// Package trading turns a trade action into one bracketed order on an execution venue.
package trading

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// OrderSubmitter submits a single bracketed market order.
type OrderSubmitter interface {
	// Submit validates the action locally, prices it at the venue and submits it once.
	Submit(ctx context.Context, params SubmitParams) (types.OrderResult, error)
}

// SubmitParams is a trade action as requested by the user.
type SubmitParams struct {
	Symbol string          `json:"symbol"`
	Action string          `json:"action"`
	Volume decimal.Decimal `json:"volume"`
}
