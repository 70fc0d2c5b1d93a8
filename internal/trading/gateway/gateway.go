// Package gateway defines the execution venue contract used by the order
// submitter and its bindings: a terminal bridge, Binance and a paper venue.
package gateway

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Gateway opens sessions against an execution venue.
type Gateway interface {
	// Connect performs the venue handshake. The returned session must be closed by the caller.
	Connect(ctx context.Context) (Session, error)
	// Name identifies the venue in logs and metrics.
	Name() string
}

// Session is a live, handshaken venue handle scoped to one submission.
type Session interface {
	// AskPrice returns the current ask, or None when the venue has no tick for the symbol.
	AskPrice(ctx context.Context, symbol string) (optional.Option[decimal.Decimal], error)
	// InstrumentMetadata returns the point size of the symbol, or None when unknown to the venue.
	InstrumentMetadata(ctx context.Context, symbol string) (optional.Option[types.Instrument], error)
	// SubmitOrder sends the request once and returns the venue reply.
	// A declined order is a reply, not an error; errors mean the round trip failed.
	SubmitOrder(ctx context.Context, req types.OrderRequest) (types.VenueReply, error)
	// DoneCode is the reply code meaning the order was executed.
	DoneCode() string
	// Close releases the session.
	Close() error
}
