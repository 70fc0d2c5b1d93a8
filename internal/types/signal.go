package types

import (
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Direction is the side of a trade action.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ParseDirection accepts exactly "buy" or "sell". Anything else, including
// different casing or surrounding whitespace, is an invalid action.
func ParseDirection(action string) (Direction, error) {
	switch Direction(action) {
	case DirectionBuy, DirectionSell:
		return Direction(action), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidAction, "invalid action %q: must be one of buy, sell", action)
	}
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return string(d)
}

// SignalRecord is one row of an uploaded signal feed.
type SignalRecord struct {
	// Timestamp is the signal time normalized to UTC.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	// Direction is the token from the signal column exactly as uploaded.
	// It is not restricted to buy/sell.
	Direction string `yaml:"signal" json:"signal" csv:"signal"`
}

// SignalFeed is an ordered sequence of signal records in upload row order.
type SignalFeed []SignalRecord

// Len returns the number of records in the feed.
func (f SignalFeed) Len() int {
	return len(f)
}
