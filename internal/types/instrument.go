package types

import "github.com/shopspring/decimal"

// Instrument is the venue metadata needed to price a bracketed order.
type Instrument struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	// PointSize is the minimum price increment of the instrument.
	PointSize decimal.Decimal `yaml:"point_size" json:"point_size"`
	// Digits is the number of decimals quoted by the venue.
	Digits int32 `yaml:"digits" json:"digits"`
}
