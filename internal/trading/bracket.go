package trading

import (
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Bracket holds the exit prices placed around an entry.
type Bracket struct {
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// ComputeBracket places the stop loss and take profit distancePoints points away from the reference price.
// A buy has its stop below and target above; a sell is mirrored.
func ComputeBracket(direction types.Direction, reference, pointSize decimal.Decimal, distancePoints int) Bracket {
	distance := pointSize.Mul(decimal.NewFromInt(int64(distancePoints)))

	if direction == types.DirectionSell {
		return Bracket{
			StopLoss:   reference.Add(distance),
			TakeProfit: reference.Sub(distance),
		}
	}

	return Bracket{
		StopLoss:   reference.Sub(distance),
		TakeProfit: reference.Add(distance),
	}
}
