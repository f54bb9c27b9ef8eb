package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Order is an outbound new-order request. The mirror never tracks order
// lifecycle; submission is fire-and-forget beyond surfacing the result.
type Order struct {
	Symbol   string
	Side     Side
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Validate rejects orders the upstream would refuse, before any I/O.
func (o Order) Validate() error {
	if o.Symbol == "" {
		return &ValidationError{Field: "symbol", Err: errors.New("must not be empty")}
	}
	if o.Side != SideBid && o.Side != SideAsk {
		return &ValidationError{Field: "side", Err: errors.New(`must be "buy" or "sell"`)}
	}
	if !o.Price.IsPositive() {
		return &ValidationError{Field: "price", Err: errors.New("must be positive")}
	}
	if !o.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Err: errors.New("must be positive")}
	}
	return nil
}
