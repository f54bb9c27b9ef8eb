package event

import (
	"book_mirror/internal/domain"

	"github.com/shopspring/decimal"
)

// Type is the feed's frame type tag.
type Type string

const (
	TypeOrderAdded   Type = "order_added"
	TypeOrderMatched Type = "order_matched"
)

// Event is the closed union of normalized feed events. Everything past
// the normalizer operates on this union only, never on raw frame fields.
type Event interface {
	EventType() Type
	EventSymbol() string
}

// OrderAdded is resting liquidity arriving at (or leaving, for Delta <= 0)
// a price level. Delta is the quantity contribution to the level.
type OrderAdded struct {
	Symbol string
	Side   domain.Side
	Price  decimal.Decimal
	Delta  decimal.Decimal
}

func (OrderAdded) EventType() Type       { return TypeOrderAdded }
func (e OrderAdded) EventSymbol() string { return e.Symbol }

// OrderMatched is a fill consuming quantity from a resting level.
type OrderMatched struct {
	Symbol string
	Side   domain.Side
	Price  decimal.Decimal
	Qty    decimal.Decimal
}

func (OrderMatched) EventType() Type       { return TypeOrderMatched }
func (e OrderMatched) EventSymbol() string { return e.Symbol }
