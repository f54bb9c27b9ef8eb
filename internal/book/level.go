package book

import "github.com/shopspring/decimal"

// Eps is the tolerance under which two prices count as the same level.
// Prices arrive as float-encoded decimals from the feed, so identity has
// to absorb representation noise.
var Eps = decimal.New(1, -8) // 1e-8

// PriceLevel is the aggregated resting quantity at one price on one side.
// Qty is strictly positive for every stored level; a level whose quantity
// falls to Eps or below is removed, never stored.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

// SamePrice reports whether two prices identify the same level, i.e.
// |a-b| < Eps.
func SamePrice(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Eps)
}

// findLevel returns the index of the level matching price within Eps,
// or -1. Books are shallow enough that a linear scan beats keeping a
// parallel index.
func findLevel(levels []PriceLevel, price decimal.Decimal) int {
	for i := range levels {
		if SamePrice(levels[i].Price, price) {
			return i
		}
	}
	return -1
}
