package book

import (
	"sort"

	"book_mirror/internal/domain"

	"github.com/shopspring/decimal"
)

// OrderBook holds both sides of one symbol's book. Bids are strictly
// descending by price, asks strictly ascending; no two levels on a side
// sit within Eps of each other.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// side returns a pointer to the requested side's slice.
func (b *OrderBook) side(s domain.Side) *[]PriceLevel {
	if s == domain.SideBid {
		return &b.Bids
	}
	return &b.Asks
}

// insertSorted places lv at its sorted position. desc is true for bids.
func insertSorted(levels []PriceLevel, lv PriceLevel, desc bool) []PriceLevel {
	i := sort.Search(len(levels), func(i int) bool {
		if desc {
			return levels[i].Price.LessThan(lv.Price)
		}
		return levels[i].Price.GreaterThan(lv.Price)
	})
	levels = append(levels, PriceLevel{})
	copy(levels[i+1:], levels[i:])
	levels[i] = lv
	return levels
}

func removeAt(levels []PriceLevel, i int) []PriceLevel {
	return append(levels[:i], levels[i+1:]...)
}

// upsert adds delta to the level matching price, inserting a new level
// when none matches and delta is positive. A resulting quantity at or
// below zero removes the level instead.
func (b *OrderBook) upsert(s domain.Side, price, delta decimal.Decimal) {
	levels := b.side(s)
	if i := findLevel(*levels, price); i >= 0 {
		q := (*levels)[i].Qty.Add(delta)
		if q.IsPositive() {
			(*levels)[i].Qty = q
		} else {
			*levels = removeAt(*levels, i)
		}
		return
	}
	if delta.IsPositive() {
		*levels = insertSorted(*levels, PriceLevel{Price: price, Qty: delta}, s == domain.SideBid)
	}
}

// remove drops the level matching price if present. Idempotent.
func (b *OrderBook) remove(s domain.Side, price decimal.Decimal) {
	levels := b.side(s)
	if i := findLevel(*levels, price); i >= 0 {
		*levels = removeAt(*levels, i)
	}
}

// reduce subtracts matched quantity from the level matching price. An
// absent level is a silent no-op: the match was stale or the side already
// drained. A remainder at or below Eps removes the level.
func (b *OrderBook) reduce(s domain.Side, price, matched decimal.Decimal) {
	levels := b.side(s)
	i := findLevel(*levels, price)
	if i < 0 {
		return
	}
	rem := (*levels)[i].Qty.Sub(matched)
	if rem.GreaterThan(Eps) {
		(*levels)[i].Qty = rem
	} else {
		*levels = removeAt(*levels, i)
	}
}

// clone returns a deep copy safe to hand to readers.
func (b *OrderBook) clone() OrderBook {
	out := OrderBook{
		Bids: make([]PriceLevel, len(b.Bids)),
		Asks: make([]PriceLevel, len(b.Asks)),
	}
	copy(out.Bids, b.Bids)
	copy(out.Asks, b.Asks)
	return out
}
