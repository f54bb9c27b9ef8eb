package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"book_mirror/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrMalformed marks a frame that did not decode. The frame is dropped
	// without terminating the session.
	ErrMalformed = errors.New("malformed frame")

	// ErrIgnored marks a frame that decoded but cannot be applied: unknown
	// type, missing symbol or price, or a side that cannot be resolved
	// against present book state. Dropping these is policy, not failure.
	ErrIgnored = errors.New("frame ignored")
)

// SideResolver answers whether a level exists at a price, against the
// book state as of the previously applied event.
type SideResolver interface {
	HasLevel(symbol string, side domain.Side, price decimal.Decimal) bool
}

// frame is the raw wire shape. Payload fields are loosely typed on
// purpose: the feed encodes numbers inconsistently and omits fields per
// event type, so coercion happens here and nowhere else.
type frame struct {
	Type    Type    `json:"type"`
	Payload payload `json:"payload"`
}

type payload struct {
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Price     any    `json:"price"`
	Remaining any    `json:"remaining"`
	Quantity  any    `json:"quantity"`
}

// Normalizer converts raw feed frames into the typed Event union,
// inferring the side of match events from book state when the feed
// omits it.
type Normalizer struct {
	books SideResolver
}

func NewNormalizer(books SideResolver) *Normalizer {
	return &Normalizer{books: books}
}

// Normalize parses one frame. It returns the typed event, or an error
// wrapping ErrMalformed (undecodable) or ErrIgnored (decoded but not
// applicable). Callers drop on error either way; the split only feeds
// diagnostics.
func (n *Normalizer) Normalize(raw []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch f.Type {
	case TypeOrderAdded, TypeOrderMatched:
	default:
		return nil, fmt.Errorf("%w: type %q", ErrIgnored, f.Type)
	}

	p := f.Payload
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: missing symbol", ErrIgnored)
	}
	price, ok := toDecimal(p.Price)
	if !ok {
		return nil, fmt.Errorf("%w: missing price", ErrIgnored)
	}

	side := domain.ParseSide(p.Side)

	if f.Type == TypeOrderAdded {
		// Additions carry an explicit side on this feed. One without a
		// side cannot be classified and is dropped rather than guessed.
		if side == domain.SideUnknown {
			return nil, fmt.Errorf("%w: order_added without side", ErrIgnored)
		}
		// "remaining" is the semantically right field for additions;
		// "quantity" is the fallback. Zero means cancel-to-zero.
		delta := firstDecimal(p.Remaining, p.Quantity)
		return OrderAdded{Symbol: p.Symbol, Side: side, Price: price, Delta: delta}, nil
	}

	// order_matched: the trade payload carries no side, so classify the
	// price against resting levels: bids first, then asks. No resting
	// level on either side means the event is stale and is dropped.
	if side == domain.SideUnknown {
		switch {
		case n.books.HasLevel(p.Symbol, domain.SideBid, price):
			side = domain.SideBid
		case n.books.HasLevel(p.Symbol, domain.SideAsk, price):
			side = domain.SideAsk
		default:
			return nil, fmt.Errorf("%w: no resting level at %s for %s", ErrIgnored, price, p.Symbol)
		}
	}

	qty := firstDecimal(p.Quantity, p.Remaining)
	return OrderMatched{Symbol: p.Symbol, Side: side, Price: price, Qty: qty}, nil
}

// firstDecimal resolves the first coercible value, defaulting to zero
// when neither field is present or numeric.
func firstDecimal(vals ...any) decimal.Decimal {
	for _, v := range vals {
		if d, ok := toDecimal(v); ok {
			return d
		}
	}
	return decimal.Zero
}

// toDecimal coerces the loosely typed payload values the feed produces:
// JSON numbers, numeric strings, nothing else.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
