package book

import (
	"sort"
	"sync"

	"book_mirror/internal/domain"

	"github.com/shopspring/decimal"
)

// Registry maps symbols to their mirrored books. A single mutation lock
// serializes writes; readers always get either the state before an event
// or the state after it, never a book mid-update. Mutation comes from
// exactly two paths: the reconciler's event loop and snapshot replacement.
type Registry struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

func NewRegistry() *Registry {
	return &Registry{books: make(map[string]*OrderBook)}
}

// bookLocked returns the symbol's book, creating it on first touch.
// Caller must hold the write lock.
func (r *Registry) bookLocked(symbol string) *OrderBook {
	b, ok := r.books[symbol]
	if !ok {
		b = &OrderBook{}
		r.books[symbol] = b
	}
	return b
}

// Upsert applies an addition delta to (symbol, side, price).
func (r *Registry) Upsert(symbol string, side domain.Side, price, delta decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookLocked(symbol).upsert(side, price, delta)
}

// Remove drops the level at (symbol, side, price) if present.
func (r *Registry) Remove(symbol string, side domain.Side, price decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookLocked(symbol).remove(side, price)
}

// Reduce subtracts a matched quantity from (symbol, side, price).
func (r *Registry) Reduce(symbol string, side domain.Side, price, matched decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookLocked(symbol).reduce(side, price, matched)
}

// Replace overwrites one symbol's book with snapshot data. The snapshot
// source is trusted to deliver sorted, deduplicated sides.
func (r *Registry) Replace(symbol string, bids, asks []PriceLevel) {
	b := &OrderBook{
		Bids: make([]PriceLevel, len(bids)),
		Asks: make([]PriceLevel, len(asks)),
	}
	copy(b.Bids, bids)
	copy(b.Asks, asks)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[symbol] = b
}

// ReplaceAll swaps the entire registry for the snapshot contents. Symbols
// absent from the snapshot are dropped: after a reconnect nothing from the
// pre-disconnect state may survive.
func (r *Registry) ReplaceAll(snapshot map[string]OrderBook) {
	books := make(map[string]*OrderBook, len(snapshot))
	for symbol, b := range snapshot {
		c := b.clone()
		books[symbol] = &c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = books
}

// HasLevel reports whether (symbol, side) holds a level matching price
// within Eps. Used for side inference on match events.
func (r *Registry) HasLevel(symbol string, side domain.Side, price decimal.Decimal) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[symbol]
	if !ok {
		return false
	}
	return findLevel(*b.side(side), price) >= 0
}

// Book returns a deep copy of one symbol's book.
func (r *Registry) Book(symbol string) (OrderBook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[symbol]
	if !ok {
		return OrderBook{}, false
	}
	return b.clone(), true
}

// All returns a deep copy of every book.
func (r *Registry) All() map[string]OrderBook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]OrderBook, len(r.books))
	for symbol, b := range r.books {
		out[symbol] = b.clone()
	}
	return out
}

// Symbols returns all known symbols sorted for stable iteration.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.books))
	for symbol := range r.books {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}
