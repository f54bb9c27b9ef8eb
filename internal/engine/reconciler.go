package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"book_mirror/internal/book"
	"book_mirror/internal/event"
	"book_mirror/internal/infra"
)

// Journal persists applied events for post-mortem inspection. May be nil.
type Journal interface {
	Append(ev event.Event) error
}

// Reconciler is the single-threaded consumer of the feed. Raw frames go
// into the inbox; Run decodes, normalizes and applies them one at a time,
// in arrival order. All registry mutation on the event path happens here,
// so a frame is either fully applied or not applied at all.
type Reconciler struct {
	inbox   chan []byte
	books   *book.Registry
	norm    *event.Normalizer
	journal Journal

	// Ready gates consumers: false until the feed is connected and the
	// first snapshot has landed. A disconnect clears both bits because
	// events may be missed until the next snapshot.
	connected atomic.Bool
	synced    atomic.Bool
}

// NewReconciler creates a reconciler over the given registry. journal may
// be nil to disable the event journal.
func NewReconciler(inboxSize int, books *book.Registry, journal Journal) *Reconciler {
	return &Reconciler{
		inbox:   make(chan []byte, inboxSize),
		books:   books,
		norm:    event.NewNormalizer(books),
		journal: journal,
	}
}

// Inbox returns the frame channel. The feed session sends here.
func (r *Reconciler) Inbox() chan<- []byte {
	return r.inbox
}

// Books returns the registry the reconciler mutates.
func (r *Reconciler) Books() *book.Registry {
	return r.books
}

// Run starts the consumption loop. It MUST run in a single goroutine.
// The frame being processed when ctx is canceled completes before return;
// teardown never interrupts a mutation.
func (r *Reconciler) Run(ctx context.Context) {
	slog.Info("reconciler started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopping")
			return
		case raw := <-r.inbox:
			r.processFrame(raw)
		}
	}
}

func (r *Reconciler) processFrame(raw []byte) {
	ev, err := r.norm.Normalize(raw)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrMalformed):
			infra.GlobalMetrics.RecordMalformed()
			slog.Warn("dropping malformed frame", slog.Any("error", err))
		case errors.Is(err, event.ErrIgnored):
			infra.GlobalMetrics.RecordIgnored()
			slog.Debug("ignoring frame", slog.Any("error", err))
		}
		return
	}

	r.apply(ev)
	infra.GlobalMetrics.RecordApplied()

	if r.journal != nil {
		if err := r.journal.Append(ev); err != nil {
			slog.Warn("journal append failed", slog.Any("error", err))
		}
	}
}

// apply mutates the registry for one normalized event. Exactly one
// (symbol, side) pair is touched per event.
func (r *Reconciler) apply(ev event.Event) {
	switch e := ev.(type) {
	case event.OrderAdded:
		if e.Delta.IsPositive() {
			r.books.Upsert(e.Symbol, e.Side, e.Price, e.Delta)
		} else {
			// Cancel-to-zero: an addition resolving to no quantity
			// removes the level. Removing an absent level is a no-op.
			r.books.Remove(e.Symbol, e.Side, e.Price)
		}
	case event.OrderMatched:
		if e.Qty.IsPositive() {
			r.books.Reduce(e.Symbol, e.Side, e.Price, e.Qty)
		}
	}
}

// Ready reports whether consumers may trust the mirror: the feed is up
// and a snapshot has been loaded since the last (re)connect.
func (r *Reconciler) Ready() bool {
	return r.connected.Load() && r.synced.Load()
}

// MarkConnected records a live feed connection.
func (r *Reconciler) MarkConnected() {
	r.connected.Store(true)
}

// MarkDisconnected records a feed drop. The mirror is stale until the
// next successful snapshot, so synced is cleared too.
func (r *Reconciler) MarkDisconnected() {
	r.connected.Store(false)
	r.synced.Store(false)
}

// MarkSynced records a successful snapshot load.
func (r *Reconciler) MarkSynced() {
	r.synced.Store(true)
}
