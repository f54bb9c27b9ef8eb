package service

import (
	"testing"

	"book_mirror/internal/book"
	"book_mirror/internal/domain"

	"github.com/shopspring/decimal"
)

type fixedStatus bool

func (s fixedStatus) Ready() bool { return bool(s) }

func TestBookService_Ready(t *testing.T) {
	svc := NewBookService(book.NewRegistry(), fixedStatus(false))
	if svc.Ready() {
		t.Error("expected not ready")
	}
	svc = NewBookService(book.NewRegistry(), fixedStatus(true))
	if !svc.Ready() {
		t.Error("expected ready")
	}
}

func TestBookService_SnapshotsAreIsolated(t *testing.T) {
	books := book.NewRegistry()
	books.Upsert("BTC", domain.SideBid, decimal.NewFromInt(100), decimal.NewFromInt(2))

	svc := NewBookService(books, fixedStatus(true))
	snap, ok := svc.Book("BTC")
	if !ok {
		t.Fatal("book missing")
	}

	// Engine keeps mutating; the handed-out copy must not move.
	books.Upsert("BTC", domain.SideBid, decimal.NewFromInt(100), decimal.NewFromInt(3))

	if !snap.Bids[0].Qty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("reader snapshot changed under mutation: %s", snap.Bids[0].Qty)
	}

	all := svc.Books()
	if !all["BTC"].Bids[0].Qty.Equal(decimal.NewFromInt(5)) {
		t.Errorf("fresh read should see the merge: %s", all["BTC"].Bids[0].Qty)
	}
}

func TestBookService_Symbols(t *testing.T) {
	books := book.NewRegistry()
	for _, s := range []string{"XRP", "BTC"} {
		books.Upsert(s, domain.SideAsk, decimal.NewFromInt(1), decimal.NewFromInt(1))
	}
	svc := NewBookService(books, fixedStatus(true))

	got := svc.Symbols()
	if len(got) != 2 || got[0] != "BTC" || got[1] != "XRP" {
		t.Errorf("symbols = %v", got)
	}
}
