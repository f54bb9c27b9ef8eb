package book

import (
	"testing"

	"book_mirror/internal/domain"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// checkInvariants asserts the ordering and positivity invariants that
// must hold after every mutation.
func checkInvariants(t *testing.T, b OrderBook) {
	t.Helper()
	for i := range b.Bids {
		if !b.Bids[i].Qty.IsPositive() {
			t.Errorf("bid %d has non-positive qty %s", i, b.Bids[i].Qty)
		}
		if i > 0 && !b.Bids[i-1].Price.GreaterThan(b.Bids[i].Price) {
			t.Errorf("bids not strictly descending at %d: %s then %s", i, b.Bids[i-1].Price, b.Bids[i].Price)
		}
	}
	for i := range b.Asks {
		if !b.Asks[i].Qty.IsPositive() {
			t.Errorf("ask %d has non-positive qty %s", i, b.Asks[i].Qty)
		}
		if i > 0 && !b.Asks[i-1].Price.LessThan(b.Asks[i].Price) {
			t.Errorf("asks not strictly ascending at %d: %s then %s", i, b.Asks[i-1].Price, b.Asks[i].Price)
		}
	}
}

func TestSamePrice(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"identical", 100, 100, true},
		{"within eps", 100, 100.000000001, true},
		{"at eps boundary", 100, 100.00000001, false},
		{"distinct", 100, 100.01, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SamePrice(d(tt.a), d(tt.b)); got != tt.want {
				t.Errorf("SamePrice(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestUpsert_InsertKeepsSidesSorted(t *testing.T) {
	r := NewRegistry()

	for _, p := range []float64{100, 102, 99, 101} {
		r.Upsert("BTC", domain.SideBid, d(p), d(1))
		r.Upsert("BTC", domain.SideAsk, d(p+10), d(1))
		b, _ := r.Book("BTC")
		checkInvariants(t, b)
	}

	b, ok := r.Book("BTC")
	if !ok {
		t.Fatal("book should exist")
	}
	wantBids := []float64{102, 101, 100, 99}
	for i, p := range wantBids {
		if !b.Bids[i].Price.Equal(d(p)) {
			t.Errorf("bid %d: got %s, want %v", i, b.Bids[i].Price, p)
		}
	}
	wantAsks := []float64{109, 110, 111, 112}
	for i, p := range wantAsks {
		if !b.Asks[i].Price.Equal(d(p)) {
			t.Errorf("ask %d: got %s, want %v", i, b.Asks[i].Price, p)
		}
	}
}

func TestUpsert_MergesWithinTolerance(t *testing.T) {
	r := NewRegistry()
	r.Upsert("BTC", domain.SideBid, d(100), d(2))
	// Same level up to float representation noise.
	r.Upsert("BTC", domain.SideBid, d(100.000000001), d(3))

	b, _ := r.Book("BTC")
	if len(b.Bids) != 1 {
		t.Fatalf("expected 1 bid level, got %d", len(b.Bids))
	}
	if !b.Bids[0].Qty.Equal(d(5)) {
		t.Errorf("expected merged qty 5, got %s", b.Bids[0].Qty)
	}
}

func TestUpsert_NegativeDeltaRemovesLevel(t *testing.T) {
	r := NewRegistry()
	r.Upsert("BTC", domain.SideAsk, d(100), d(2))
	r.Upsert("BTC", domain.SideAsk, d(100), d(-2))

	b, _ := r.Book("BTC")
	if len(b.Asks) != 0 {
		t.Errorf("expected empty asks, got %d levels", len(b.Asks))
	}

	// Negative delta against an absent level must not create one.
	r.Upsert("BTC", domain.SideAsk, d(50), d(-1))
	b, _ = r.Book("BTC")
	if len(b.Asks) != 0 {
		t.Errorf("negative delta created a level: %+v", b.Asks)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	r := NewRegistry()
	r.Upsert("BTC", domain.SideBid, d(100), d(1))
	r.Remove("BTC", domain.SideBid, d(100))
	r.Remove("BTC", domain.SideBid, d(100)) // second removal is a no-op

	b, _ := r.Book("BTC")
	if len(b.Bids) != 0 {
		t.Errorf("expected empty bids, got %d levels", len(b.Bids))
	}
}

func TestReduce(t *testing.T) {
	t.Run("partial fill", func(t *testing.T) {
		r := NewRegistry()
		r.Upsert("BTC", domain.SideBid, d(100), d(5))
		r.Reduce("BTC", domain.SideBid, d(100), d(2))

		b, _ := r.Book("BTC")
		if len(b.Bids) != 1 || !b.Bids[0].Qty.Equal(d(3)) {
			t.Errorf("expected single bid with qty 3, got %+v", b.Bids)
		}
	})

	t.Run("full consume removes level", func(t *testing.T) {
		r := NewRegistry()
		r.Upsert("BTC", domain.SideBid, d(100), d(5))
		r.Reduce("BTC", domain.SideBid, d(100), d(5))

		b, _ := r.Book("BTC")
		if len(b.Bids) != 0 {
			t.Errorf("expected level removed, got %+v", b.Bids)
		}
	})

	t.Run("dust remainder removes level", func(t *testing.T) {
		r := NewRegistry()
		r.Upsert("BTC", domain.SideAsk, d(100), d(2))
		// Remainder of 1e-9 sits below Eps and must not survive.
		r.Reduce("BTC", domain.SideAsk, d(100), d(1.999999999))

		b, _ := r.Book("BTC")
		if len(b.Asks) != 0 {
			t.Errorf("expected dust level removed, got %+v", b.Asks)
		}
	})

	t.Run("absent level is a no-op", func(t *testing.T) {
		r := NewRegistry()
		r.Reduce("BTC", domain.SideBid, d(100), d(1))

		b, _ := r.Book("BTC")
		if len(b.Bids) != 0 || len(b.Asks) != 0 {
			t.Errorf("stale match created state: %+v", b)
		}
	})
}

func TestReplaceAll_DropsStaleSymbols(t *testing.T) {
	r := NewRegistry()
	r.Upsert("OLD", domain.SideBid, d(1), d(1))
	r.Upsert("BTC", domain.SideBid, d(50), d(1))

	r.ReplaceAll(map[string]OrderBook{
		"BTC": {
			Bids: []PriceLevel{{Price: d(100), Qty: d(2)}},
			Asks: []PriceLevel{{Price: d(101), Qty: d(3)}},
		},
	})

	if _, ok := r.Book("OLD"); ok {
		t.Error("stale symbol survived snapshot replacement")
	}
	b, ok := r.Book("BTC")
	if !ok {
		t.Fatal("snapshot symbol missing")
	}
	if len(b.Bids) != 1 || !b.Bids[0].Price.Equal(d(100)) {
		t.Errorf("pre-snapshot bid survived: %+v", b.Bids)
	}
}

func TestReplace_SingleSymbol(t *testing.T) {
	r := NewRegistry()
	r.Upsert("BTC", domain.SideBid, d(50), d(1))
	r.Replace("BTC",
		[]PriceLevel{{Price: d(100), Qty: d(2)}},
		nil,
	)

	b, _ := r.Book("BTC")
	if len(b.Bids) != 1 || !b.Bids[0].Price.Equal(d(100)) {
		t.Errorf("replace did not overwrite book: %+v", b.Bids)
	}
	if len(b.Asks) != 0 {
		t.Errorf("expected empty asks, got %+v", b.Asks)
	}
}

func TestHasLevel(t *testing.T) {
	r := NewRegistry()
	r.Upsert("BTC", domain.SideBid, d(100), d(1))

	if !r.HasLevel("BTC", domain.SideBid, d(100.000000001)) {
		t.Error("expected bid level match within tolerance")
	}
	if r.HasLevel("BTC", domain.SideAsk, d(100)) {
		t.Error("unexpected ask level")
	}
	if r.HasLevel("ETH", domain.SideBid, d(100)) {
		t.Error("unexpected level for unknown symbol")
	}
}

func TestBook_ReturnsDeepCopy(t *testing.T) {
	r := NewRegistry()
	r.Upsert("BTC", domain.SideBid, d(100), d(1))

	snap, _ := r.Book("BTC")
	r.Upsert("BTC", domain.SideBid, d(100), d(9))

	if !snap.Bids[0].Qty.Equal(d(1)) {
		t.Errorf("reader copy mutated by later write: %s", snap.Bids[0].Qty)
	}
}

func TestSymbols_Sorted(t *testing.T) {
	r := NewRegistry()
	for _, s := range []string{"ETH", "BTC", "XRP"} {
		r.Upsert(s, domain.SideBid, d(1), d(1))
	}
	got := r.Symbols()
	want := []string{"BTC", "ETH", "XRP"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("symbols = %v, want %v", got, want)
		}
	}
}

// TestInvariants_EventSequence hammers one book with a mixed sequence and
// checks ordering and positivity after every step.
func TestInvariants_EventSequence(t *testing.T) {
	r := NewRegistry()
	steps := []struct {
		side  domain.Side
		price float64
		delta float64 // positive upsert, negative reduce
	}{
		{domain.SideBid, 100, 2}, {domain.SideBid, 101, 1}, {domain.SideBid, 99.5, 4},
		{domain.SideAsk, 102, 3}, {domain.SideAsk, 101.5, 2}, {domain.SideAsk, 103, 1},
		{domain.SideBid, 100, -1}, {domain.SideAsk, 101.5, -2},
		{domain.SideBid, 101, -1}, {domain.SideBid, 98, 7}, {domain.SideAsk, 102, -0.5},
	}
	for i, st := range steps {
		if st.delta > 0 {
			r.Upsert("BTC", st.side, d(st.price), d(st.delta))
		} else {
			r.Reduce("BTC", st.side, d(st.price), d(-st.delta))
		}
		b, _ := r.Book("BTC")
		checkInvariants(t, b)
		if t.Failed() {
			t.Fatalf("invariant violated at step %d (%+v)", i, st)
		}
	}
}
