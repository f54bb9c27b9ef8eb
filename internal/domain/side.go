package domain

// Side identifies the half of the book an event or order targets.
type Side int8

const (
	SideUnknown Side = iota
	SideBid
	SideAsk
)

const (
	wireBuy  = "buy"
	wireSell = "sell"
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// Wire returns the feed representation of the side ("buy" / "sell").
// SideUnknown has no wire form and returns "".
func (s Side) Wire() string {
	switch s {
	case SideBid:
		return wireBuy
	case SideAsk:
		return wireSell
	default:
		return ""
	}
}

// ParseSide maps a feed side value onto a Side. The feed only ever sends
// "buy" or "sell"; anything else (including absence) is SideUnknown and
// must be resolved against book state or dropped.
func ParseSide(raw string) Side {
	switch raw {
	case wireBuy:
		return SideBid
	case wireSell:
		return SideAsk
	default:
		return SideUnknown
	}
}
