package genctx

// BorrowKind is a parameter's passing form. The kinds form a join
// semilattice Owned < Shared < Unique.
type BorrowKind int

const (
	Owned BorrowKind = iota
	Shared
	Unique
)

func (b BorrowKind) String() string {
	switch b {
	case Owned:
		return "owned"
	case Shared:
		return "&"
	case Unique:
		return "&mut"
	}
	return "unknown"
}

// Join returns the least upper bound of b and other
func (b BorrowKind) Join(other BorrowKind) BorrowKind {
	if other > b {
		return other
	}
	return b
}

// Prefix returns the Rust reference prefix for the kind
func (b BorrowKind) Prefix() string {
	switch b {
	case Shared:
		return "&"
	case Unique:
		return "&mut "
	}
	return ""
}

// EscapeKind classifies how a local value leaves its binding
type EscapeKind int

const (
	EscapeOwned EscapeKind = iota
	EscapeShared
	EscapeUnique
	EscapeReturned
)

func (e EscapeKind) String() string {
	switch e {
	case EscapeOwned:
		return "owned"
	case EscapeShared:
		return "shared-borrow"
	case EscapeUnique:
		return "unique-borrow"
	case EscapeReturned:
		return "returned"
	}
	return "unknown"
}
