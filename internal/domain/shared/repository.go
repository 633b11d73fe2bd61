package shared

import "context"

// Page represents an offset/limit window over an ordered collection.
// Every scan over the active set or the redemption queue goes through one
// of these so no single call pays for an unbounded backlog.
type Page struct {
	Offset int
	Limit  int
}

// Clamp bounds the page limit to the given ceiling and normalizes
// negative offsets/limits
func (p Page) Clamp(ceiling int) Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > ceiling {
		p.Limit = ceiling
	}
	return p
}

// TransactionManager runs a function within a storage transaction.
// Either every mutation inside fn commits, or none do.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
