package valueobject

// Asset represents the settlement asset a monetary amount is denominated in.
// The pool keeps its books in exactly one accounting asset; receivables
// settling in anything else are rejected at approval time.
type Asset string

// DefaultAsset is the pool's accounting asset
const DefaultAsset Asset = "USDC"

// String returns the asset symbol
func (a Asset) String() string {
	return string(a)
}
