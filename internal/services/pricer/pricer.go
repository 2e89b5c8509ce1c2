// Package pricer resolves BTC-denominated prices from exchange market data.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"
)

// Resolver converts assets into BTC-denominated prices. Implementations
// hold no mutable state and are safe to share across concurrent
// computations.
type Resolver interface {
	// BTCQuotePrice returns the price of 1 BTC in the configured quote
	// currency. A zero upstream quote is reported as a missing price.
	BTCQuotePrice(ctx context.Context) (decimal.Decimal, error)
	// BTCToAsset returns the price of 1 BTC denominated in asset, falling
	// back from the direct to the inverse pair when only one side is
	// listed. Symbols are matched case-insensitively.
	BTCToAsset(ctx context.Context, asset string) (decimal.Decimal, error)
}
