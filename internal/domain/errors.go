package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MissingPriceError means a required conversion price could not be
// determined: the upstream quoted exactly zero, or neither side of the
// asset/BTC pair exists.
type MissingPriceError struct {
	Asset string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("price unavailable for asset %q", e.Asset)
}

// NegativeAumError means the aggregated AUM came out below zero. The value
// is reported as computed, never clamped.
type NegativeAumError struct {
	Value decimal.Decimal
}

func (e *NegativeAumError) Error() string {
	return fmt.Sprintf("negative aum computed: %s", e.Value)
}

// FixedPointOverflowError means the fixed-point AUM does not fit the target
// integer width.
type FixedPointOverflowError struct {
	Value decimal.Decimal
}

func (e *FixedPointOverflowError) Error() string {
	return fmt.Sprintf("aum %s does not fit in 128-bit fixed point", e.Value)
}
