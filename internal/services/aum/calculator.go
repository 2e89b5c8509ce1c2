// Package aum aggregates a portfolio snapshot into a single BTC-denominated
// AUM figure with a per-asset breakdown.
package aum

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coinops/aumfetch/internal/domain"
	"github.com/coinops/aumfetch/internal/services/pricer"
)

// wrappedBTCTicker is 1:1 redeemable for BTC and is priced at identity
// without consulting the resolver.
const wrappedBTCTicker = "WBTC"

// wbtcUnitBits bounds the fixed-point output to a signed 128-bit integer.
const wbtcUnitBits = 128

var oneE8 = decimal.NewFromInt(100_000_000)

// Calculate values the snapshot in BTC using prices from resolver.
//
// Holdings are processed in input order and the contribution list preserves
// that order. All arithmetic is exact decimal; the only lossy step is the
// final fixed-point encode, which truncates toward zero past the 8th
// decimal. Any failure aborts the computation without a partial result.
func Calculate(ctx context.Context, snapshot domain.PortfolioSnapshot, resolver pricer.Resolver) (domain.AumCalculation, error) {
	spotTotalBTC := decimal.Zero
	contributions := make([]domain.SpotContribution, 0, len(snapshot.SpotHoldings))

	for _, holding := range snapshot.SpotHoldings {
		assetUpper := strings.ToUpper(holding.Asset)

		var btcToAssetPrice, amountBTC decimal.Decimal
		if assetUpper == wrappedBTCTicker {
			btcToAssetPrice = decimal.NewFromInt(1)
			amountBTC = holding.Amount
		} else {
			price, err := resolver.BTCToAsset(ctx, assetUpper)
			if err != nil {
				return domain.AumCalculation{}, err
			}
			if price.IsZero() {
				return domain.AumCalculation{}, &domain.MissingPriceError{Asset: assetUpper}
			}
			btcToAssetPrice = price
			amountBTC = holding.Amount.Div(price)
		}

		spotTotalBTC = spotTotalBTC.Add(amountBTC)
		contributions = append(contributions, domain.SpotContribution{
			Asset:           holding.Asset,
			Amount:          holding.Amount,
			BtcToAssetPrice: btcToAssetPrice,
			AmountBTC:       amountBTC,
		})
	}

	btcQuotePrice, err := resolver.BTCQuotePrice(ctx)
	if err != nil {
		return domain.AumCalculation{}, err
	}
	if btcQuotePrice.IsZero() {
		return domain.AumCalculation{}, &domain.MissingPriceError{Asset: "BTC/USD"}
	}

	// Margin equity may be negative; division preserves the sign.
	pmEquityBTC := snapshot.MarginEquityQuote.Div(btcQuotePrice)
	aumBTC := pmEquityBTC.Add(spotTotalBTC)

	if aumBTC.IsNegative() {
		return domain.AumCalculation{}, &domain.NegativeAumError{Value: aumBTC}
	}

	aumWbtcU8 := aumBTC.Mul(oneE8).Truncate(0).BigInt()
	if aumWbtcU8.BitLen() >= wbtcUnitBits {
		return domain.AumCalculation{}, &domain.FixedPointOverflowError{Value: aumBTC}
	}

	return domain.AumCalculation{
		AumBTC:            aumBTC,
		AumWbtcU8:         aumWbtcU8,
		AumWbtc:           decimal.NewFromBigInt(aumWbtcU8, -8),
		SpotTotalBTC:      spotTotalBTC,
		PmEquityQuote:     snapshot.MarginEquityQuote,
		BTCQuotePrice:     btcQuotePrice,
		SpotContributions: contributions,
	}, nil
}
