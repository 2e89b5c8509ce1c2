package aum

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinops/aumfetch/internal/domain"
)

// stubResolver serves prices from a fixed map and records which assets were
// looked up.
type stubResolver struct {
	quotePrice  decimal.Decimal
	assetPrices map[string]decimal.Decimal
	lookups     []string
}

func (s *stubResolver) BTCQuotePrice(_ context.Context) (decimal.Decimal, error) {
	return s.quotePrice, nil
}

func (s *stubResolver) BTCToAsset(_ context.Context, asset string) (decimal.Decimal, error) {
	s.lookups = append(s.lookups, asset)
	price, ok := s.assetPrices[strings.ToUpper(asset)]
	if !ok {
		return decimal.Zero, &domain.MissingPriceError{Asset: asset}
	}
	return price, nil
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestCalculate_PmEquityOnly(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: d(200_000),
	}
	resolver := &stubResolver{quotePrice: d(100_000)}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)

	require.True(t, result.AumBTC.Equal(d(2)), "aum_btc = %s", result.AumBTC)
	require.Equal(t, "200000000", result.AumWbtcU8.String())
	require.True(t, result.AumWbtc.Equal(d(2)))
	require.True(t, result.SpotTotalBTC.IsZero())
	require.Empty(t, result.SpotContributions)
}

func TestCalculate_SpotConversion(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		SpotHoldings: []domain.SpotHolding{{Asset: "ETH", Amount: d(1)}},
	}
	resolver := &stubResolver{
		quotePrice:  d(100_000),
		assetPrices: map[string]decimal.Decimal{"ETH": d(50)},
	}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)

	require.True(t, result.AumBTC.Equal(decimal.NewFromFloat(0.02)))
	require.Equal(t, "2000000", result.AumWbtcU8.String())

	require.Len(t, result.SpotContributions, 1)
	contribution := result.SpotContributions[0]
	require.Equal(t, "ETH", contribution.Asset)
	require.True(t, contribution.BtcToAssetPrice.Equal(d(50)))
	require.True(t, contribution.AmountBTC.Equal(decimal.NewFromFloat(0.02)))
	require.True(t, result.SpotTotalBTC.Equal(contribution.AmountBTC))
}

func TestCalculate_WrappedBTCBypassesResolver(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		SpotHoldings: []domain.SpotHolding{{Asset: "WBTC", Amount: decimal.NewFromFloat(0.5)}},
	}
	// no WBTC price; a lookup would fail
	resolver := &stubResolver{quotePrice: d(100_000)}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)

	require.Empty(t, resolver.lookups, "resolver must not be consulted for WBTC")
	require.True(t, result.SpotContributions[0].AmountBTC.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, result.SpotContributions[0].BtcToAssetPrice.Equal(d(1)))
}

func TestCalculate_MissingAssetPrice(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		SpotHoldings: []domain.SpotHolding{{Asset: "XYZ", Amount: d(1)}},
	}
	resolver := &stubResolver{quotePrice: d(100_000)}

	_, err := Calculate(context.Background(), snapshot, resolver)
	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, "XYZ", missingErr.Asset)
}

func TestCalculate_ZeroAssetPriceIsMissing(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		SpotHoldings: []domain.SpotHolding{{Asset: "ETH", Amount: d(1)}},
	}
	resolver := &stubResolver{
		quotePrice:  d(100_000),
		assetPrices: map[string]decimal.Decimal{"ETH": decimal.Zero},
	}

	_, err := Calculate(context.Background(), snapshot, resolver)
	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, "ETH", missingErr.Asset)
}

func TestCalculate_ZeroQuotePriceIsMissing(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: d(100),
	}
	resolver := &stubResolver{quotePrice: decimal.Zero}

	_, err := Calculate(context.Background(), snapshot, resolver)
	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
}

func TestCalculate_RejectsNegativeAum(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: d(-1),
	}
	resolver := &stubResolver{quotePrice: d(100_000)}

	_, err := Calculate(context.Background(), snapshot, resolver)
	var negativeErr *domain.NegativeAumError
	require.ErrorAs(t, err, &negativeErr)
	require.True(t, negativeErr.Value.IsNegative())
}

func TestCalculate_NegativeEquityOffsetBySpot(t *testing.T) {
	// equity -50000 USDT = -0.5 BTC, spot 1 BTC -> aum 0.5 BTC
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: d(-50_000),
		SpotHoldings:      []domain.SpotHolding{{Asset: "BTC", Amount: d(1)}},
	}
	resolver := &stubResolver{
		quotePrice:  d(100_000),
		assetPrices: map[string]decimal.Decimal{"BTC": d(1)},
	}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)
	require.True(t, result.AumBTC.Equal(decimal.NewFromFloat(0.5)))
	require.Equal(t, "50000000", result.AumWbtcU8.String())
}

func TestCalculate_FixedPointTruncatesTowardZero(t *testing.T) {
	// 12345.6789 / 100000 = 0.123456789 BTC; the 9th decimal is dropped,
	// not rounded
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: decimal.RequireFromString("12345.6789"),
	}
	resolver := &stubResolver{quotePrice: d(100_000)}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)

	require.Equal(t, "12345678", result.AumWbtcU8.String())
	require.Equal(t, "0.12345678", result.AumWbtc.StringFixed(8))
	require.True(t, result.AumBTC.Equal(decimal.RequireFromString("0.123456789")))
}

func TestCalculate_FixedPointOverflow(t *testing.T) {
	// equity chosen so that aum_btc * 1e8 = 2^127 exactly, the first
	// integer that no longer fits a signed 128-bit value
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: decimal.RequireFromString("1701411834604692317316873037158.84105728"),
	}
	resolver := &stubResolver{quotePrice: d(1)}

	_, err := Calculate(context.Background(), snapshot, resolver)

	var overflowErr *domain.FixedPointOverflowError
	require.ErrorAs(t, err, &overflowErr)
}

func TestCalculate_FixedPointMaxValueFits(t *testing.T) {
	// one unit below the boundary: aum_btc * 1e8 = 2^127 - 1
	snapshot := domain.PortfolioSnapshot{
		MarginEquityQuote: decimal.RequireFromString("1701411834604692317316873037158.84105727"),
	}
	resolver := &stubResolver{quotePrice: d(1)}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)
	require.Equal(t, "170141183460469231731687303715884105727", result.AumWbtcU8.String())
	require.True(t, result.AumWbtc.Equal(snapshot.MarginEquityQuote))
}

func TestCalculate_SpotTotalIsExactSum(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		SpotHoldings: []domain.SpotHolding{
			{Asset: "ETH", Amount: d(1)},
			{Asset: "SOL", Amount: d(3)},
			{Asset: "WBTC", Amount: decimal.NewFromFloat(0.25)},
		},
	}
	resolver := &stubResolver{
		quotePrice: d(100_000),
		assetPrices: map[string]decimal.Decimal{
			"ETH": d(30),
			"SOL": d(700),
		},
	}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)

	require.Len(t, result.SpotContributions, 3)
	require.Equal(t, "ETH", result.SpotContributions[0].Asset)
	require.Equal(t, "SOL", result.SpotContributions[1].Asset)
	require.Equal(t, "WBTC", result.SpotContributions[2].Asset)

	total := decimal.Zero
	for _, contribution := range result.SpotContributions {
		total = total.Add(contribution.AmountBTC)
	}
	require.True(t, total.Equal(result.SpotTotalBTC))
	require.True(t, result.AumBTC.Equal(result.SpotTotalBTC), "zero equity adds nothing")
}

func TestCalculate_AssetSymbolsAreCaseInsensitive(t *testing.T) {
	snapshot := domain.PortfolioSnapshot{
		SpotHoldings: []domain.SpotHolding{{Asset: "eth", Amount: d(2)}},
	}
	resolver := &stubResolver{
		quotePrice:  d(100_000),
		assetPrices: map[string]decimal.Decimal{"ETH": d(50)},
	}

	result, err := Calculate(context.Background(), snapshot, resolver)
	require.NoError(t, err)

	require.Equal(t, []string{"ETH"}, resolver.lookups)
	// the contribution keeps the symbol as supplied
	require.Equal(t, "eth", result.SpotContributions[0].Asset)
	require.True(t, result.SpotContributions[0].AmountBTC.Equal(decimal.NewFromFloat(0.04)))
}
