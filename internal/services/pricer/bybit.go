package pricer

import (
	"context"
	"strings"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/coinops/aumfetch/internal/domain"
)

// BybitResolver resolves prices via the Bybit V5 spot ticker endpoint.
// The exchange answers a request for a delisted pair with an empty ticker
// list, which is treated as pair-not-found for fallback purposes.
type BybitResolver struct {
	client        *bybit.Client
	quoteCurrency string
}

func NewBybitResolver(client *bybit.Client, quoteCurrency string) *BybitResolver {
	return &BybitResolver{client: client, quoteCurrency: strings.ToUpper(quoteCurrency)}
}

func (r *BybitResolver) BTCQuotePrice(ctx context.Context) (decimal.Decimal, error) {
	pair := domain.Pair{From: "BTC", To: r.quoteCurrency}
	price, listed, err := r.tickerPriceIfListed(ctx, pair.Symbol())
	if err != nil {
		return decimal.Zero, err
	}
	if !listed || price.IsZero() {
		return decimal.Zero, &domain.MissingPriceError{Asset: pair.Symbol()}
	}

	return price, nil
}

func (r *BybitResolver) BTCToAsset(ctx context.Context, asset string) (decimal.Decimal, error) {
	asset = strings.ToUpper(asset)
	if asset == "BTC" {
		return decimal.NewFromInt(1), nil
	}
	if asset == r.quoteCurrency {
		return r.BTCQuotePrice(ctx)
	}

	direct := domain.Pair{From: "BTC", To: asset}
	price, listed, err := r.tickerPriceIfListed(ctx, direct.Symbol())
	if err != nil {
		return decimal.Zero, err
	}
	if listed {
		return price, nil
	}

	inverse := domain.Pair{From: asset, To: "BTC"}
	price, listed, err = r.tickerPriceIfListed(ctx, inverse.Symbol())
	if err != nil {
		return decimal.Zero, err
	}
	if !listed || price.IsZero() {
		return decimal.Zero, &domain.MissingPriceError{Asset: asset}
	}

	return decimal.NewFromInt(1).Div(price), nil
}

func (r *BybitResolver) tickerPriceIfListed(_ context.Context, sym string) (decimal.Decimal, bool, error) {
	symbol := bybit.SymbolV5(sym)

	result, err := r.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Zero, false, err
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Zero, false, nil
	}

	price, err := decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
	if err != nil {
		return decimal.Zero, false, errors.Wrapf(err, "failed to parse bybit price for %s", sym)
	}

	return price, true, nil
}
