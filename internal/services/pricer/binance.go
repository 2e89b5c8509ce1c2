package pricer

import (
	"context"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/coinops/aumfetch/internal/domain"
)

// binanceUnknownSymbolCode is the API error code for a trading pair that
// does not exist. Only this code triggers the inverse-pair fallback; any
// other failure propagates.
const binanceUnknownSymbolCode = -1121

// BinanceResolver resolves prices via the Binance spot ticker endpoint.
type BinanceResolver struct {
	client        *binance.Client
	quoteCurrency string
}

func NewBinanceResolver(client *binance.Client, quoteCurrency string) *BinanceResolver {
	return &BinanceResolver{client: client, quoteCurrency: strings.ToUpper(quoteCurrency)}
}

func (r *BinanceResolver) BTCQuotePrice(ctx context.Context) (decimal.Decimal, error) {
	pair := domain.Pair{From: "BTC", To: r.quoteCurrency}
	price, err := r.tickerPrice(ctx, pair.Symbol())
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsZero() {
		return decimal.Zero, &domain.MissingPriceError{Asset: pair.Symbol()}
	}

	return price, nil
}

func (r *BinanceResolver) BTCToAsset(ctx context.Context, asset string) (decimal.Decimal, error) {
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

func (r *BinanceResolver) tickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := r.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(prices) == 0 {
		return decimal.Zero, errors.Errorf("binance API returned empty prices for %s", symbol)
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to parse binance price for %s", symbol)
	}

	return price, nil
}

// tickerPriceIfListed distinguishes "pair does not exist" from a failed
// request: the former returns listed=false, the latter an error.
func (r *BinanceResolver) tickerPriceIfListed(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	price, err := r.tickerPrice(ctx, symbol)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == binanceUnknownSymbolCode {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}

	return price, true, nil
}
