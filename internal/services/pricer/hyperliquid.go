package pricer

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/coinops/aumfetch/internal/domain"
)

// HyperliquidResolver resolves prices from the Hyperliquid public Info API.
// The venue publishes only coin/USD mids, so a BTC-in-asset price is the
// ratio of the two mids; a coin absent from the mids map has no pair in
// either direction. Only USD-pegged quote currencies are accepted, since
// the mids carry no quote of their own.
type HyperliquidResolver struct {
	info          *hyperliquid.Info
	quoteCurrency string
}

var usdPeggedQuotes = map[string]bool{
	"USD":  true,
	"USDT": true,
	"USDC": true,
}

func NewHyperliquidResolver(info *hyperliquid.Info, quoteCurrency string) (*HyperliquidResolver, error) {
	quote := strings.ToUpper(quoteCurrency)
	if !usdPeggedQuotes[quote] {
		return nil, errors.Errorf("hyperliquid publishes USD mids only, quote currency %q is not USD-pegged", quoteCurrency)
	}

	return &HyperliquidResolver{info: info, quoteCurrency: quote}, nil
}

func (r *HyperliquidResolver) BTCQuotePrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := r.mid(ctx, "BTC")
	if err != nil {
		return decimal.Zero, err
	}
	if price.IsZero() {
		pair := domain.Pair{From: "BTC", To: r.quoteCurrency}
		return decimal.Zero, &domain.MissingPriceError{Asset: pair.Symbol()}
	}

	return price, nil
}

func (r *HyperliquidResolver) BTCToAsset(ctx context.Context, asset string) (decimal.Decimal, error) {
	asset = strings.ToUpper(asset)
	if asset == "BTC" {
		return decimal.NewFromInt(1), nil
	}
	if asset == r.quoteCurrency {
		return r.BTCQuotePrice(ctx)
	}

	btcMid, err := r.mid(ctx, "BTC")
	if err != nil {
		return decimal.Zero, err
	}

	assetMid, err := r.mid(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if assetMid.IsZero() {
		return decimal.Zero, &domain.MissingPriceError{Asset: asset}
	}

	return btcMid.Div(assetMid), nil
}

func (r *HyperliquidResolver) mid(ctx context.Context, coin string) (decimal.Decimal, error) {
	if r.info == nil {
		return decimal.Zero, errors.New("hyperliquid info client is nil")
	}

	mids, err := r.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	mid, ok := mids[coin]
	if !ok || mid == "" {
		return decimal.Zero, &domain.MissingPriceError{Asset: coin}
	}

	price, err := decimal.NewFromString(mid)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to parse hyperliquid mid for %s", coin)
	}

	return price, nil
}
