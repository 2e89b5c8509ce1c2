package pricer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coinops/aumfetch/internal/domain"
)

// newTickerServer serves /api/v3/ticker/price from the prices map and
// answers unknown symbols the way Binance does: HTTP 400 with code -1121.
func newTickerServer(t *testing.T, prices map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		symbol := r.URL.Query().Get("symbol")

		price, ok := prices[symbol]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
			return
		}
		fmt.Fprintf(w, `{"symbol":%q,"price":%q}`, symbol, price)
	}))
}

func newTestResolver(t *testing.T, prices map[string]string, quoteCurrency string) *BinanceResolver {
	t.Helper()
	server := newTickerServer(t, prices)
	t.Cleanup(server.Close)

	client := binance.NewClient("", "")
	client.BaseURL = server.URL

	return NewBinanceResolver(client, quoteCurrency)
}

func TestBinanceResolver_QuotePrice(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{"BTCUSDT": "100000"}, "USDT")

	price, err := resolver.BTCQuotePrice(context.Background())
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(100_000)))
}

func TestBinanceResolver_QuotePriceZeroIsMissing(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{"BTCUSDT": "0"}, "USDT")

	_, err := resolver.BTCQuotePrice(context.Background())
	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, "BTCUSDT", missingErr.Asset)
}

func TestBinanceResolver_BTCIsIdentity(t *testing.T) {
	// no prices at all: the identity must not hit the network
	resolver := newTestResolver(t, map[string]string{}, "USDT")

	price, err := resolver.BTCToAsset(context.Background(), "btc")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(1)))
}

func TestBinanceResolver_QuoteCurrencyDelegates(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{"BTCUSDT": "100000"}, "USDT")

	price, err := resolver.BTCToAsset(context.Background(), "usdt")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(100_000)))
}

func TestBinanceResolver_DirectPair(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{"BTCEUR": "90000"}, "USDT")

	price, err := resolver.BTCToAsset(context.Background(), "EUR")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(90_000)))
}

func TestBinanceResolver_InverseFallback(t *testing.T) {
	// BTCXYZ is unknown, XYZBTC trades at 4 -> 1 BTC = 0.25 XYZ
	resolver := newTestResolver(t, map[string]string{"XYZBTC": "4"}, "USDT")

	price, err := resolver.BTCToAsset(context.Background(), "XYZ")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromFloat(0.25)))
}

func TestBinanceResolver_BothSidesUnknown(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{}, "USDT")

	_, err := resolver.BTCToAsset(context.Background(), "XYZ")
	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, "XYZ", missingErr.Asset)
}

func TestBinanceResolver_ZeroInversePriceIsMissing(t *testing.T) {
	resolver := newTestResolver(t, map[string]string{"XYZBTC": "0"}, "USDT")

	_, err := resolver.BTCToAsset(context.Background(), "XYZ")
	var missingErr *domain.MissingPriceError
	require.ErrorAs(t, err, &missingErr)
}

func TestBinanceResolver_ServerFaultPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":-1000,"msg":"An unknown error occurred"}`)
	}))
	t.Cleanup(server.Close)

	client := binance.NewClient("", "")
	client.BaseURL = server.URL
	resolver := NewBinanceResolver(client, "USDT")

	_, err := resolver.BTCToAsset(context.Background(), "ETH")
	require.Error(t, err)
	var missingErr *domain.MissingPriceError
	require.False(t, errors.As(err, &missingErr), "a transport fault is not a missing price")
}
