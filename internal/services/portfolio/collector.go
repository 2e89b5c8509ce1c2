// Package portfolio assembles portfolio snapshots from exchange account data.
package portfolio

import (
	"context"
	"slices"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coinops/aumfetch/internal/clients"
	"github.com/coinops/aumfetch/internal/domain"
	"github.com/coinops/aumfetch/pkg/retrier"
)

// umQuoteAsset is the settlement asset of the USD-M wallet balance carried
// into the report.
const umQuoteAsset = "USDT"

// Collector fetches the portfolio-margin account and spot balances and
// turns them into a PortfolioSnapshot. Transient faults are retried here;
// the valuation core never retries.
type Collector struct {
	papi       *clients.PortfolioMarginClient
	spot       *binance.Client
	retrier    *retrier.Retrier
	umSymbols  []string
	spotAssets []string
	logger     *zap.Logger
}

func NewCollector(papi *clients.PortfolioMarginClient, spot *binance.Client, umSymbols, spotAssets []string, logger *zap.Logger) *Collector {
	return &Collector{
		papi:       papi,
		spot:       spot,
		retrier:    retrier.New(retrier.WithMaxRetries(2), retrier.WithRetryIf(isTransient)),
		umSymbols:  umSymbols,
		spotAssets: spotAssets,
		logger:     logger,
	}
}

// isTransient reports whether a fetch error is worth retrying. Auth and
// permission rejections from Binance never heal on their own.
func isTransient(err error) bool {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return true
	}

	switch apiErr.Code {
	case -1002, // unauthorized
		-1022, // invalid signature
		-2014, // bad API key format
		-2015: // invalid key, IP or permissions
		return false
	}

	return true
}

// Snapshot fetches all account data concurrently and builds the snapshot.
// Positions and balances are filtered to the configured symbol lists.
func (c *Collector) Snapshot(ctx context.Context) (domain.PortfolioSnapshot, error) {
	var (
		umPositions []clients.UmPositionAPI
		accountInfo clients.PmAccountInfoAPI
		pmBalances  []clients.PmAccountBalanceAPI
		spotAccount *binance.Account
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		umPositions, err = retrier.DoWithData(c.retrier, gctx, c.papi.UmPositions)
		return errors.Wrap(err, "failed to fetch um positions")
	})
	g.Go(func() error {
		var err error
		accountInfo, err = retrier.DoWithData(c.retrier, gctx, c.papi.AccountInfo)
		return errors.Wrap(err, "failed to fetch pm account info")
	})
	g.Go(func() error {
		var err error
		pmBalances, err = retrier.DoWithData(c.retrier, gctx, c.papi.AccountBalances)
		return errors.Wrap(err, "failed to fetch pm account balances")
	})
	g.Go(func() error {
		var err error
		spotAccount, err = retrier.DoWithData(c.retrier, gctx, func(ctx context.Context) (*binance.Account, error) {
			return c.spot.NewGetAccountService().Do(ctx)
		})
		return errors.Wrap(err, "failed to fetch spot account")
	})
	if err := g.Wait(); err != nil {
		return domain.PortfolioSnapshot{}, err
	}

	positions, err := filterPositions(umPositions, c.umSymbols)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}

	holdings, err := filterSpotHoldings(spotAccount.Balances, c.spotAssets)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}

	umBalanceQuote := decimal.Zero
	for _, balance := range pmBalances {
		if balance.Asset == umQuoteAsset {
			umBalanceQuote, err = parseDecimal("umWalletBalance", balance.UmWalletBalance)
			if err != nil {
				return domain.PortfolioSnapshot{}, err
			}
			break
		}
	}

	uniMMR, err := parseDecimal("uniMMR", accountInfo.UniMMR)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}
	marginEquity, err := parseDecimal("actualEquity", accountInfo.ActualEquity)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}
	withdrawable, err := parseDecimal("virtualMaxWithdrawAmount", accountInfo.VirtualMaxWithdrawAmount)
	if err != nil {
		return domain.PortfolioSnapshot{}, err
	}

	c.logger.Debug("portfolio snapshot assembled",
		zap.Int("positions", len(positions)),
		zap.Int("spot_holdings", len(holdings)),
		zap.String("margin_equity", marginEquity.String()))

	return domain.PortfolioSnapshot{
		UniMMR:            uniMMR,
		Positions:         positions,
		UmBalanceQuote:    umBalanceQuote,
		SpotHoldings:      holdings,
		MarginEquityQuote: marginEquity,
		WithdrawableQuote: withdrawable,
	}, nil
}

func filterPositions(positions []clients.UmPositionAPI, symbols []string) ([]domain.UmPosition, error) {
	filtered := make([]domain.UmPosition, 0, len(symbols))
	for _, position := range positions {
		if !slices.Contains(symbols, position.Symbol) {
			continue
		}

		amount, err := parseDecimal("positionAmt", position.PositionAmt)
		if err != nil {
			return nil, err
		}
		pnl, err := parseDecimal("unrealizedProfit", position.UnrealizedProfit)
		if err != nil {
			return nil, err
		}

		filtered = append(filtered, domain.UmPosition{
			Symbol: position.Symbol,
			Amount: amount,
			PnL:    pnl,
		})
	}

	return filtered, nil
}

func filterSpotHoldings(balances []binance.Balance, assets []string) ([]domain.SpotHolding, error) {
	filtered := make([]domain.SpotHolding, 0, len(assets))
	for _, balance := range balances {
		if !slices.Contains(assets, balance.Asset) {
			continue
		}

		free, err := parseDecimal("free", balance.Free)
		if err != nil {
			return nil, err
		}
		locked, err := parseDecimal("locked", balance.Locked)
		if err != nil {
			return nil, err
		}

		filtered = append(filtered, domain.SpotHolding{
			Asset:  balance.Asset,
			Amount: free.Add(locked),
		})
	}

	return filtered, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to parse decimal from %q value %q", field, value)
	}

	return parsed, nil
}
