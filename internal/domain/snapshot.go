package domain

import "github.com/shopspring/decimal"

// UmPosition is an open USD-M derivatives position carried for reporting.
type UmPosition struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	PnL    decimal.Decimal `json:"pnl"`
}

// SpotHolding is a spot balance of a single asset. Amount is the sum of
// free and locked balances and is never negative.
type SpotHolding struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// PortfolioSnapshot is one observation of the portfolio-margin account and
// selected spot balances.
//
// Only MarginEquityQuote and SpotHoldings feed the AUM computation. The
// remaining fields (margin ratio, open positions, UM wallet balance,
// withdrawable amount) are fetched for the report and intentionally never
// influence the figure.
type PortfolioSnapshot struct {
	UniMMR            decimal.Decimal `json:"unimmr"`
	Positions         []UmPosition    `json:"positions"`
	UmBalanceQuote    decimal.Decimal `json:"um_balance_usdt"`
	SpotHoldings      []SpotHolding   `json:"spot_balances"`
	MarginEquityQuote decimal.Decimal `json:"pm_account_actual_equity"`
	WithdrawableQuote decimal.Decimal `json:"withdrawable_usdt"`
}
