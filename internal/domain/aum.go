package domain

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpotContribution is the BTC-equivalent of one spot holding.
type SpotContribution struct {
	Asset string `json:"asset"`
	// Amount is the original holding amount.
	Amount decimal.Decimal `json:"amount"`
	// BtcToAssetPrice is how many units of the asset equal 1 BTC.
	BtcToAssetPrice decimal.Decimal `json:"btc_to_asset_price"`
	// AmountBTC = Amount / BtcToAssetPrice at full precision.
	AmountBTC decimal.Decimal `json:"amount_btc"`
}

// AumCalculation is the validated result of one AUM computation.
//
// AumWbtcU8 is AumBTC scaled by 1e8 and truncated toward zero; AumWbtc is
// the same integer re-expressed at 8 decimal places, so the three views of
// the figure are always mutually consistent.
type AumCalculation struct {
	AumBTC            decimal.Decimal    `json:"aum_btc_18dp"`
	AumWbtcU8         *big.Int           `json:"aum_wbtc_u8"`
	AumWbtc           decimal.Decimal    `json:"aum_wbtc"`
	SpotTotalBTC      decimal.Decimal    `json:"spot_total_btc"`
	PmEquityQuote     decimal.Decimal    `json:"pm_equity_usd"`
	BTCQuotePrice     decimal.Decimal    `json:"btc_usd_price"`
	SpotContributions []SpotContribution `json:"spot_contributions"`
}

// AumReport bundles one snapshot with its calculation.
type AumReport struct {
	ID          uuid.UUID         `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Data        PortfolioSnapshot `json:"data"`
	Calculation AumCalculation    `json:"calculation"`
}

// NewAumReport creates a report for the snapshot/calculation pair stamped
// with the current time.
func NewAumReport(data PortfolioSnapshot, calculation AumCalculation) AumReport {
	return AumReport{
		ID:          uuid.New(),
		Timestamp:   time.Now().UTC(),
		Data:        data,
		Calculation: calculation,
	}
}

// AumReportRecord bundles a stored report with its WAL index.
type AumReportRecord struct {
	Index  uint64
	Report AumReport
}
