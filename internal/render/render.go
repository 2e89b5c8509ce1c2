// Package render writes AUM reports as a styled table or as JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/coinops/aumfetch/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#5A5A5A", Dark: "#9B9B9B"})

	valueStyle = lipgloss.NewStyle().Bold(true)
)

// Table writes a human-readable rendition of the report.
func Table(w io.Writer, report domain.AumReport) {
	calc := report.Calculation

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("AUM report %s @ %s", report.ID, report.Timestamp.Format("2006-01-02 15:04:05 MST"))))

	row(w, "aum_wbtc_u8", calc.AumWbtcU8.String())
	row(w, "aum_wbtc", calc.AumWbtc.StringFixed(8))
	row(w, "aum_btc", calc.AumBTC.Round(18).String())
	row(w, "spot_total_btc", calc.SpotTotalBTC.Round(18).String())
	row(w, "pm_equity_usd", calc.PmEquityQuote.Round(8).String())
	row(w, "btc_usd_price", calc.BTCQuotePrice.Round(8).String())

	fmt.Fprintln(w, labelStyle.Render("spot_contributions:"))
	for _, contribution := range calc.SpotContributions {
		fmt.Fprintf(w, "  - %s amount=%s btc_to_asset=%s amount_btc=%s\n",
			valueStyle.Render(contribution.Asset),
			contribution.Amount.Round(18).String(),
			contribution.BtcToAssetPrice.Round(18).String(),
			contribution.AmountBTC.Round(18).String(),
		)
	}

	fmt.Fprintln(w, labelStyle.Render("diagnostics:"))
	fmt.Fprintf(w, "  - unimmr=%s\n", report.Data.UniMMR.Round(8).String())
	fmt.Fprintf(w, "  - um_balance_usdt=%s\n", report.Data.UmBalanceQuote.Round(8).String())
	fmt.Fprintf(w, "  - withdrawable_usdt=%s\n", report.Data.WithdrawableQuote.Round(8).String())
	fmt.Fprintln(w, "  - positions:")
	for _, position := range report.Data.Positions {
		fmt.Fprintf(w, "    * %s amount=%s pnl=%s\n",
			position.Symbol,
			position.Amount.Round(18).String(),
			position.PnL.Round(18).String(),
		)
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, report domain.AumReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
