// Package setup provides the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/coinops/aumfetch/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes the result
// to config.gen.yaml.
func RunTUI() error {
	var (
		venue       string
		quote       string
		spotAssets  string
		umPositions string
		intervalStr string
		format      string
		webAddr     string
		confirm     bool
	)

	// defaults
	quote = "USDT"
	spotAssets = "USDT,BTC,ETH,SOL"
	umPositions = "BTCUSDT,ETHUSDT,SOLUSDT"
	intervalStr = "30s"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("AUMFETCH CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up BTC-denominated portfolio valuation.\n"))

	// price venue
	fmt.Println(stepStyle.Render("STEP 1: PRICE VENUE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should prices come from?").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&venue),
		),
	).Run()
	if err != nil {
		return err
	}

	// portfolio
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("AUMFETCH CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PORTFOLIO"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Quote currency").
				Description("Currency the margin account equity is denominated in").
				Value(&quote).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("quote currency cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Spot assets").
				Description("Comma-separated asset list to value (e.g. USDT,BTC,ETH)").
				Value(&spotAssets),
			huh.NewInput().
				Title("UM positions").
				Description("Comma-separated derivative symbols to report (e.g. BTCUSDT)").
				Value(&umPositions),
		),
	).Run()
	if err != nil {
		return err
	}

	// timing and output
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("AUMFETCH CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: SCHEDULE & OUTPUT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Valuation interval").
				Description("Duration string (e.g. 30s, 1m, 5m)").
				Value(&intervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Table", "table"),
					huh.NewOption("JSON", "json"),
				).
				Value(&format),
			huh.NewInput().
				Title("Web server address").
				Description("Optional, e.g. :8080; leave empty to disable").
				Value(&webAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("AUMFETCH CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Venue: %s\nQuote: %s\nSpot assets: %s\nUM positions: %s\nInterval: %s\nFormat: %s\n",
		venue, quote, spotAssets, umPositions, intervalStr, format,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	interval, _ := time.ParseDuration(intervalStr)

	cfgTmp := config.ConfigTmp{
		PriceVenue:    venue,
		QuoteCurrency: quote,
		UmPositions:   umPositions,
		SpotAssets:    spotAssets,
		OutputFormat:  format,
		Once:          false,
		Interval:      interval,
		WebAddr:       webAddr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", filename)))
	return nil
}
