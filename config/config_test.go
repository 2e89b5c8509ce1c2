package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetYaml(t *testing.T) {
	path := writeConfigFile(t, `
price_venue: bybit
quote_currency: usdt
um_positions: btcusdt, ethusdt
spot_assets: btc,eth
output_format: json
once: false
wal_dir: ./wal/reports
web_addr: :8080
web_domains: aum.example.com
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)

	require.Equal(t, "bybit", cfg.PriceVenue)
	require.Equal(t, "USDT", cfg.QuoteCurrency)
	require.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.UmPositions)
	require.Equal(t, []string{"BTC", "ETH"}, cfg.SpotAssets)
	require.Equal(t, "json", cfg.OutputFormat)
	require.False(t, cfg.Once)
	require.Equal(t, "./wal/reports", cfg.WalDir)
	require.Equal(t, ":8080", cfg.WebAddr)
	require.Equal(t, []string{"aum.example.com"}, cfg.WebDomains)
}

func TestGetYamlDefaults(t *testing.T) {
	path := writeConfigFile(t, "once: true\n")

	cfg, err := getYaml(path)
	require.NoError(t, err)

	require.Equal(t, "binance", cfg.PriceVenue)
	require.Equal(t, "USDT", cfg.QuoteCurrency)
	require.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cfg.UmPositions)
	require.Equal(t, []string{"USDT", "BTC", "ETH", "SOL"}, cfg.SpotAssets)
	require.Equal(t, "table", cfg.OutputFormat)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, defaultAPIBaseURL, cfg.APIBaseURL)
	require.Equal(t, defaultPapiBaseURL, cfg.PapiBaseURL)
	require.Empty(t, cfg.WebDomains)
}

func TestGetYamlMissingFile(t *testing.T) {
	_, err := getYaml(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidatedRejectsBadVenue(t *testing.T) {
	_, err := validated(Config{PriceVenue: "kraken", OutputFormat: "table", QuoteCurrency: "USDT"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "price venue")
}

func TestValidatedRejectsBadFormat(t *testing.T) {
	_, err := validated(Config{PriceVenue: "binance", OutputFormat: "xml", QuoteCurrency: "USDT"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "output format")
}

func TestValidatedNormalizesURLs(t *testing.T) {
	cfg, err := validated(Config{
		PriceVenue:    "binance",
		OutputFormat:  "table",
		QuoteCurrency: " usdc ",
		APIBaseURL:    "https://api.example.com/",
		PapiBaseURL:   "https://papi.example.com//",
	})
	require.NoError(t, err)
	require.Equal(t, "USDC", cfg.QuoteCurrency)
	require.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	require.Equal(t, "https://papi.example.com", cfg.PapiBaseURL)
}

func TestParseSymbolList(t *testing.T) {
	values, err := parseSymbolList(" btc , eth ,,sol", "spot_assets")
	require.NoError(t, err)
	require.Equal(t, []string{"BTC", "ETH", "SOL"}, values)

	_, err = parseSymbolList(" , ", "spot_assets")
	require.Error(t, err)
}

func TestSplitListKeepsCase(t *testing.T) {
	require.Equal(t, []string{"aum.example.com", "Www.Example.com"},
		splitList("aum.example.com, Www.Example.com ,"))
}
