// Package config loads service configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultUmPositions = "BTCUSDT,ETHUSDT,SOLUSDT"
	defaultSpotAssets  = "USDT,BTC,ETH,SOL"
	defaultAPIBaseURL  = "https://api.binance.com"
	defaultPapiBaseURL = "https://papi.binance.com"
)

// Config holds everything needed to fetch, value and publish the portfolio.
// API credentials are not part of it; they come from environment variables.
type Config struct {
	PriceVenue    string
	QuoteCurrency string
	UmPositions   []string
	SpotAssets    []string
	OutputFormat  string
	Once          bool
	Interval      time.Duration
	Timeout       time.Duration
	APIBaseURL    string
	PapiBaseURL   string
	WalDir        string
	WebAddr       string
	WebDomains    []string
	CertDir       string
}

// ConfigTmp is the YAML representation of Config; list-valued fields are
// comma-separated strings. The setup wizard marshals it back out.
type ConfigTmp struct {
	PriceVenue    string        `yaml:"price_venue"`
	QuoteCurrency string        `yaml:"quote_currency"`
	UmPositions   string        `yaml:"um_positions"`
	SpotAssets    string        `yaml:"spot_assets"`
	OutputFormat  string        `yaml:"output_format"`
	Once          bool          `yaml:"once"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	APIBaseURL    string        `yaml:"api_base_url"`
	PapiBaseURL   string        `yaml:"papi_base_url"`
	WalDir        string        `yaml:"wal_dir"`
	WebAddr       string        `yaml:"web_addr"`
	WebDomains    string        `yaml:"web_domains"`
	CertDir       string        `yaml:"cert_dir"`
}

// Get reads the configuration from --config when provided, otherwise from
// the remaining CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	venue := flag.String("venue", "binance", "price venue: binance, bybit or hyperliquid")
	quote := flag.String("quote", "USDT", "quote currency of the margin account")
	umPositions := flag.String("umpositions", defaultUmPositions, "comma-separated UM position symbols to report")
	spotAssets := flag.String("spotassets", defaultSpotAssets, "comma-separated spot assets to value")
	format := flag.String("format", "table", "output format: table or json")
	once := flag.Bool("once", true, "run a single valuation and exit")
	interval := flag.Duration("interval", 30*time.Second, "valuation interval when not running once")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP timeout for exchange requests")
	apiURL := flag.String("apiurl", defaultAPIBaseURL, "binance spot API base url")
	papiURL := flag.String("papiurl", defaultPapiBaseURL, "binance portfolio margin API base url")
	walDir := flag.String("waldir", "", "directory for the report WAL, empty disables persistence")
	webAddr := flag.String("webaddr", "", "listen address of the report web server, empty disables it")
	webDomains := flag.String("webdomains", "", "comma-separated TLS domains for the web server")
	certDir := flag.String("certdir", "./certs", "autocert certificate cache directory")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := Config{
		PriceVenue:    *venue,
		QuoteCurrency: *quote,
		OutputFormat:  *format,
		Once:          *once,
		Interval:      *interval,
		Timeout:       *timeout,
		APIBaseURL:    *apiURL,
		PapiBaseURL:   *papiURL,
		WalDir:        *walDir,
		WebAddr:       *webAddr,
		CertDir:       *certDir,
	}

	var err error
	if cfg.UmPositions, err = parseSymbolList(*umPositions, "umpositions"); err != nil {
		return Config{}, err
	}
	if cfg.SpotAssets, err = parseSymbolList(*spotAssets, "spotassets"); err != nil {
		return Config{}, err
	}
	if *webDomains != "" {
		cfg.WebDomains = splitList(*webDomains)
	}

	return validated(cfg)
}

func getYaml(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := Config{
		PriceVenue:    tmp.PriceVenue,
		QuoteCurrency: tmp.QuoteCurrency,
		OutputFormat:  tmp.OutputFormat,
		Once:          tmp.Once,
		Interval:      tmp.Interval,
		Timeout:       tmp.Timeout,
		APIBaseURL:    tmp.APIBaseURL,
		PapiBaseURL:   tmp.PapiBaseURL,
		WalDir:        tmp.WalDir,
		WebAddr:       tmp.WebAddr,
		CertDir:       tmp.CertDir,
	}
	if cfg.PriceVenue == "" {
		cfg.PriceVenue = "binance"
	}
	if cfg.QuoteCurrency == "" {
		cfg.QuoteCurrency = "USDT"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "table"
	}
	if tmp.UmPositions == "" {
		tmp.UmPositions = defaultUmPositions
	}
	if tmp.SpotAssets == "" {
		tmp.SpotAssets = defaultSpotAssets
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.PapiBaseURL == "" {
		cfg.PapiBaseURL = defaultPapiBaseURL
	}

	if cfg.UmPositions, err = parseSymbolList(tmp.UmPositions, "um_positions"); err != nil {
		return Config{}, err
	}
	if cfg.SpotAssets, err = parseSymbolList(tmp.SpotAssets, "spot_assets"); err != nil {
		return Config{}, err
	}
	if tmp.WebDomains != "" {
		cfg.WebDomains = splitList(tmp.WebDomains)
	}

	return validated(cfg)
}

func validated(cfg Config) (Config, error) {
	switch cfg.PriceVenue {
	case "binance", "bybit", "hyperliquid":
	default:
		return Config{}, fmt.Errorf("unsupported price venue %q", cfg.PriceVenue)
	}

	switch cfg.OutputFormat {
	case "table", "json":
	default:
		return Config{}, fmt.Errorf("unsupported output format %q", cfg.OutputFormat)
	}

	cfg.QuoteCurrency = strings.ToUpper(strings.TrimSpace(cfg.QuoteCurrency))
	if cfg.QuoteCurrency == "" {
		return Config{}, fmt.Errorf("quote currency must not be empty")
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.PapiBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PapiBaseURL), "/")

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}
	return values
}

func parseSymbolList(raw, field string) ([]string, error) {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		values = append(values, strings.ToUpper(part))
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%s list must not be empty", field)
	}

	return values, nil
}
