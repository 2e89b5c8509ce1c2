// Command aumfetch values a Binance portfolio-margin account plus selected
// spot balances in BTC and reports a fixed-point wrapped-BTC AUM figure.
// Prices can come from Binance, Bybit or Hyperliquid.
//
// Usage:
//
//	aumfetch (single valuation with CLI flags)
//	aumfetch --config config.yaml
//	aumfetch setup (interactive config wizard)
//
// Required environment variables:
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit prices: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid prices: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/coinops/aumfetch/config"
	"github.com/coinops/aumfetch/internal/clients"
	"github.com/coinops/aumfetch/internal/domain"
	"github.com/coinops/aumfetch/internal/render"
	"github.com/coinops/aumfetch/internal/services/aum"
	"github.com/coinops/aumfetch/internal/services/portfolio"
	"github.com/coinops/aumfetch/internal/services/pricer"
	"github.com/coinops/aumfetch/internal/setup"
	"github.com/coinops/aumfetch/internal/storage/reports"
	"github.com/coinops/aumfetch/internal/web"
)

const hyperliquidAPIURL = "https://api.hyperliquid.xyz"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("aumfetch failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	apiKey := os.Getenv("BINANCE_API_KEY")
	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
	}

	spotClient := clients.NewBinanceClient(apiKey, apiSecret)
	spotClient.BaseURL = cfg.APIBaseURL
	papiClient := clients.NewPortfolioMarginClient(apiKey, apiSecret, cfg.PapiBaseURL, cfg.Timeout)

	resolver, err := buildResolver(cfg, spotClient)
	if err != nil {
		return err
	}

	collector := portfolio.NewCollector(papiClient, spotClient, cfg.UmPositions, cfg.SpotAssets, logger)

	var store *reports.WALStore
	if cfg.WalDir != "" || cfg.WebAddr != "" {
		store, err = reports.NewWALStore(cfg.WalDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.WebAddr != "" {
		server := web.NewServer(cfg.WebAddr, store, cfg.WebDomains, cfg.CertDir)
		go func() {
			if err := server.Start(ctx); err != nil {
				logger.Error("web server stopped", zap.Error(err))
			}
		}()
	}

	cycle := func(ctx context.Context) error {
		snapshot, err := collector.Snapshot(ctx)
		if err != nil {
			return err
		}

		calculation, err := aum.Calculate(ctx, snapshot, resolver)
		if err != nil {
			return err
		}

		report := domain.NewAumReport(snapshot, calculation)

		if cfg.OutputFormat == "json" {
			if err := render.JSON(os.Stdout, report); err != nil {
				return err
			}
		} else {
			render.Table(os.Stdout, report)
		}

		if store != nil {
			if err := store.Save(report); err != nil {
				logger.Warn("failed to persist report", zap.Error(err))
			}
		}

		return nil
	}

	logger.Info("aumfetch started",
		zap.String("price_venue", cfg.PriceVenue),
		zap.String("quote_currency", cfg.QuoteCurrency))

	if cfg.Once {
		return cycle(ctx)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		if err := cycle(ctx); err != nil {
			logger.Error("valuation cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func buildResolver(cfg config.Config, spotClient *binance.Client) (pricer.Resolver, error) {
	switch cfg.PriceVenue {
	case "binance":
		return pricer.NewBinanceResolver(spotClient, cfg.QuoteCurrency), nil
	case "bybit":
		client := clients.NewBybitClient(os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"))
		return pricer.NewBybitResolver(client, cfg.QuoteCurrency), nil
	case "hyperliquid":
		privateKey := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		if privateKey == "" {
			return nil, errors.New("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
		client, err := clients.NewHyperliquidClient(privateKey, hyperliquidAPIURL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create hyperliquid client")
		}
		return pricer.NewHyperliquidResolver(client.Info(), cfg.QuoteCurrency)
	default:
		return nil, errors.Errorf("unsupported price venue %q", cfg.PriceVenue)
	}
}
