// signalcheck computes the current market signals and the sizing decision the
// bot would make, without placing any order. Useful for checking strategy
// behavior against live data before a scheduled run.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"accumbot/config"
	"accumbot/internal/adapters/btcmarkets"
	"accumbot/internal/adapters/feargreed"
	"accumbot/internal/adapters/logger"
	"accumbot/internal/strategy"
	"accumbot/internal/strategy/indicators"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// Console only; a read-only check does not need the daily log file.
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}

	exchangeClient, err := btcmarkets.New(btcmarkets.Config{
		APIKey:     cfg.APIKey,
		PrivateKey: cfg.PrivateKey,
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.HTTPTimeout,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize exchange client: %v", err)
	}

	sentimentClient, err := feargreed.New(feargreed.Config{
		URL:     cfg.SentimentURL,
		Timeout: cfg.SentimentTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize sentiment client: %v", err)
	}

	trendRatio, err := indicators.NewTrendRatio(indicators.TrendRatioConfig{
		Window:        cfg.TrendWindow,
		MinDataPoints: cfg.MinDataPoints,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trend ratio indicator: %v", err)
	}

	ctx := context.Background()

	price, err := exchangeClient.GetTicker(ctx, cfg.MarketID)
	if err != nil {
		log.Fatalf("FATAL: Failed to get current price: %v", err)
	}

	candles, err := exchangeClient.GetCandles(ctx, cfg.MarketID, "1d", cfg.TrendWindow)
	if err != nil {
		log.Fatalf("FATAL: Failed to fetch candles: %v", err)
	}

	ratio, err := trendRatio.Ratio(ctx, price, candles)
	if err != nil {
		log.Fatalf("FATAL: Failed to compute trend ratio: %v", err)
	}

	sentiment, err := sentimentClient.Score(ctx)
	if err != nil {
		appLogger.Warn(ctx, "Sentiment index unavailable, using neutral value", map[string]interface{}{"error": err.Error()})
		sentiment = 50
	}

	decision := strategy.Decide(ratio, sentiment, strategy.SizingConfig{
		BaseAmount: cfg.BaseWeeklyAmount,
		MinAmount:  cfg.MinWeeklyAmount,
		MaxAmount:  cfg.MaxWeeklyAmount,
	})

	fmt.Printf("Market:      %s\n", cfg.MarketID)
	fmt.Printf("Price:       %.2f %s\n", price, cfg.QuoteAsset())
	fmt.Printf("Trend ratio: %.3f (over %d candles)\n", ratio, len(candles))
	fmt.Printf("Sentiment:   %d\n", sentiment)
	fmt.Printf("Signal:      %s\n", decision.Signal)
	fmt.Printf("Multiplier:  %.1fx\n", decision.Multiplier)
	fmt.Printf("Would spend: %.2f %s\n", decision.Amount, cfg.QuoteAsset())

	os.Exit(0)
}
