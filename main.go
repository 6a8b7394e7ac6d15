package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"accumbot/config"
	"accumbot/internal/adapters/btcmarkets"
	"accumbot/internal/adapters/feargreed"
	"accumbot/internal/adapters/logger"
	"accumbot/internal/app"
	"accumbot/internal/strategy/indicators"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Exchange Client (BTCMarkets Adapter)
	exchangeClient, err := btcmarkets.New(btcmarkets.Config{
		APIKey:     cfg.APIKey,
		PrivateKey: cfg.PrivateKey,
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.HTTPTimeout,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize exchange client")
		log.Fatalf("FATAL: Failed to initialize exchange client: %v", err)
	}
	appLogger.Info(context.Background(), "Exchange client initialized")

	// 4. Initialize Sentiment Client
	sentimentClient, err := feargreed.New(feargreed.Config{
		URL:     cfg.SentimentURL,
		Timeout: cfg.SentimentTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize sentiment client")
		log.Fatalf("FATAL: Failed to initialize sentiment client: %v", err)
	}

	// 5. Initialize Trend Ratio Indicator
	trendRatio, err := indicators.NewTrendRatio(indicators.TrendRatioConfig{
		Window:        cfg.TrendWindow,
		MinDataPoints: cfg.MinDataPoints,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trend ratio indicator")
		log.Fatalf("FATAL: Failed to initialize trend ratio indicator: %v", err)
	}

	// 6. Initialize Application Service
	service, err := app.NewAccumulationService(
		cfg,
		appLogger,
		exchangeClient, // Pass the concrete implementation, service expects the interface
		sentimentClient,
		trendRatio,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize accumulation service")
		log.Fatalf("FATAL: Failed to initialize accumulation service: %v", err)
	}
	appLogger.Info(context.Background(), "Accumulation service initialized")

	// 7. Run one cycle. Handled business outcomes (no purchase, rejected order)
	// still return nil; only fatal conditions reach the Fatalf below.
	if err := service.Run(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Accumulation cycle exited with error")
		log.Fatalf("FATAL: Accumulation cycle exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
