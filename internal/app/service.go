package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"accumbot/config"
	"accumbot/internal/domain"
	"accumbot/internal/ports"
	"accumbot/internal/strategy"
	"accumbot/internal/strategy/indicators"
)

const candleTimeWindow = "1d"

// AccumulationService orchestrates one accumulation cycle: connectivity check,
// indicator computation, sizing, balance check, order placement and summary
// reporting. The service holds no state across runs; the process exits after
// one cycle and is re-run by an external scheduler.
type AccumulationService struct {
	cfg       *config.Config
	logger    ports.Logger
	exchange  ports.ExchangeClient
	sentiment ports.SentimentProvider
	ratio     *indicators.TrendRatio
	sizing    strategy.SizingConfig
}

// NewAccumulationService creates a new application service instance.
func NewAccumulationService(
	cfg *config.Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	sentiment ports.SentimentProvider,
	ratio *indicators.TrendRatio,
) (*AccumulationService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || exchange == nil || sentiment == nil || ratio == nil {
		return nil, fmt.Errorf("missing required dependencies for AccumulationService")
	}

	sizing := strategy.SizingConfig{
		BaseAmount: cfg.BaseWeeklyAmount,
		MinAmount:  cfg.MinWeeklyAmount,
		MaxAmount:  cfg.MaxWeeklyAmount,
	}
	if err := sizing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sizing configuration: %w", err)
	}

	return &AccumulationService{
		cfg:       cfg,
		logger:    logger,
		exchange:  exchange,
		sentiment: sentiment,
		ratio:     ratio,
		sizing:    sizing,
	}, nil
}

// Run executes one accumulation cycle. A nil return means the cycle completed
// with a reported outcome, including "no purchase" and handled order failures.
// A non-nil return is fatal (connectivity or indicator failure) and should
// cause a non-zero process exit.
func (s *AccumulationService) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting accumulation cycle", map[string]interface{}{
		"market": s.cfg.MarketID,
		"base":   s.sizing.BaseAmount,
		"min":    s.sizing.MinAmount,
		"max":    s.sizing.MaxAmount,
	})

	// 1. Connectivity check: public ticker plus authenticated balances. Either
	// failing aborts the run before any order is attempted.
	if err := s.testConnection(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	// 2. Market signals and sizing decision.
	decision, err := s.calculateBuyAmount(ctx)
	if err != nil {
		return fmt.Errorf("failed to calculate buy amount: %w", err)
	}

	price, err := s.currentPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current price: %w", err)
	}
	s.logger.Info(ctx, "Current price", map[string]interface{}{"market": s.cfg.MarketID, "price": price})

	// 3. Portfolio snapshot before acting. A snapshot failure is logged but
	// does not abort the cycle.
	s.logPortfolio(ctx, "Current portfolio")

	// 4/5. Execute or skip.
	if decision.Amount > 0 {
		s.logger.Info(ctx, "Executing buy strategy", map[string]interface{}{
			"amount": decision.Amount,
			"signal": decision.Signal,
		})
		result := s.executeBuyOrder(ctx, decision.Amount)
		if result.Success {
			s.logger.Info(ctx, "Purchase successful", map[string]interface{}{
				"baseAmount":  strconv.FormatFloat(result.BaseAmount, 'f', 8, 64),
				"quoteAmount": result.QuoteAmount,
				"price":       result.Price,
				"orderID":     result.OrderID,
				"status":      result.Status,
			})
		} else {
			// Handled business failure: reported, cycle still exits zero.
			s.logger.Error(ctx, nil, "Purchase failed", map[string]interface{}{"reason": result.Reason})
		}
	} else {
		s.logger.Info(ctx, "No purchase this cycle", map[string]interface{}{"signal": decision.Signal})
	}

	// 6. Final portfolio snapshot regardless of branch taken.
	s.logPortfolio(ctx, "Final portfolio")

	s.logger.Info(ctx, "Accumulation cycle completed")
	return nil
}

// testConnection probes the public ticker endpoint and the authenticated
// balances endpoint.
func (s *AccumulationService) testConnection(ctx context.Context) error {
	op := "testConnection"
	s.logger.Info(ctx, op+": Testing API connection...")

	if _, err := s.exchange.GetTicker(ctx, s.cfg.MarketID); err != nil {
		s.logger.Error(ctx, err, op+": public API test failed")
		return err
	}

	balances, err := s.exchange.GetBalances(ctx)
	if err != nil {
		s.logger.Error(ctx, err, op+": private API test failed")
		return err
	}
	if len(balances) == 0 {
		s.logger.Warn(ctx, op+": API connection successful but no balances found")
	} else {
		s.logger.Info(ctx, op+": API connection test successful", map[string]interface{}{"assets": len(balances)})
	}
	return nil
}

// currentPrice returns the last traded price for the configured market.
func (s *AccumulationService) currentPrice(ctx context.Context) (float64, error) {
	return s.exchange.GetTicker(ctx, s.cfg.MarketID)
}

// trendRatio fetches daily candles and computes current price over its
// trailing moving average. Errors propagate: the ratio is a required input.
func (s *AccumulationService) trendRatio(ctx context.Context) (float64, error) {
	candles, err := s.exchange.GetCandles(ctx, s.cfg.MarketID, candleTimeWindow, s.cfg.TrendWindow)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("no candle data received for %s", s.cfg.MarketID)
	}

	price, err := s.currentPrice(ctx)
	if err != nil {
		return 0, err
	}
	return s.ratio.Ratio(ctx, price, candles)
}

// sentimentScore returns the external sentiment value, degrading to a neutral
// 50 on any failure. Sentiment is an optional modifier, not a required input;
// this is the one place errors are deliberately swallowed.
func (s *AccumulationService) sentimentScore(ctx context.Context) int {
	score, err := s.sentiment.Score(ctx)
	if err != nil {
		s.logger.Warn(ctx, "Sentiment index unavailable, using neutral value", map[string]interface{}{
			"error":   err.Error(),
			"neutral": 50,
		})
		return 50
	}
	s.logger.Info(ctx, "Sentiment index", map[string]interface{}{"value": score})
	return score
}

// calculateBuyAmount combines the trend ratio and sentiment score through the
// sizing policy.
func (s *AccumulationService) calculateBuyAmount(ctx context.Context) (strategy.Decision, error) {
	ratio, err := s.trendRatio(ctx)
	if err != nil {
		return strategy.Decision{}, err
	}
	sentiment := s.sentimentScore(ctx)

	decision := strategy.Decide(ratio, sentiment, s.sizing)
	s.logger.Info(ctx, "Sizing decision", map[string]interface{}{
		"ratio":      ratio,
		"sentiment":  sentiment,
		"multiplier": decision.Multiplier,
		"amount":     decision.Amount,
		"signal":     decision.Signal,
	})
	return decision, nil
}

// balanceMap converts the raw balance rows into asset -> available amount.
// The available amount is preferred over the total balance when both are
// present. A malformed amount defaults that asset to zero with a warning and
// never aborts parsing of the remaining assets.
func (s *AccumulationService) balanceMap(ctx context.Context) (map[string]float64, error) {
	rows, err := s.exchange.GetBalances(ctx)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]float64, len(rows))
	for _, row := range rows {
		if row.AssetName == "" {
			s.logger.Warn(ctx, "Balance row has no asset name, skipping")
			continue
		}
		amount := row.Available
		if amount == "" {
			amount = row.Balance
		}
		value, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			s.logger.Warn(ctx, "Could not parse balance, defaulting to zero", map[string]interface{}{
				"asset":  row.AssetName,
				"amount": amount,
			})
			value = 0
		}
		balances[row.AssetName] = value
	}
	s.logger.Debug(ctx, "Parsed account balances", map[string]interface{}{"assets": len(balances)})
	return balances, nil
}

// executeBuyOrder verifies the quote balance, converts the spend amount to a
// base-currency quantity and submits a market buy. All failures come back as
// a populated failure result; success and failure shapes are mutually
// exclusive and this method never returns a partially filled-in result.
func (s *AccumulationService) executeBuyOrder(ctx context.Context, amount float64) *domain.OrderResult {
	op := "executeBuyOrder"

	if amount < s.cfg.MinWeeklyAmount {
		s.logger.Info(ctx, op+": amount below minimum, skipping", map[string]interface{}{
			"amount":  amount,
			"minimum": s.cfg.MinWeeklyAmount,
		})
		return &domain.OrderResult{Reason: "amount below minimum"}
	}

	balances, err := s.balanceMap(ctx)
	if err != nil {
		s.logger.Error(ctx, err, op+": failed to fetch balances")
		return &domain.OrderResult{Reason: fmt.Sprintf("balance fetch failed: %v", err)}
	}

	quoteAsset := s.cfg.QuoteAsset()
	available := balances[quoteAsset]
	if available < amount {
		s.logger.Warn(ctx, op+": insufficient balance", map[string]interface{}{
			"asset":     quoteAsset,
			"available": available,
			"required":  amount,
		})
		return &domain.OrderResult{Reason: fmt.Sprintf("insufficient balance: %.2f %s", available, quoteAsset)}
	}

	price, err := s.currentPrice(ctx)
	if err != nil {
		s.logger.Error(ctx, err, op+": failed to get current price")
		return &domain.OrderResult{Reason: fmt.Sprintf("price fetch failed: %v", err)}
	}

	// Base quantity = spend / price, truncated to the exchange's 8 fractional
	// digits. Decimal arithmetic avoids float drift between the logged and
	// transmitted quantity.
	quantity := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(price)).
		Truncate(8)
	quantityStr := quantity.StringFixed(8)

	s.logger.Info(ctx, op+": placing market buy order", map[string]interface{}{
		"market":   s.cfg.MarketID,
		"quantity": quantityStr,
		"spend":    amount,
		"price":    price,
	})

	order, err := s.exchange.PlaceMarketBuy(ctx, s.cfg.MarketID, quantityStr)
	if err != nil {
		s.logger.Error(ctx, err, op+": order failed")
		return &domain.OrderResult{Reason: err.Error()}
	}

	s.logger.Info(ctx, op+": order placed", map[string]interface{}{
		"orderID": order.OrderID,
		"status":  order.Status,
	})

	baseAmount, _ := quantity.Float64()
	return &domain.OrderResult{
		Success:     true,
		BaseAmount:  baseAmount,
		QuoteAmount: amount,
		OrderID:     order.OrderID,
		Status:      order.Status,
		Price:       price,
	}
}

// portfolioSummary values the account at the current price.
func (s *AccumulationService) portfolioSummary(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	balances, err := s.balanceMap(ctx)
	if err != nil {
		return nil, err
	}
	price, err := s.currentPrice(ctx)
	if err != nil {
		return nil, err
	}

	baseBalance := balances[s.cfg.BaseAsset()]
	quoteBalance := balances[s.cfg.QuoteAsset()]
	baseValue := baseBalance * price

	return &domain.PortfolioSnapshot{
		BaseBalance:  baseBalance,
		BaseValue:    baseValue,
		QuoteBalance: quoteBalance,
		Total:        baseValue + quoteBalance,
		CurrentPrice: price,
	}, nil
}

// logPortfolio logs a snapshot, tolerating failures.
func (s *AccumulationService) logPortfolio(ctx context.Context, label string) {
	snapshot, err := s.portfolioSummary(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to get portfolio summary")
		return
	}
	s.logger.Info(ctx, label, map[string]interface{}{
		"baseAsset":    s.cfg.BaseAsset(),
		"baseBalance":  strconv.FormatFloat(snapshot.BaseBalance, 'f', 8, 64),
		"baseValue":    snapshot.BaseValue,
		"quoteAsset":   s.cfg.QuoteAsset(),
		"quoteBalance": snapshot.QuoteBalance,
		"total":        snapshot.Total,
	})
}
