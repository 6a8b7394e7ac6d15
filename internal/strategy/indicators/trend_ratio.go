package indicators

import (
	"context"
	"fmt"

	"accumbot/internal/domain"
	"accumbot/internal/ports"
)

// TrendRatio computes the current price divided by its own trailing simple
// moving average. A value above 1 means price above trend, below 1 means
// below trend.
type TrendRatio struct {
	ma            *MovingAverage
	minDataPoints int
	logger        ports.Logger
}

// TrendRatioConfig holds configuration for the trend ratio indicator.
type TrendRatioConfig struct {
	Window        int // Moving average window, e.g. 200
	MinDataPoints int // Minimum candles required, e.g. 50
}

// NewTrendRatio creates a new trend ratio indicator instance.
func NewTrendRatio(cfg TrendRatioConfig, logger ports.Logger) (*TrendRatio, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for trend ratio")
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("trend ratio window must be positive")
	}
	if cfg.MinDataPoints <= 0 || cfg.MinDataPoints > cfg.Window {
		return nil, fmt.Errorf("trend ratio minimum data points must be in (0, window]")
	}
	return &TrendRatio{
		ma:            NewMovingAverage(IndicatorConfig{Period: cfg.Window}),
		minDataPoints: cfg.MinDataPoints,
		logger:        logger,
	}, nil
}

// RequiredDataPoints returns the minimum number of candles needed for calculation.
func (t *TrendRatio) RequiredDataPoints() int {
	return t.minDataPoints
}

// Ratio computes currentPrice / SMA over the most recent min(window, count)
// closes. Candles are expected in the order the exchange feed returns them,
// newest first, and are reversed to chronological order before the average is
// taken. Fewer than the minimum data points is an error, never a silent
// computation on a short window.
func (t *TrendRatio) Ratio(ctx context.Context, currentPrice float64, newestFirst []*domain.Candle) (float64, error) {
	if currentPrice <= 0 {
		return 0, fmt.Errorf("current price must be positive, got %v", currentPrice)
	}
	if len(newestFirst) < t.minDataPoints {
		return 0, fmt.Errorf("%w: only %d candles available, need at least %d",
			ports.ErrInsufficientData, len(newestFirst), t.minDataPoints)
	}

	chronological := make([]*domain.Candle, len(newestFirst))
	for i, c := range newestFirst {
		chronological[len(newestFirst)-1-i] = c
	}

	mean, err := t.ma.Calculate(ctx, chronological)
	if err != nil {
		return 0, err
	}
	if mean <= 0 {
		return 0, fmt.Errorf("moving average is not positive (%v), cannot compute ratio", mean)
	}

	ratio := currentPrice / mean
	t.logger.Debug(ctx, "Computed trend ratio", map[string]interface{}{
		"currentPrice": currentPrice,
		"movingAvg":    mean,
		"ratio":        ratio,
		"candles":      len(newestFirst),
	})
	return ratio, nil
}
