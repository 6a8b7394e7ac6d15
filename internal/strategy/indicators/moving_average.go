package indicators

import (
	"context"
	"fmt"

	"accumbot/internal/domain"
)

// MovingAverage implements a simple (unweighted) moving average over closing
// prices. Candles must already be in chronological order.
type MovingAverage struct {
	BaseIndicator
}

// NewMovingAverage creates a new moving average indicator instance
func NewMovingAverage(config IndicatorConfig) *MovingAverage {
	return &MovingAverage{
		BaseIndicator: BaseIndicator{Config: config},
	}
}

// Name returns the name of the indicator
func (m *MovingAverage) Name() string {
	return "SMA"
}

// Calculate computes the simple moving average of the most recent
// min(period, available) closes.
func (m *MovingAverage) Calculate(ctx context.Context, candles []*domain.Candle) (float64, error) {
	if len(candles) == 0 {
		return 0, fmt.Errorf("no data to calculate SMA for period %d", m.Config.Period)
	}

	window := m.Config.Period
	if len(candles) < window {
		window = len(candles)
	}

	total := 0.0
	for i := len(candles) - window; i < len(candles); i++ {
		total += candles[i].Close
	}
	return total / float64(window), nil
}
