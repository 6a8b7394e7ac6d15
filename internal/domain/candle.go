package domain

import "time"

// Candle represents a single OHLCV data point for a fixed time window.
// The exchange feed returns candles newest-first; consumers that need
// chronological order must reverse before computing moving statistics.
type Candle struct {
	Timestamp time.Time // Start time of the window
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
}
