package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accumbot/config"
	"accumbot/internal/domain"
	"accumbot/internal/ports"
	"accumbot/internal/strategy/indicators"
)

// Mock implementations

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type marketBuyCall struct {
	marketID string
	amount   string
}

type mockExchange struct {
	tickerPrice  float64
	tickerErr    error
	candles      []*domain.Candle
	candlesErr   error
	balances     []domain.AssetBalance
	balancesErr  error
	marketBuyErr error
	marketBuyRes *ports.OrderResponse

	marketBuyCalls []marketBuyCall
}

func (m *mockExchange) GetTicker(ctx context.Context, marketID string) (float64, error) {
	return m.tickerPrice, m.tickerErr
}

func (m *mockExchange) GetCandles(ctx context.Context, marketID, timeWindow string, limit int) ([]*domain.Candle, error) {
	return m.candles, m.candlesErr
}

func (m *mockExchange) GetBalances(ctx context.Context) ([]domain.AssetBalance, error) {
	return m.balances, m.balancesErr
}

func (m *mockExchange) ListOrders(ctx context.Context, status string) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockExchange) PlaceMarketBuy(ctx context.Context, marketID, amount string) (*ports.OrderResponse, error) {
	m.marketBuyCalls = append(m.marketBuyCalls, marketBuyCall{marketID: marketID, amount: amount})
	if m.marketBuyErr != nil {
		return nil, m.marketBuyErr
	}
	if m.marketBuyRes != nil {
		return m.marketBuyRes, nil
	}
	return &ports.OrderResponse{OrderID: "1", Status: "Accepted"}, nil
}

func (m *mockExchange) PlaceLimitBuy(ctx context.Context, marketID, amount, price string) (*ports.OrderResponse, error) {
	return &ports.OrderResponse{OrderID: "2", Status: "Placed"}, nil
}

func (m *mockExchange) CancelOrder(ctx context.Context, orderID string) (*ports.OrderResponse, error) {
	return &ports.OrderResponse{OrderID: orderID, Status: "Cancelled"}, nil
}

type mockSentiment struct {
	score int
	err   error
}

func (m *mockSentiment) Score(ctx context.Context) (int, error) {
	return m.score, m.err
}

// Helpers

func testConfig() *config.Config {
	return &config.Config{
		MarketID:         "BTC-AUD",
		BaseWeeklyAmount: 500,
		MinWeeklyAmount:  100,
		MaxWeeklyAmount:  2000,
		TrendWindow:      200,
		MinDataPoints:    50,
	}
}

// flatCandles returns n candles, newest first, all closing at the given price.
func flatCandles(n int, close float64) []*domain.Candle {
	now := time.Now()
	candles := make([]*domain.Candle, n)
	for i := range candles {
		candles[i] = &domain.Candle{
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
			Close:     close,
		}
	}
	return candles
}

func newTestService(t *testing.T, exchange *mockExchange, sentiment *mockSentiment) (*AccumulationService, *mockLogger) {
	t.Helper()
	cfg := testConfig()
	log := &mockLogger{}

	ratio, err := indicators.NewTrendRatio(indicators.TrendRatioConfig{
		Window:        cfg.TrendWindow,
		MinDataPoints: cfg.MinDataPoints,
	}, log)
	require.NoError(t, err)

	svc, err := NewAccumulationService(cfg, log, exchange, sentiment, ratio)
	require.NoError(t, err)
	return svc, log
}

func TestNewAccumulationService_MissingDependencies(t *testing.T) {
	cfg := testConfig()
	log := &mockLogger{}
	exchange := &mockExchange{}
	sentiment := &mockSentiment{}
	ratio, err := indicators.NewTrendRatio(indicators.TrendRatioConfig{Window: 200, MinDataPoints: 50}, log)
	require.NoError(t, err)

	_, err = NewAccumulationService(nil, log, exchange, sentiment, ratio)
	assert.Error(t, err)
	_, err = NewAccumulationService(cfg, nil, exchange, sentiment, ratio)
	assert.Error(t, err)
	_, err = NewAccumulationService(cfg, log, nil, sentiment, ratio)
	assert.Error(t, err)
	_, err = NewAccumulationService(cfg, log, exchange, nil, ratio)
	assert.Error(t, err)
	_, err = NewAccumulationService(cfg, log, exchange, sentiment, nil)
	assert.Error(t, err)
}

func TestNewAccumulationService_InvalidBand(t *testing.T) {
	cfg := testConfig()
	cfg.MinWeeklyAmount = 3000 // above max
	log := &mockLogger{}
	ratio, err := indicators.NewTrendRatio(indicators.TrendRatioConfig{Window: 200, MinDataPoints: 50}, log)
	require.NoError(t, err)

	_, err = NewAccumulationService(cfg, log, &mockExchange{}, &mockSentiment{}, ratio)
	assert.Error(t, err)
}

func TestRun_TickerFailureIsFatal(t *testing.T) {
	exchange := &mockExchange{
		tickerErr: errors.New("boom"),
		balances:  []domain.AssetBalance{{AssetName: "AUD", Available: "1000"}},
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection test failed")
	assert.Empty(t, exchange.marketBuyCalls, "no order may be attempted after a failed probe")
}

func TestRun_BalanceProbeFailureIsFatal(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		candles:     flatCandles(60, 100),
		balancesErr: errors.New("auth failed"),
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection test failed")
	assert.Empty(t, exchange.marketBuyCalls)
}

func TestRun_FairValuePurchase(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		candles:     flatCandles(60, 100), // ratio 1.0 -> fair value, 1.0x base
		balances: []domain.AssetBalance{
			{AssetName: "BTC", Available: "0.5"},
			{AssetName: "AUD", Available: "1000"},
		},
		marketBuyRes: &ports.OrderResponse{OrderID: "4126657", Status: "Accepted"},
	}
	svc, log := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, exchange.marketBuyCalls, 1)
	assert.Equal(t, "BTC-AUD", exchange.marketBuyCalls[0].marketID)
	// 500 AUD at price 100, truncated to 8 fractional digits.
	assert.Equal(t, "5.00000000", exchange.marketBuyCalls[0].amount)
	assert.Contains(t, log.infoMsgs, "Purchase successful")
}

func TestRun_BubbleDecisionSkipsOrder(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		candles:     flatCandles(60, 40), // ratio 2.5 -> extreme bubble, 0x
		balances:    []domain.AssetBalance{{AssetName: "AUD", Available: "100000"}},
	}
	svc, log := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.NoError(t, err, "a zero decision is a normal, non-error outcome")
	assert.Empty(t, exchange.marketBuyCalls)
	assert.Contains(t, log.infoMsgs, "No purchase this cycle")
}

func TestRun_InsufficientBalanceIsHandled(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		candles:     flatCandles(60, 100), // decision: 500
		balances:    []domain.AssetBalance{{AssetName: "AUD", Available: "100"}},
	}
	svc, log := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.NoError(t, err, "insufficient balance aborts the cycle only, not the process")
	assert.Empty(t, exchange.marketBuyCalls)
	assert.Contains(t, log.errorMsgs, "Purchase failed")
}

func TestRun_RejectedOrderIsHandled(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice:  100,
		candles:      flatCandles(60, 100),
		balances:     []domain.AssetBalance{{AssetName: "AUD", Available: "1000"}},
		marketBuyErr: errors.New("InsufficientFund: order rejected"),
	}
	svc, log := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.NoError(t, err, "an order rejection is a reported outcome, not a fatal error")
	require.Len(t, exchange.marketBuyCalls, 1)
	assert.Contains(t, log.errorMsgs, "Purchase failed")
}

func TestRun_InsufficientCandleDataIsFatal(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		candles:     flatCandles(20, 100), // below the 50-point floor
		balances:    []domain.AssetBalance{{AssetName: "AUD", Available: "1000"}},
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{score: 50})

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInsufficientData)
	assert.Empty(t, exchange.marketBuyCalls)
}

func TestSentimentScore_DegradesToNeutral(t *testing.T) {
	exchange := &mockExchange{tickerPrice: 100, candles: flatCandles(60, 100)}
	svc, log := newTestService(t, exchange, &mockSentiment{err: errors.New("timeout")})

	score := svc.sentimentScore(context.Background())
	assert.Equal(t, 50, score)
	assert.Contains(t, log.warnMsgs, "Sentiment index unavailable, using neutral value")
}

func TestRun_SentimentFailureStillBuys(t *testing.T) {
	// Price 75 over a 100 average: extreme oversold (3.0x) once sentiment
	// degrades to the neutral 50; a fear reading would have picked a tighter rule.
	exchange := &mockExchange{
		tickerPrice: 75,
		candles:     flatCandles(60, 100),
		balances:    []domain.AssetBalance{{AssetName: "AUD", Available: "5000"}},
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{err: errors.New("unreachable")})

	err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, exchange.marketBuyCalls, 1)
	// 3.0 x 500 = 1500 AUD at price 75 -> 20 BTC.
	assert.Equal(t, "20.00000000", exchange.marketBuyCalls[0].amount)
}

func TestBalanceMap_ToleratesMalformedRows(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		balances: []domain.AssetBalance{
			{AssetName: "BTC", Balance: "1.2", Available: "1.0"},
			{AssetName: "AUD", Available: "not-a-number"},
			{AssetName: "ETH", Balance: "2.5"}, // no available, falls back to balance
			{AssetName: "", Available: "9"},    // skipped
		},
	}
	svc, log := newTestService(t, exchange, &mockSentiment{score: 50})

	balances, err := svc.balanceMap(context.Background())
	require.NoError(t, err, "one malformed row must not abort the whole fetch")

	assert.Equal(t, 1.0, balances["BTC"], "available preferred over balance")
	assert.Equal(t, 0.0, balances["AUD"], "malformed amount defaults to zero")
	assert.Equal(t, 2.5, balances["ETH"])
	assert.Len(t, balances, 3)
	assert.Contains(t, log.warnMsgs, "Could not parse balance, defaulting to zero")
}

func TestExecuteBuyOrder_BelowMinimum(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		balances:    []domain.AssetBalance{{AssetName: "AUD", Available: "1000"}},
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{score: 50})

	result := svc.executeBuyOrder(context.Background(), 50)
	assert.False(t, result.Success)
	assert.Equal(t, "amount below minimum", result.Reason)
	assert.Empty(t, exchange.marketBuyCalls)
}

func TestExecuteBuyOrder_SuccessShape(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice:  100,
		balances:     []domain.AssetBalance{{AssetName: "AUD", Available: "1000"}},
		marketBuyRes: &ports.OrderResponse{OrderID: "77", Status: "Accepted"},
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{score: 50})

	result := svc.executeBuyOrder(context.Background(), 500)
	require.True(t, result.Success)
	assert.Empty(t, result.Reason)
	assert.Equal(t, "77", result.OrderID)
	assert.Equal(t, "Accepted", result.Status)
	assert.Equal(t, 5.0, result.BaseAmount)
	assert.Equal(t, 500.0, result.QuoteAmount)
	assert.Equal(t, 100.0, result.Price)
}

func TestPortfolioSummary(t *testing.T) {
	exchange := &mockExchange{
		tickerPrice: 100,
		balances: []domain.AssetBalance{
			{AssetName: "BTC", Available: "0.5"},
			{AssetName: "AUD", Available: "300"},
		},
	}
	svc, _ := newTestService(t, exchange, &mockSentiment{score: 50})

	snapshot, err := svc.portfolioSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.5, snapshot.BaseBalance)
	assert.Equal(t, 50.0, snapshot.BaseValue)
	assert.Equal(t, 300.0, snapshot.QuoteBalance)
	assert.Equal(t, 350.0, snapshot.Total)
	assert.Equal(t, 100.0, snapshot.CurrentPrice)
}
