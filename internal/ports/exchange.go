package ports

import (
	"context"

	"accumbot/internal/domain"
)

// OrderResponse represents the essential details returned after placing or
// cancelling an order.
type OrderResponse struct {
	OrderID      string  // Exchange's order ID
	MarketID     string  // Market the order was placed on
	Side         string  // Order side (Bid, Ask)
	Type         string  // Order type (Market, Limit)
	Status       string  // Order status (e.g., Accepted, Fully Matched, Cancelled)
	Price        float64 // Limit price (0 for market orders)
	Amount       float64 // Base-currency amount requested
	CreationTime string  // Time the exchange accepted the order
}

// ExchangeClient defines the interface for interacting with the trading API.
// This abstraction allows decoupling the core bot logic from the concrete
// REST implementation. Implementations make a single attempt per call; any
// retry policy belongs to the caller.
type ExchangeClient interface {
	// GetTicker retrieves the last traded price for a market.
	GetTicker(ctx context.Context, marketID string) (float64, error)

	// GetCandles retrieves historical candles for a market in the order the
	// exchange returns them (newest first).
	GetCandles(ctx context.Context, marketID, timeWindow string, limit int) ([]*domain.Candle, error)

	// GetBalances retrieves all account balances with amounts as raw strings.
	GetBalances(ctx context.Context) ([]domain.AssetBalance, error)

	// ListOrders retrieves orders filtered by status ("all", "open", ...).
	ListOrders(ctx context.Context, status string) ([]domain.Order, error)

	// PlaceMarketBuy places a market buy order for the given base-currency
	// amount (decimal string, already formatted to exchange precision).
	PlaceMarketBuy(ctx context.Context, marketID, amount string) (*OrderResponse, error)

	// PlaceLimitBuy places a limit buy order at the given price.
	PlaceLimitBuy(ctx context.Context, marketID, amount, price string) (*OrderResponse, error)

	// CancelOrder cancels an existing open order by its ID.
	CancelOrder(ctx context.Context, orderID string) (*OrderResponse, error)
}

// SentimentProvider supplies an external market sentiment score in [0,100],
// lower meaning more fearful.
type SentimentProvider interface {
	Score(ctx context.Context) (int, error)
}
