package domain

// OrderSide represents the side of an order as the exchange encodes it.
type OrderSide string

const (
	Bid OrderSide = "Bid" // Buy
	Ask OrderSide = "Ask" // Sell
)

// OrderType represents the order type accepted by the exchange.
type OrderType string

const (
	Market OrderType = "Market"
	Limit  OrderType = "Limit"
)
