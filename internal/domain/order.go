package domain

// Order is an order record as returned by the exchange order endpoints.
type Order struct {
	OrderID      string `json:"orderId"`
	MarketID     string `json:"marketId"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	CreationTime string `json:"creationTime"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
	OpenAmount   string `json:"openAmount"`
	Status       string `json:"status"`
}

// OrderResult is the outcome of one buy attempt. Success and failure are
// mutually exclusive shapes: on success the execution fields are populated and
// Reason is empty, on failure only Reason is set.
type OrderResult struct {
	Success     bool
	BaseAmount  float64 // Executed base-currency amount (e.g. BTC)
	QuoteAmount float64 // Quote-currency amount spent (e.g. AUD)
	OrderID     string
	Status      string
	Price       float64 // Price used for the quantity calculation
	Reason      string  // Failure reason, empty on success
}
