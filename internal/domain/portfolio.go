package domain

// PortfolioSnapshot is a point-in-time view of the account valued at the
// current price: base holdings, their quote value, free quote balance and the
// combined total.
type PortfolioSnapshot struct {
	BaseBalance  float64 // Base-asset holdings (e.g. BTC)
	BaseValue    float64 // Base holdings valued in quote currency
	QuoteBalance float64 // Free quote-currency balance (e.g. AUD)
	Total        float64 // BaseValue + QuoteBalance
	CurrentPrice float64 // Price used for the valuation
}
