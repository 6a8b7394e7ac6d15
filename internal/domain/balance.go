package domain

// AssetBalance is one row of the account balances response, kept as the raw
// string amounts the API returns. Parsing to numbers happens at the caller so
// that a single malformed row can be tolerated without failing the whole fetch.
type AssetBalance struct {
	AssetName string `json:"assetName"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
}
