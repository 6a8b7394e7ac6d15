package btcmarkets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"accumbot/internal/domain"
	"accumbot/internal/ports"
)

const (
	defaultBaseURL = "https://api.btcmarkets.net"
	defaultTimeout = 30 * time.Second
)

// APIError is the uniform error shape returned at the client boundary for
// HTTP-level and network-level failures. It carries the numeric status code
// (0 for network failures), the exchange's error code and message when a JSON
// error body was decoded, and the raw body bytes.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Raw        json.RawMessage
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client implements the ports.ExchangeClient interface against the BTCMarkets
// v3 REST API. Every call is a single attempt; no retries happen at this layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	logger     ports.Logger
}

// Config holds configuration specific to the exchange client adapter.
type Config struct {
	APIKey     string
	PrivateKey string // base64-encoded
	BaseURL    string
	Timeout    time.Duration
	Logger     ports.Logger
}

// New creates a new exchange client adapter. A malformed private key fails
// here, before any network call.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for exchange client")
	}
	signer, err := NewSigner(cfg.APIKey, cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrConfigurationError, err)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		signer:     signer,
		logger:     cfg.Logger,
	}, nil
}

// do issues one signed request and returns the decoded response body bytes.
// HTTP 4xx/5xx and transport failures come back as a *APIError wrapped with
// the matching ports sentinel; no panic crosses this boundary.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload interface{}) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		var err error
		// Compact JSON: the signature covers the exact bytes transmitted.
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request body: %w", op, err)
		}
	}

	headers := c.signer.Headers(method, path, body)

	fullPath := path
	if len(query) > 0 {
		fullPath = path + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+fullPath, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header = headers

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, op, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, c.httpError(ctx, op, resp.StatusCode, respBody)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"status": resp.StatusCode, "path": path})
	return respBody, nil
}

// transportError converts network-level failures (DNS, timeout, refused
// connection) into a uniform *APIError with StatusCode 0.
func (c *Client) transportError(ctx context.Context, op string, err error) error {
	apiErr := &APIError{Message: fmt.Sprintf("network error: %v", err)}

	var sentinel error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		sentinel = ports.ErrContextCanceled
	default:
		sentinel = ports.ErrConnectionFailed
	}

	c.logger.Error(ctx, err, op+" transport failure")
	return fmt.Errorf("%s failed: %w: %w", op, sentinel, apiErr)
}

// httpError decodes an HTTP error response into a *APIError carrying the
// original error payload plus the numeric status code.
func (c *Client) httpError(ctx context.Context, op string, status int, body []byte) error {
	apiErr := &APIError{
		StatusCode: status,
		Message:    http.StatusText(status),
		Raw:        append(json.RawMessage(nil), body...),
	}

	var decoded struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Code != "" {
			apiErr.Code = decoded.Code
		}
		if decoded.Message != "" {
			apiErr.Message = decoded.Message
		}
	}

	var sentinel error
	switch {
	case apiErr.Code == "InsufficientFund":
		sentinel = ports.ErrInsufficientFunds
	case apiErr.Code == "OrderNotFound":
		sentinel = ports.ErrOrderNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ports.ErrAuthenticationFailed
	case status == http.StatusNotFound:
		sentinel = ports.ErrNotFound
	case status == http.StatusTooManyRequests:
		sentinel = ports.ErrRateLimited
	case status >= 500:
		sentinel = ports.ErrExchangeUnavailable
	default:
		sentinel = ports.ErrInvalidRequest
	}

	c.logger.Error(ctx, apiErr, op+" failed with API error", map[string]interface{}{
		"status": status,
		"code":   apiErr.Code,
	})
	return fmt.Errorf("%s failed: %w: %w", op, sentinel, apiErr)
}

// GetTicker retrieves the last traded price for a market.
func (c *Client) GetTicker(ctx context.Context, marketID string) (float64, error) {
	op := "GetTicker"
	raw, err := c.do(ctx, op, http.MethodGet, "/v3/markets/"+marketID+"/ticker", nil, nil)
	if err != nil {
		return 0, err
	}

	var ticker struct {
		LastPrice string `json:"lastPrice"`
	}
	if err := json.Unmarshal(raw, &ticker); err != nil {
		return 0, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if ticker.LastPrice == "" {
		return 0, fmt.Errorf("%s: no lastPrice in ticker for %s", op, marketID)
	}
	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: could not parse price %q: %w", op, ticker.LastPrice, err)
	}
	return price, nil
}

// GetCandles retrieves historical candles for a market. The exchange returns
// them newest first and this client preserves that order.
func (c *Client) GetCandles(ctx context.Context, marketID, timeWindow string, limit int) ([]*domain.Candle, error) {
	op := "GetCandles"
	query := url.Values{}
	query.Set("timeWindow", timeWindow)
	query.Set("limit", strconv.Itoa(limit))

	raw, err := c.do(ctx, op, http.MethodGet, "/v3/markets/"+marketID+"/candles", query, nil)
	if err != nil {
		return nil, err
	}

	// Each candle is a string tuple: [timestamp, open, high, low, close, volume].
	var tuples [][]string
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	candles := make([]*domain.Candle, 0, len(tuples))
	for i, tuple := range tuples {
		if len(tuple) < 6 {
			return nil, fmt.Errorf("%s: candle %d has %d fields, want 6", op, i, len(tuple))
		}
		ts, err := time.Parse(time.RFC3339, tuple[0])
		if err != nil {
			return nil, fmt.Errorf("%s: candle %d timestamp %q: %w", op, i, tuple[0], err)
		}
		values := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			values[j-1], err = strconv.ParseFloat(tuple[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: candle %d field %d %q: %w", op, i, j, tuple[j], err)
			}
		}
		candles = append(candles, &domain.Candle{
			Timestamp: ts,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}
	return candles, nil
}

// GetBalances retrieves all account balances. Amounts are returned as the raw
// strings from the API so callers can tolerate individual malformed rows.
func (c *Client) GetBalances(ctx context.Context) ([]domain.AssetBalance, error) {
	op := "GetBalances"
	raw, err := c.do(ctx, op, http.MethodGet, "/v3/accounts/me/balances", nil, nil)
	if err != nil {
		return nil, err
	}

	var balances []domain.AssetBalance
	if err := json.Unmarshal(raw, &balances); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return balances, nil
}

// ListOrders retrieves orders filtered by status.
func (c *Client) ListOrders(ctx context.Context, status string) ([]domain.Order, error) {
	op := "ListOrders"
	var query url.Values
	if status != "" {
		query = url.Values{}
		query.Set("status", status)
	}

	raw, err := c.do(ctx, op, http.MethodGet, "/v3/orders", query, nil)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return orders, nil
}

// orderRequest is the order placement payload. Field order matters only in
// that the marshalled bytes are the bytes that get signed and transmitted.
type orderRequest struct {
	MarketID string           `json:"marketId"`
	Price    string           `json:"price,omitempty"`
	Amount   string           `json:"amount"`
	Type     domain.OrderType `json:"type"`
	Side     domain.OrderSide `json:"side"`
}

// orderResponse mirrors the exchange's order placement/cancellation response.
type orderResponse struct {
	OrderID      string `json:"orderId"`
	MarketID     string `json:"marketId"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	CreationTime string `json:"creationTime"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
}

func (r *orderResponse) toPort(op string) (*ports.OrderResponse, error) {
	out := &ports.OrderResponse{
		OrderID:      r.OrderID,
		MarketID:     r.MarketID,
		Side:         r.Side,
		Type:         r.Type,
		Status:       r.Status,
		CreationTime: r.CreationTime,
	}
	var err error
	if r.Price != "" {
		out.Price, err = strconv.ParseFloat(r.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: could not parse order price %q: %w", op, r.Price, err)
		}
	}
	if r.Amount != "" {
		out.Amount, err = strconv.ParseFloat(r.Amount, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: could not parse order amount %q: %w", op, r.Amount, err)
		}
	}
	return out, nil
}

func (c *Client) placeOrder(ctx context.Context, op string, payload orderRequest) (*ports.OrderResponse, error) {
	raw, err := c.do(ctx, op, http.MethodPost, "/v3/orders", nil, payload)
	if err != nil {
		return nil, err
	}

	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return resp.toPort(op)
}

// PlaceMarketBuy places a market buy order for the given base-currency amount.
func (c *Client) PlaceMarketBuy(ctx context.Context, marketID, amount string) (*ports.OrderResponse, error) {
	return c.placeOrder(ctx, "PlaceMarketBuy", orderRequest{
		MarketID: marketID,
		Amount:   amount,
		Type:     domain.Market,
		Side:     domain.Bid,
	})
}

// PlaceLimitBuy places a limit buy order at the given price.
func (c *Client) PlaceLimitBuy(ctx context.Context, marketID, amount, price string) (*ports.OrderResponse, error) {
	return c.placeOrder(ctx, "PlaceLimitBuy", orderRequest{
		MarketID: marketID,
		Price:    price,
		Amount:   amount,
		Type:     domain.Limit,
		Side:     domain.Bid,
	})
}

// CancelOrder cancels an existing open order by its ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*ports.OrderResponse, error) {
	op := "CancelOrder"
	query := url.Values{}
	query.Set("id", orderID)

	raw, err := c.do(ctx, op, http.MethodDelete, "/v3/orders", query, nil)
	if err != nil {
		return nil, err
	}

	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return resp.toPort(op)
}
