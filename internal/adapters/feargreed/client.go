package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"accumbot/internal/ports"
)

const (
	defaultURL     = "https://api.alternative.me/fng/"
	defaultTimeout = 10 * time.Second
)

// Client fetches the Fear & Greed index, a 0-100 sentiment scalar where lower
// means more fearful. It implements ports.SentimentProvider.
type Client struct {
	url        string
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds configuration specific to the sentiment client adapter.
type Config struct {
	URL     string
	Timeout time.Duration
	Logger  ports.Logger
}

// New creates a new sentiment client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for sentiment client")
	}
	u := cfg.URL
	if u == "" {
		u = defaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// Score fetches the current index value. Callers treat sentiment as an
// optional input and substitute a neutral value on error.
func (c *Client) Score(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build sentiment request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch sentiment index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sentiment index returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			Value string `json:"value"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode sentiment payload: %w", err)
	}
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("sentiment payload has no data entries")
	}

	value, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		return 0, fmt.Errorf("could not parse sentiment value %q: %w", payload.Data[0].Value, err)
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("sentiment value %d outside [0,100]", value)
	}

	c.logger.Debug(ctx, "Fetched sentiment index", map[string]interface{}{"value": value})
	return value, nil
}
