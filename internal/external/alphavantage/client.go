package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/httputil"
	"github.com/wonny/gem/pkg/logger"
)

const dailyAdjustedFunction = "TIME_SERIES_DAILY_ADJUSTED"

// Client fetches daily adjusted price histories from Alpha Vantage
// ⭐ SSOT: Alpha Vantage API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new Alpha Vantage client
func NewClient(httpClient *httputil.Client, baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("alphavantage"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// FetchDailySeries fetches the full daily adjusted history of symbol.
// Any failure is returned as *contracts.FetchError.
func (c *Client) FetchDailySeries(ctx context.Context, symbol contracts.Instrument) (*contracts.PriceSeries, error) {
	body, err := c.query(ctx, symbol)
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}

	records, err := parseDailyAdjusted(body)
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}

	series, err := contracts.NewPriceSeries(symbol, records)
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"count":    series.Len(),
		"earliest": contracts.DateKey(series.Earliest()),
		"latest":   contracts.DateKey(series.Latest()),
	}).Debug("Fetched daily series")

	return series, nil
}

func (c *Client) query(ctx context.Context, symbol contracts.Instrument) ([]byte, error) {
	params := url.Values{}
	params.Set("function", dailyAdjustedFunction)
	params.Set("symbol", symbol.String())
	params.Set("outputsize", "full")
	params.Set("apikey", c.apiKey)

	fullURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	return c.httpClient.GetBytes(ctx, fullURL)
}
