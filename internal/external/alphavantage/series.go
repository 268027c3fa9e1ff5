package alphavantage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
)

// Field keys of a "Time Series (Daily)" entry
const (
	keyOpen          = "1. open"
	keyHigh          = "2. high"
	keyLow           = "3. low"
	keyClose         = "4. close"
	keyAdjustedClose = "5. adjusted close"
	keyVolume        = "6. volume"
)

var errEmptySeries = errors.New("response has no daily time series")

// dailyAdjustedResponse is the provider payload; errors arrive as 200 OK too
type dailyAdjustedResponse struct {
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
}

// parseDailyAdjusted decodes a TIME_SERIES_DAILY_ADJUSTED body
func parseDailyAdjusted(body []byte) ([]contracts.DailyRecord, error) {
	var payload dailyAdjustedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch {
	case payload.ErrorMessage != "":
		return nil, fmt.Errorf("provider error: %s", payload.ErrorMessage)
	case payload.Note != "":
		return nil, fmt.Errorf("provider throttled: %s", payload.Note)
	case len(payload.TimeSeries) == 0 && payload.Information != "":
		return nil, fmt.Errorf("provider refused: %s", payload.Information)
	case len(payload.TimeSeries) == 0:
		return nil, errEmptySeries
	}

	records := make([]contracts.DailyRecord, 0, len(payload.TimeSeries))
	for dateStr, entry := range payload.TimeSeries {
		rec, err := parseEntry(dateStr, entry)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseEntry(dateStr string, entry map[string]string) (contracts.DailyRecord, error) {
	date, err := contracts.ParseDate(dateStr)
	if err != nil {
		return contracts.DailyRecord{}, err
	}

	rec := contracts.DailyRecord{Date: date}
	prices := []struct {
		key string
		dst *decimal.Decimal
	}{
		{keyOpen, &rec.Open},
		{keyHigh, &rec.High},
		{keyLow, &rec.Low},
		{keyClose, &rec.Close},
		{keyAdjustedClose, &rec.AdjustedClose},
	}
	for _, p := range prices {
		raw, ok := entry[p.key]
		if !ok {
			return contracts.DailyRecord{}, fmt.Errorf("%s: missing %q", dateStr, p.key)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return contracts.DailyRecord{}, fmt.Errorf("%s: invalid %q value %q: %w", dateStr, p.key, raw, err)
		}
		*p.dst = v
	}

	if raw, ok := entry[keyVolume]; ok {
		vol, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return contracts.DailyRecord{}, fmt.Errorf("%s: invalid volume %q: %w", dateStr, raw, err)
		}
		rec.Volume = vol
	}

	return rec, nil
}
