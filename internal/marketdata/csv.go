package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/wonny/gem/internal/contracts"
)

// csvRow is one line of <SYMBOL>.csv
type csvRow struct {
	Date          string `csv:"date"`
	Open          string `csv:"open"`
	High          string `csv:"high"`
	Low           string `csv:"low"`
	Close         string `csv:"close"`
	AdjustedClose string `csv:"adjusted_close"`
	Volume        string `csv:"volume"`
}

// CSVSource reads daily series from <dir>/<SYMBOL>.csv files
type CSVSource struct {
	dir string
}

// NewCSVSource creates a file-backed series source
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Path returns the file read for symbol
func (s *CSVSource) Path(symbol contracts.Instrument) string {
	return filepath.Join(s.dir, symbol.String()+".csv")
}

// FetchDailySeries implements contracts.SeriesFetcher
func (s *CSVSource) FetchDailySeries(ctx context.Context, symbol contracts.Instrument) (*contracts.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}

	f, err := os.Open(s.Path(symbol))
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: fmt.Errorf("parse %s: %w", f.Name(), err)}
	}

	records := make([]contracts.DailyRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, &contracts.FetchError{Symbol: symbol, Err: fmt.Errorf("%s line %d: %w", f.Name(), i+2, err)}
		}
		records = append(records, rec)
	}

	series, err := contracts.NewPriceSeries(symbol, records)
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}
	return series, nil
}

// WriteSeries writes a series in the format FetchDailySeries reads
func (s *CSVSource) WriteSeries(series *contracts.PriceSeries) (err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.Create(s.Path(series.Symbol()))
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", cerr)
		}
	}()

	rows := make([]*csvRow, 0, series.Len())
	for _, rec := range series.Records() {
		rows = append(rows, &csvRow{
			Date:          contracts.DateKey(rec.Date),
			Open:          rec.Open.String(),
			High:          rec.High.String(),
			Low:           rec.Low.String(),
			Close:         rec.Close.String(),
			AdjustedClose: rec.AdjustedClose.String(),
			Volume:        strconv.FormatInt(rec.Volume, 10),
		})
	}

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// StoreSeries implements contracts.SeriesStore
func (s *CSVSource) StoreSeries(ctx context.Context, series *contracts.PriceSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.WriteSeries(series)
}

func (r *csvRow) record() (contracts.DailyRecord, error) {
	date, err := contracts.ParseDate(r.Date)
	if err != nil {
		return contracts.DailyRecord{}, err
	}

	rec := contracts.DailyRecord{Date: date}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", r.Open, &rec.Open},
		{"high", r.High, &rec.High},
		{"low", r.Low, &rec.Low},
		{"close", r.Close, &rec.Close},
		{"adjusted_close", r.AdjustedClose, &rec.AdjustedClose},
	}
	for _, fld := range fields {
		v, err := decimal.NewFromString(strings.TrimSpace(fld.raw))
		if err != nil {
			return contracts.DailyRecord{}, fmt.Errorf("invalid %s %q", fld.name, fld.raw)
		}
		*fld.dst = v
	}

	if vol := strings.TrimSpace(r.Volume); vol != "" {
		n, err := strconv.ParseInt(vol, 10, 64)
		if err != nil {
			return contracts.DailyRecord{}, fmt.Errorf("invalid volume %q", r.Volume)
		}
		rec.Volume = n
	}

	return rec, nil
}
