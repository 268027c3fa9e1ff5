package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/gem/internal/contracts"
	"github.com/wonny/gem/pkg/database"
)

// Migrations creates and evolves the price table; apply with database.DB.Migrate
var Migrations = []database.Migration{
	{
		Version: 1,
		Name:    "create market.daily_prices",
		SQL: `
			CREATE SCHEMA IF NOT EXISTS market;
			CREATE TABLE IF NOT EXISTS market.daily_prices (
				symbol         TEXT    NOT NULL,
				trade_date     DATE    NOT NULL,
				open_price     NUMERIC NOT NULL,
				high_price     NUMERIC NOT NULL,
				low_price      NUMERIC NOT NULL,
				close_price    NUMERIC NOT NULL,
				adjusted_close NUMERIC NOT NULL,
				volume         BIGINT  NOT NULL DEFAULT 0,
				PRIMARY KEY (symbol, trade_date)
			)`,
	},
	{
		Version: 2,
		Name:    "track daily_prices refresh time",
		SQL: `
			ALTER TABLE market.daily_prices
				ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT now()`,
	},
}

// SeriesRepository stores fetched daily bars in PostgreSQL.
// Only raw provider data lives here, never computed signals.
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type SeriesRepository struct {
	pool *pgxpool.Pool
}

// NewSeriesRepository creates a new series repository
func NewSeriesRepository(pool *pgxpool.Pool) *SeriesRepository {
	return &SeriesRepository{pool: pool}
}

// Save upserts every record of the series in one batch
func (r *SeriesRepository) Save(ctx context.Context, series *contracts.PriceSeries) (int, error) {
	query := `
		INSERT INTO market.daily_prices
			(symbol, trade_date, open_price, high_price, low_price, close_price, adjusted_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			adjusted_close = EXCLUDED.adjusted_close,
			volume = EXCLUDED.volume,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, rec := range series.Records() {
		batch.Queue(query,
			series.Symbol().String(), rec.Date,
			rec.Open, rec.High, rec.Low,
			rec.Close, rec.AdjustedClose, rec.Volume,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return i, fmt.Errorf("upsert %s: %w", series.Symbol(), err)
		}
	}

	return batch.Len(), nil
}

// StoreSeries implements contracts.SeriesStore
func (r *SeriesRepository) StoreSeries(ctx context.Context, series *contracts.PriceSeries) error {
	_, err := r.Save(ctx, series)
	return err
}

// FetchDailySeries loads the stored history of symbol (contracts.SeriesFetcher)
func (r *SeriesRepository) FetchDailySeries(ctx context.Context, symbol contracts.Instrument) (*contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, open_price::text, high_price::text, low_price::text,
		       close_price::text, adjusted_close::text, volume
		FROM market.daily_prices
		WHERE symbol = $1
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol.String())
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}
	defer rows.Close()

	var records []contracts.DailyRecord
	for rows.Next() {
		var row csvRow
		var rec contracts.DailyRecord
		var volume int64
		if err := rows.Scan(&rec.Date, &row.Open, &row.High, &row.Low, &row.Close, &row.AdjustedClose, &volume); err != nil {
			return nil, &contracts.FetchError{Symbol: symbol, Err: err}
		}
		row.Date = contracts.DateKey(rec.Date)
		parsed, err := row.record()
		if err != nil {
			return nil, &contracts.FetchError{Symbol: symbol, Err: err}
		}
		parsed.Volume = volume
		records = append(records, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}

	series, err := contracts.NewPriceSeries(symbol, records)
	if err != nil {
		return nil, &contracts.FetchError{Symbol: symbol, Err: err}
	}
	return series, nil
}
