package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dcabench/internal/series"
)

// PGProvider reads daily prices from a Postgres table. Rows come back
// date-sorted from the query itself.
type PGProvider struct {
	pool *pgxpool.Pool
}

func NewPGProvider(pool *pgxpool.Pool) *PGProvider {
	return &PGProvider{pool: pool}
}

func (p *PGProvider) Fetch(ctx context.Context, symbol string, from, to time.Time) (series.Series, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE symbol = $1
		  AND ($2::date IS NULL OR trade_date >= $2)
		  AND ($3::date IS NULL OR trade_date <= $3)
		ORDER BY trade_date ASC
	`

	rows, err := p.pool.Query(ctx, query, symbol, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var s series.Series
	for rows.Next() {
		var pt series.Point
		if err := rows.Scan(&pt.Date, &pt.Open, &pt.High, &pt.Low, &pt.Close, &pt.Volume); err != nil {
			return nil, err
		}
		s = append(s, pt)
	}
	return s, rows.Err()
}

func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
