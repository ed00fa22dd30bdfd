// Package marketdata supplies price series to the simulation from CSV
// files or a Postgres price table. Providers return date-sorted series
// with forward-filled gaps handled at the source; the simulation only
// requires a positive close per point.
package marketdata

import (
	"context"
	"time"

	"dcabench/internal/series"
)

// Provider fetches a price series for one symbol over a date range.
// Zero time bounds mean unbounded on that side.
type Provider interface {
	Fetch(ctx context.Context, symbol string, from, to time.Time) (series.Series, error)
}
