package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dcabench/internal/backtest"
	"dcabench/internal/marketdata"
	"dcabench/internal/series"
	"dcabench/pkg/config"
	"dcabench/pkg/logger"
)

// env bundles the pieces every subcommand needs.
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *backtest.Engine
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	return &env{
		cfg:    cfg,
		log:    log,
		engine: backtest.NewEngine(cfg.RiskFreeRate, log),
	}, nil
}

// provider selects Postgres when a database URL is configured and
// falls back to CSV files in the data directory otherwise.
func (e *env) provider(ctx context.Context) (marketdata.Provider, func(), error) {
	if e.cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, e.cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		return marketdata.NewPGProvider(pool), pool.Close, nil
	}
	return marketdata.NewCSVProvider(e.cfg.DataDir), func() {}, nil
}

func (e *env) fetchSeries(ctx context.Context, symbol string) (series.Series, error) {
	provider, cleanup, err := e.provider(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	from, to, err := dateRange()
	if err != nil {
		return nil, err
	}
	data, err := provider.Fetch(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return data, nil
}

func runOptions() (backtest.Options, error) {
	freq, err := series.ParseFrequency(flagFrequency)
	if err != nil {
		return backtest.Options{}, err
	}
	from, to, err := dateRange()
	if err != nil {
		return backtest.Options{}, err
	}
	return backtest.Options{
		Symbol:         flagSymbol,
		Frequency:      freq,
		BaseInvestment: flagAmount,
		StartDate:      from,
		EndDate:        to,
	}, nil
}

func dateRange() (time.Time, time.Time, error) {
	from, err := parseDateFlag(flagFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	to, err := parseDateFlag(flagTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	return from, to, nil
}

func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", raw)
	}
	return t.UTC(), nil
}

// parseParams turns "lookback_period=126,ma_type=EMA" into a typed
// parameter map. Values parse as int, then float, then stay strings.
func parseParams(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	params := map[string]interface{}{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		params[strings.TrimSpace(key)] = parseValue(strings.TrimSpace(value))
	}
	return params, nil
}

func parseValue(raw string) interface{} {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// parseValueList splits a comma-separated sweep axis into typed values.
func parseValueList(raw string) ([]interface{}, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty value list")
	}
	parts := strings.Split(raw, ",")
	values := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		values = append(values, parseValue(strings.TrimSpace(p)))
	}
	return values, nil
}

// progressPrinter writes an in-place counter to stderr.
func progressPrinter(label string) func(done, total int) {
	return func(done, total int) {
		fmt.Printf("\r%s: %d/%d", label, done, total)
		if done == total {
			fmt.Println()
		}
	}
}
