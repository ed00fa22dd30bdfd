package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dcabench/internal/series"
)

// CSVProvider reads <symbol>.csv files from a directory. Files need a
// header row with at least Date and Close columns; Open, High, Low,
// and Volume are picked up when present.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Fetch(ctx context.Context, symbol string, from, to time.Time) (series.Series, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("%s: missing Date column", path)
	}
	closeCol, ok := cols["close"]
	if !ok {
		return nil, fmt.Errorf("%s: missing Close column", path)
	}

	var s series.Series
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err != nil {
			break
		}

		date, err := parseDate(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		closePrice, err := strconv.ParseFloat(record[closeCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad close %q on %s", path, record[closeCol], record[dateCol])
		}

		pt := series.Point{Date: date, Close: closePrice}
		pt.Open = optionalFloat(record, cols, "open")
		pt.High = optionalFloat(record, cols, "high")
		pt.Low = optionalFloat(record, cols, "low")
		pt.Volume = optionalFloat(record, cols, "volume")
		s = append(s, pt)
	}

	s.Sort()
	return s.Restrict(from, to), nil
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func optionalFloat(record []string, cols map[string]int, name string) float64 {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return 0
	}
	v, err := strconv.ParseFloat(record[i], 64)
	if err != nil {
		return 0
	}
	return v
}
