package series

import (
	"fmt"
	"sort"
	"time"
)

// Point is a single trading day. Close is the only field the simulation
// reads; the remaining OHLCV columns are carried for providers that have
// them and ignored otherwise.
type Point struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a date-ascending sequence of price points.
type Series []Point

// Frequency selects the investment period for resampling.
type Frequency string

const (
	Weekly    Frequency = "W"
	Monthly   Frequency = "M"
	Quarterly Frequency = "Q"
)

// ParseFrequency converts a frequency flag value into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "W", "w", "weekly":
		return Weekly, nil
	case "M", "m", "monthly", "":
		return Monthly, nil
	case "Q", "q", "quarterly":
		return Quarterly, nil
	}
	return "", fmt.Errorf("unknown frequency %q (want W, M or Q)", s)
}

// Validate checks the series invariants: non-empty, strictly positive
// closes, dates ascending.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("price series is empty")
	}
	for i, p := range s {
		if p.Close <= 0 {
			return fmt.Errorf("non-positive close %.4f at %s", p.Close, p.Date.Format("2006-01-02"))
		}
		if i > 0 && p.Date.Before(s[i-1].Date) {
			return fmt.Errorf("dates out of order at %s", p.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Sort orders the series by date ascending. Providers call this once
// after loading; the core assumes sorted input.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Restrict returns the sub-series within the inclusive [from, to] bounds.
// A zero time leaves that side unbounded.
func (s Series) Restrict(from, to time.Time) Series {
	lo := 0
	if !from.IsZero() {
		lo = sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(from) })
	}
	hi := len(s)
	if !to.IsZero() {
		hi = sort.Search(len(s), func(i int) bool { return s[i].Date.After(to) })
	}
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}

// First returns the earliest point.
func (s Series) First() Point { return s[0] }

// Last returns the latest point.
func (s Series) Last() Point { return s[len(s)-1] }

// Closes returns the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Resample picks the investment points for the given frequency: the
// first trading point of each calendar period present in the data.
// Periods are anchored to the period start (ISO week Monday, first of
// month, first of quarter); periods with no data are dropped.
func (s Series) Resample(freq Frequency) Series {
	var out Series
	var lastKey int
	for i, p := range s {
		key := periodKey(p.Date, freq)
		if i == 0 || key != lastKey {
			out = append(out, p)
			lastKey = key
		}
	}
	return out
}

func periodKey(d time.Time, freq Frequency) int {
	switch freq {
	case Weekly:
		year, week := d.ISOWeek()
		return year*100 + week
	case Quarterly:
		return d.Year()*10 + (int(d.Month())-1)/3
	default: // Monthly
		return d.Year()*100 + int(d.Month())
	}
}

// Cursor walks a sorted series forward, exposing the history visible at
// each investment date without rescanning from the start. Dates must be
// queried in ascending order.
type Cursor struct {
	s   Series
	idx int
}

// NewCursor creates a cursor over s.
func NewCursor(s Series) *Cursor {
	return &Cursor{s: s}
}

// HistoryThrough advances the cursor and returns every point dated at or
// before date. The returned slice is a view into the underlying series.
func (c *Cursor) HistoryThrough(date time.Time) Series {
	for c.idx < len(c.s) && !c.s[c.idx].Date.After(date) {
		c.idx++
	}
	return c.s[:c.idx]
}
