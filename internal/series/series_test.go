package series

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daily builds n consecutive calendar days at the given prices (cycled).
func daily(start time.Time, n int, prices ...float64) Series {
	s := make(Series, n)
	for i := 0; i < n; i++ {
		s[i] = Point{Date: start.AddDate(0, 0, i), Close: prices[i%len(prices)]}
	}
	return s
}

func TestValidate(t *testing.T) {
	if err := (Series{}).Validate(); err == nil {
		t.Error("expected error for empty series")
	}

	bad := Series{{Date: day(2020, 1, 1), Close: 0}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for non-positive close")
	}

	unordered := Series{
		{Date: day(2020, 1, 2), Close: 100},
		{Date: day(2020, 1, 1), Close: 100},
	}
	if err := unordered.Validate(); err == nil {
		t.Error("expected error for out-of-order dates")
	}

	ok := daily(day(2020, 1, 1), 10, 100)
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRestrict(t *testing.T) {
	s := daily(day(2020, 1, 1), 31, 100)

	mid := s.Restrict(day(2020, 1, 10), day(2020, 1, 20))
	if len(mid) != 11 {
		t.Errorf("expected 11 points, got %d", len(mid))
	}
	if !mid.First().Date.Equal(day(2020, 1, 10)) || !mid.Last().Date.Equal(day(2020, 1, 20)) {
		t.Errorf("wrong bounds: %v ~ %v", mid.First().Date, mid.Last().Date)
	}

	// Open-ended sides
	if got := s.Restrict(time.Time{}, time.Time{}); len(got) != 31 {
		t.Errorf("unbounded restrict changed length: %d", len(got))
	}

	// Empty result
	if got := s.Restrict(day(2021, 1, 1), time.Time{}); got != nil {
		t.Errorf("expected nil for out-of-range restrict, got %d points", len(got))
	}
}

func TestResampleMonthly(t *testing.T) {
	// Three full months of daily data
	s := daily(day(2020, 1, 1), 91, 100)

	points := s.Resample(Monthly)
	if len(points) != 4 { // Jan, Feb, Mar, Apr 1st
		t.Fatalf("expected 4 investment points, got %d", len(points))
	}
	// First trading day of each month
	want := []time.Time{day(2020, 1, 1), day(2020, 2, 1), day(2020, 3, 1), day(2020, 4, 1)}
	for i, p := range points {
		if !p.Date.Equal(want[i]) {
			t.Errorf("point %d: got %v, want %v", i, p.Date, want[i])
		}
	}
}

func TestResampleSkipsGaps(t *testing.T) {
	// January and March only; February has no data and produces no point.
	s := append(daily(day(2020, 1, 1), 10, 100), daily(day(2020, 3, 5), 10, 100)...)

	points := s.Resample(Monthly)
	if len(points) != 2 {
		t.Fatalf("expected 2 investment points, got %d", len(points))
	}
	if !points[1].Date.Equal(day(2020, 3, 5)) {
		t.Errorf("expected first available day of March, got %v", points[1].Date)
	}
}

func TestResampleWeeklyQuarterly(t *testing.T) {
	s := daily(day(2020, 1, 6), 28, 100) // starts on a Monday

	if got := len(s.Resample(Weekly)); got != 4 {
		t.Errorf("expected 4 weekly points, got %d", got)
	}

	yr := daily(day(2020, 1, 1), 366, 100)
	if got := len(yr.Resample(Quarterly)); got != 5 {
		t.Errorf("expected 5 quarterly points, got %d", got)
	}
}

func TestCursorMatchesNaiveFilter(t *testing.T) {
	s := daily(day(2020, 1, 1), 120, 100, 101, 99, 102)
	cur := NewCursor(s)

	for _, q := range []time.Time{
		day(2020, 1, 1), day(2020, 1, 15), day(2020, 2, 1), day(2020, 4, 25),
	} {
		got := cur.HistoryThrough(q)

		// Naive reference: every point dated <= q.
		var want int
		for _, p := range s {
			if !p.Date.After(q) {
				want++
			}
		}
		if len(got) != want {
			t.Errorf("history through %v: got %d points, want %d", q, len(got), want)
		}
		if len(got) > 0 && got[len(got)-1].Date.After(q) {
			t.Errorf("lookahead: last history point %v is after %v", got[len(got)-1].Date, q)
		}
	}
}
