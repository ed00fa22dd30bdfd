// Package robustness stress-tests a strategy by re-running the same
// backtest across many starting conditions: curated historical start
// dates, randomized windows, sliding windows, and independent markets.
package robustness

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dcabench/internal/backtest"
	"dcabench/internal/metrics"
	"dcabench/internal/series"
	"dcabench/internal/strategy"
	"dcabench/pkg/logger"
)

// Progress receives (completed, total) after each unit of work
// finishes, success or not. Completed counts are monotonically
// non-decreasing and reach total exactly once.
type Progress func(completed, total int)

func (p Progress) report(completed, total int) {
	if p != nil {
		p(completed, total)
	}
}

// ErrNoSimulations says every sampled simulation failed, so there is
// nothing to aggregate.
var ErrNoSimulations = errors.New("no successful simulations")

// DefaultStartDates are historically meaningful entry points: the
// 2005 bull run, the 2008 crisis top, the 2009 bottom, and the 2015
// and 2020 regimes including the COVID drawdown.
var DefaultStartDates = []time.Time{
	time.Date(2005, 12, 23, 0, 0, 0, 0, time.UTC),
	time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2009, 3, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
}

// Analyzer orchestrates robustness runs around a backtest engine.
type Analyzer struct {
	engine *backtest.Engine
	log    *logger.Logger
}

func NewAnalyzer(engine *backtest.Engine, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{engine: engine, log: log}
}

// StartPointRow is one fixed-start-date outcome. Err marks a failed
// run; successful rows carry the headline metrics.
type StartPointRow struct {
	StartDate   time.Time
	TotalReturn float64
	CAGR        float64
	MaxDrawdown float64
	SharpeRatio float64
	Years       float64
	Err         error
}

// FixedStartPoints runs the strategy once per start date through the
// common option end date. Failed dates get an error row, never abort
// the batch.
func (a *Analyzer) FixedStartPoints(strat strategy.Strategy, data series.Series, startDates []time.Time, opts backtest.Options, progress Progress) []StartPointRow {
	if len(startDates) == 0 {
		startDates = DefaultStartDates
	}

	rows := make([]StartPointRow, 0, len(startDates))
	for i, start := range startDates {
		runOpts := opts
		runOpts.StartDate = start

		row := StartPointRow{StartDate: start}
		res, err := a.engine.Run(strat, data, runOpts)
		if err != nil {
			a.log.WithError(err).WithField("start", start.Format("2006-01-02")).
				Warn("fixed start point failed")
			row.Err = err
		} else {
			row.TotalReturn = res.Metrics.TotalReturn
			row.CAGR = res.Metrics.CAGR
			row.MaxDrawdown = res.Metrics.MaxDrawdown
			row.SharpeRatio = res.Metrics.SharpeRatio
			row.Years = res.Metrics.InvestmentYears
		}
		rows = append(rows, row)
		progress.report(i+1, len(startDates))
	}
	return rows
}

// MCOptions configures a Monte Carlo batch.
type MCOptions struct {
	Simulations int
	MinYears    float64
	MaxYears    float64
	Workers     int
	Seed        int64 // 0 seeds from the clock

	Frequency      series.Frequency
	BaseInvestment float64
}

func DefaultMCOptions() MCOptions {
	return MCOptions{
		Simulations:    300,
		MinYears:       3,
		MaxYears:       20,
		Workers:        4,
		Frequency:      series.Monthly,
		BaseInvestment: 1000,
	}
}

// MCRun is one completed random-window simulation.
type MCRun struct {
	ID            uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	DurationYears float64
	TotalReturn   float64
	CAGR          float64
	MaxDrawdown   float64
	SharpeRatio   float64
}

// MCStats aggregates the completed simulations.
type MCStats struct {
	Simulations int

	ReturnMean   float64
	ReturnMedian float64
	ReturnStd    float64
	ReturnMin    float64
	ReturnMax    float64
	ReturnP5     float64
	ReturnP95    float64

	CAGRMean   float64
	CAGRMedian float64
	CAGRStd    float64

	SharpeMean   float64
	SharpeMedian float64

	DrawdownMean  float64
	DrawdownWorst float64

	// WinRate is the share of simulations that ended positive, in
	// percent.
	WinRate float64

	Runs []MCRun
}

type mcWindow struct {
	start time.Time
	end   time.Time
}

// MonteCarlo samples random (start, duration) windows within the data
// span and runs the strategy over each on a bounded worker pool. Each
// worker builds its own strategy instance from cfg, so stateful
// variants never share running state across simulations.
//
// Windows whose remaining data cannot fit the minimum duration are
// discarded during sampling, so fewer than Simulations units may run.
// If no simulation succeeds the aggregate is ErrNoSimulations.
func (a *Analyzer) MonteCarlo(cfg strategy.Config, data series.Series, opts MCOptions, progress Progress) (*MCStats, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	dataStart := data.First().Date
	dataEnd := data.Last().Date
	minDays := int(opts.MinYears * 365)
	maxDays := int(opts.MaxYears * 365)

	latestStart := dataEnd.AddDate(0, 0, -minDays)
	daysRange := int(latestStart.Sub(dataStart).Hours() / 24)
	if daysRange < 0 {
		return nil, ErrNoSimulations
	}

	windows := make([]mcWindow, 0, opts.Simulations)
	for i := 0; i < opts.Simulations; i++ {
		start := dataStart.AddDate(0, 0, rng.Intn(daysRange+1))

		maxPossible := int(dataEnd.Sub(start).Hours() / 24)
		if maxPossible > maxDays {
			maxPossible = maxDays
		}
		if maxPossible < minDays {
			continue
		}
		duration := minDays + rng.Intn(maxPossible-minDays+1)
		windows = append(windows, mcWindow{start: start, end: start.AddDate(0, 0, duration)})
	}
	total := len(windows)
	if total == 0 {
		return nil, ErrNoSimulations
	}

	a.log.WithFields(map[string]interface{}{
		"simulations": total,
		"workers":     opts.Workers,
		"seed":        seed,
	}).Info("starting monte carlo batch")

	jobs := make(chan mcWindow, total)
	results := make(chan *MCRun, total)

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for win := range jobs {
				results <- a.runWindow(cfg, data, win, opts)
			}
		}()
	}

	for _, win := range windows {
		jobs <- win
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Draining from a single goroutine keeps the progress counter
	// monotonic no matter which worker finishes first.
	var runs []MCRun
	completed := 0
	for run := range results {
		completed++
		if run != nil {
			runs = append(runs, *run)
		}
		progress.report(completed, total)
	}

	if len(runs) == 0 {
		return nil, ErrNoSimulations
	}
	return aggregate(runs), nil
}

// runWindow executes one simulation, returning nil when the window
// fails. A fresh strategy instance keeps runs independent.
func (a *Analyzer) runWindow(cfg strategy.Config, data series.Series, win mcWindow, opts MCOptions) *MCRun {
	strat, err := cfg.New()
	if err != nil {
		return nil
	}

	res, err := a.engine.Run(strat, data, backtest.Options{
		Frequency:      opts.Frequency,
		BaseInvestment: opts.BaseInvestment,
		StartDate:      win.start,
		EndDate:        win.end,
	})
	if err != nil {
		return nil
	}

	return &MCRun{
		ID:            uuid.New(),
		StartDate:     res.StartDate,
		EndDate:       res.EndDate,
		DurationYears: res.Metrics.InvestmentYears,
		TotalReturn:   res.Metrics.TotalReturn,
		CAGR:          res.Metrics.CAGR,
		MaxDrawdown:   res.Metrics.MaxDrawdown,
		SharpeRatio:   res.Metrics.SharpeRatio,
	}
}

func aggregate(runs []MCRun) *MCStats {
	returns := make([]float64, len(runs))
	cagrs := make([]float64, len(runs))
	sharpes := make([]float64, len(runs))
	drawdowns := make([]float64, len(runs))

	positive := 0
	worstDD := runs[0].MaxDrawdown
	minRet, maxRet := runs[0].TotalReturn, runs[0].TotalReturn
	for i, r := range runs {
		returns[i] = r.TotalReturn
		cagrs[i] = r.CAGR
		sharpes[i] = r.SharpeRatio
		drawdowns[i] = r.MaxDrawdown
		if r.TotalReturn > 0 {
			positive++
		}
		if r.MaxDrawdown > worstDD {
			worstDD = r.MaxDrawdown
		}
		if r.TotalReturn < minRet {
			minRet = r.TotalReturn
		}
		if r.TotalReturn > maxRet {
			maxRet = r.TotalReturn
		}
	}

	return &MCStats{
		Simulations:   len(runs),
		ReturnMean:    metrics.Mean(returns),
		ReturnMedian:  metrics.Median(returns),
		ReturnStd:     metrics.SampleStdDev(returns),
		ReturnMin:     minRet,
		ReturnMax:     maxRet,
		ReturnP5:      metrics.Percentile(returns, 5),
		ReturnP95:     metrics.Percentile(returns, 95),
		CAGRMean:      metrics.Mean(cagrs),
		CAGRMedian:    metrics.Median(cagrs),
		CAGRStd:       metrics.SampleStdDev(cagrs),
		SharpeMean:    metrics.Mean(sharpes),
		SharpeMedian:  metrics.Median(sharpes),
		DrawdownMean:  metrics.Mean(drawdowns),
		DrawdownWorst: worstDD,
		WinRate:       float64(positive) / float64(len(runs)) * 100,
		Runs:          runs,
	}
}

// WindowOptions configures a sliding-window pass.
type WindowOptions struct {
	WindowYears float64
	StepMonths  int

	Frequency      series.Frequency
	BaseInvestment float64
}

func DefaultWindowOptions() WindowOptions {
	return WindowOptions{
		WindowYears:    3,
		StepMonths:     1,
		Frequency:      series.Monthly,
		BaseInvestment: 1000,
	}
}

// WindowRow is one sliding window's outcome.
type WindowRow struct {
	Start       time.Time
	End         time.Time
	TotalReturn float64
	CAGR        float64
	MaxDrawdown float64
	SharpeRatio float64
}

// SlidingWindow runs the strategy over fixed-length windows stepped
// across the data span. A month step advances 30 calendar days.
// Windows that fail are skipped silently; progress still counts them.
func (a *Analyzer) SlidingWindow(strat strategy.Strategy, data series.Series, opts WindowOptions, progress Progress) ([]WindowRow, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	windowDays := int(opts.WindowYears * 365)
	stepDays := opts.StepMonths * 30
	if stepDays < 1 {
		stepDays = 30
	}

	dataEnd := data.Last().Date
	var windows []mcWindow
	for cur := data.First().Date; !cur.AddDate(0, 0, windowDays).After(dataEnd); cur = cur.AddDate(0, 0, stepDays) {
		windows = append(windows, mcWindow{start: cur, end: cur.AddDate(0, 0, windowDays)})
	}

	var rows []WindowRow
	for i, win := range windows {
		res, err := a.engine.Run(strat, data, backtest.Options{
			Frequency:      opts.Frequency,
			BaseInvestment: opts.BaseInvestment,
			StartDate:      win.start,
			EndDate:        win.end,
		})
		if err == nil {
			rows = append(rows, WindowRow{
				Start:       win.start,
				End:         win.end,
				TotalReturn: res.Metrics.TotalReturn,
				CAGR:        res.Metrics.CAGR,
				MaxDrawdown: res.Metrics.MaxDrawdown,
				SharpeRatio: res.Metrics.SharpeRatio,
			})
		}
		progress.report(i+1, len(windows))
	}
	return rows, nil
}

// MarketRow is one market's outcome in a cross-market pass.
type MarketRow struct {
	Market       string
	TotalReturn  float64
	CAGR         float64
	MaxDrawdown  float64
	SharpeRatio  float64
	SortinoRatio float64
	Periods      int
	Err          error
}

// CrossMarket runs the strategy over each supplied market series,
// in sorted symbol order for reproducible output. Failures stay in
// their own row.
func (a *Analyzer) CrossMarket(strat strategy.Strategy, markets map[string]series.Series, opts backtest.Options, progress Progress) []MarketRow {
	symbols := make([]string, 0, len(markets))
	for sym := range markets {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	rows := make([]MarketRow, 0, len(symbols))
	for i, sym := range symbols {
		runOpts := opts
		runOpts.Symbol = sym

		row := MarketRow{Market: sym}
		res, err := a.engine.Run(strat, markets[sym], runOpts)
		if err != nil {
			a.log.WithError(err).WithField("market", sym).Warn("cross-market run failed")
			row.Err = err
		} else {
			row.TotalReturn = res.Metrics.TotalReturn
			row.CAGR = res.Metrics.CAGR
			row.MaxDrawdown = res.Metrics.MaxDrawdown
			row.SharpeRatio = res.Metrics.SharpeRatio
			row.SortinoRatio = res.Metrics.SortinoRatio
			row.Periods = len(res.Ledger)
		}
		rows = append(rows, row)
		progress.report(i+1, len(symbols))
	}
	return rows
}
