package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	drepo "github.com/FrankPreci/capitol-shill/internal/domain/repository"
	"github.com/FrankPreci/capitol-shill/internal/eventstudy"
	"github.com/FrankPreci/capitol-shill/internal/symbols"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/util"
)

const tradingDaysPerYear = 252

// Config holds optimizer settings.
type Config struct {
	HistoryDays    int
	RiskFreeRate   float64
	MaxMissingFrac float64
}

func (c Config) withDefaults() Config {
	if c.HistoryDays <= 0 {
		c.HistoryDays = 730
	}
	if c.MaxMissingFrac <= 0 {
		c.MaxMissingFrac = 0.2
	}
	return c
}

// Optimizer builds a max-Sharpe portfolio over a set of tickers from their
// daily return history.
type Optimizer struct {
	prices  drepo.PriceSource
	norm    *symbols.Normalizer
	cfg     Config
	log     *logger.Logger
	metrics drepo.Metrics
}

func New(prices drepo.PriceSource, norm *symbols.Normalizer, cfg Config, log *logger.Logger, metrics drepo.Metrics) *Optimizer {
	return &Optimizer{prices: prices, norm: norm, cfg: cfg.withDefaults(), log: log, metrics: metrics}
}

// Optimize fetches history for the tickers and returns tangency-portfolio
// weights with annualized performance. It returns nil when fewer than two
// tickers survive normalization and the sparsity filter.
func (o *Optimizer) Optimize(ctx context.Context, tickers []string) (*models.PortfolioReport, error) {
	started := time.Now()
	defer func() {
		o.metrics.RecordLatency("optimize_portfolio", time.Since(started).Seconds())
	}()

	seen := make(map[string]struct{}, len(tickers))
	syms := make([]string, 0, len(tickers))
	for _, t := range tickers {
		sym, ok := o.norm.Normalize(t)
		if !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		syms = append(syms, sym)
	}
	if len(syms) < 2 {
		return nil, nil
	}

	end := util.Day(time.Now())
	start := util.AddDays(end, -o.cfg.HistoryDays)
	prices, err := o.prices.Fetch(ctx, syms, start, util.AddDays(end, 1))
	if err != nil {
		o.metrics.RecordError("provider")
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	names, matrix := returnMatrix(syms, prices, o.cfg.MaxMissingFrac)
	if len(names) < 2 || len(matrix) < len(names)+2 {
		o.log.Debug("not enough joint history for optimization",
			logger.Int("tickers", len(names)),
			logger.Int("rows", len(matrix)))
		return nil, nil
	}

	mu := meanVector(matrix)
	cov := covMatrix(matrix, mu)

	dailyRf := o.cfg.RiskFreeRate / tradingDaysPerYear
	excess := make([]float64, len(mu))
	for i, m := range mu {
		excess[i] = m - dailyRf
	}

	raw, ok := solveLinear(cov, excess)
	if !ok {
		o.log.Debug("singular covariance, falling back to equal weights",
			logger.Int("tickers", len(names)))
		raw = make([]float64, len(names))
		for i := range raw {
			raw[i] = 1
		}
	}
	weights := cleanWeights(raw)

	report := &models.PortfolioReport{Weights: make(map[string]float64, len(names))}
	for i, name := range names {
		report.Weights[name] = weights[i]
	}

	var ret, variance float64
	for i := range weights {
		ret += weights[i] * mu[i]
		for j := range weights {
			variance += weights[i] * weights[j] * cov[i][j]
		}
	}
	report.ExpectedReturn = ret * tradingDaysPerYear
	report.Volatility = math.Sqrt(variance * tradingDaysPerYear)
	if report.Volatility > 0 {
		report.SharpeRatio = (report.ExpectedReturn - o.cfg.RiskFreeRate) / report.Volatility
	}
	return report, nil
}

// returnMatrix converts per-symbol price series into a joint daily return
// matrix over their common dates. Symbols missing more than maxMissing of
// the observed dates are dropped before intersecting.
func returnMatrix(syms []string, prices map[string]models.PriceSeries, maxMissing float64) ([]string, [][]float64) {
	type returnsByDate map[time.Time]float64

	perSym := make(map[string]returnsByDate, len(syms))
	allDates := make(map[time.Time]struct{})
	for _, sym := range syms {
		rets := eventstudy.ToReturns(prices[sym])
		if len(rets) == 0 {
			continue
		}
		byDate := make(returnsByDate, len(rets))
		for _, r := range rets {
			byDate[r.Date] = r.Return
			allDates[r.Date] = struct{}{}
		}
		perSym[sym] = byDate
	}
	if len(allDates) == 0 {
		return nil, nil
	}

	kept := make([]string, 0, len(syms))
	for _, sym := range syms {
		byDate, ok := perSym[sym]
		if !ok {
			continue
		}
		missing := len(allDates) - len(byDate)
		if float64(missing) > maxMissing*float64(len(allDates)) {
			continue
		}
		kept = append(kept, sym)
	}
	if len(kept) < 2 {
		return kept, nil
	}

	dates := make([]time.Time, 0, len(allDates))
	for d := range allDates {
		shared := true
		for _, sym := range kept {
			if _, ok := perSym[sym][d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	matrix := make([][]float64, len(dates))
	for i, d := range dates {
		row := make([]float64, len(kept))
		for j, sym := range kept {
			row[j] = perSym[sym][d]
		}
		matrix[i] = row
	}
	return kept, matrix
}

func meanVector(matrix [][]float64) []float64 {
	if len(matrix) == 0 {
		return nil
	}
	mu := make([]float64, len(matrix[0]))
	for _, row := range matrix {
		for j, v := range row {
			mu[j] += v
		}
	}
	for j := range mu {
		mu[j] /= float64(len(matrix))
	}
	return mu
}

// covMatrix is the sample covariance with the n-1 denominator.
func covMatrix(matrix [][]float64, mu []float64) [][]float64 {
	n := len(matrix)
	k := len(mu)
	cov := make([][]float64, k)
	for i := range cov {
		cov[i] = make([]float64, k)
	}
	if n < 2 {
		return cov
	}
	for _, row := range matrix {
		for i := 0; i < k; i++ {
			di := row[i] - mu[i]
			for j := i; j < k; j++ {
				cov[i][j] += di * (row[j] - mu[j])
			}
		}
	}
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			cov[i][j] /= float64(n - 1)
			cov[j][i] = cov[i][j]
		}
	}
	return cov
}

// solveLinear solves Ax = b by Gaussian elimination with partial pivoting.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x, true
}

// cleanWeights clips short positions to zero and renormalizes to sum to one,
// rounding away float noise.
func cleanWeights(raw []float64) []float64 {
	out := make([]float64, len(raw))
	var total float64
	for i, w := range raw {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		out[i] = w
		total += w
	}
	if total <= 0 {
		// Everything was shorted out; fall back to equal weights.
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] = math.Round(out[i]/total*1e5) / 1e5
	}
	return out
}
