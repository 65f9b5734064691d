package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	drepo "github.com/FrankPreci/capitol-shill/internal/domain/repository"
	"github.com/FrankPreci/capitol-shill/internal/service/cache"
	"github.com/FrankPreci/capitol-shill/internal/service/ratelimit"
	xhttp "github.com/FrankPreci/capitol-shill/pkg/http"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/util"
)

const (
	chartPath   = "/v8/finance/chart/"
	summaryPath = "/v10/finance/quoteSummary/"
	rateKey     = "yahoo"

	// The public endpoints reject requests without a browser user agent.
	userAgent = "Mozilla/5.0"
)

// errSymbolNotFound marks a symbol the provider cannot resolve. Callers
// get an empty series for it instead of a failed call.
var errSymbolNotFound = errors.New("yahoo: symbol not found")

// Config holds provider client settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	CacheTTL      time.Duration
	RateCapacity  float64
	RatePerSecond float64
}

// Client implements a PriceSource and MetadataSource backed by the Yahoo
// Finance public API.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	cache   cache.BytesCache
	log     *logger.Logger
	metrics drepo.Metrics
}

// New creates a Yahoo Finance client.
func New(cfg Config, payloads cache.BytesCache, log *logger.Logger, metrics drepo.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 5
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: ratelimit.New(),
		cache:   payloads,
		log:     log,
		metrics: metrics,
	}
}

// Fetch returns per-symbol adjusted-close series over [start, end).
// Unresolvable symbols yield empty series; only transport-level failures
// error the whole call.
func (c *Client) Fetch(ctx context.Context, syms []string, start, end time.Time) (map[string]models.PriceSeries, error) {
	out := make(map[string]models.PriceSeries, len(syms))
	for _, sym := range syms {
		if _, done := out[sym]; done {
			continue
		}
		series, err := c.chart(ctx, sym, start, end)
		if err != nil {
			if errors.Is(err, errSymbolNotFound) {
				c.log.Debug("symbol not resolvable", logger.String("symbol", sym))
				out[sym] = nil
				continue
			}
			return nil, fmt.Errorf("chart %s: %w", sym, err)
		}
		out[sym] = series
	}
	return out, nil
}

// chartResponse mirrors the v8 chart payload, adjusted closes included.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) chart(ctx context.Context, symbol string, start, end time.Time) (models.PriceSeries, error) {
	cacheKey := fmt.Sprintf("chart:%s:%d:%d", symbol, start.Unix(), end.Unix())
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(cacheKey); err == nil && ok {
			c.metrics.RecordCacheLookup("chart", true)
			var series models.PriceSeries
			if err := json.Unmarshal(b, &series); err == nil {
				return series, nil
			}
		} else {
			c.metrics.RecordCacheLookup("chart", false)
		}
	}

	if err := c.limiter.Wait(ctx, rateKey, c.cfg.RateCapacity, c.cfg.RatePerSecond); err != nil {
		return nil, err
	}
	c.metrics.RecordProviderRequest("chart")

	body, err := c.get(ctx, c.cfg.BaseURL+chartPath+url.PathEscape(symbol), map[string][]string{
		"interval":             {"1d"},
		"period1":              {strconv.FormatInt(start.Unix(), 10)},
		"period2":              {strconv.FormatInt(end.Unix(), 10)},
		"events":               {"div,splits"},
		"includeAdjustedClose": {"true"},
	})
	if err != nil {
		return nil, err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		// The API reports unknown symbols in-band.
		return nil, fmt.Errorf("%w: %s", errSymbolNotFound, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, errSymbolNotFound
	}

	result := chart.Chart.Result[0]
	closes := pickCloses(result.Indicators.Adjclose, result.Indicators.Quote)
	series := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue // null bars on holidays and halts
		}
		series = append(series, models.PricePoint{
			Date:     util.Day(time.Unix(ts, 0)),
			AdjClose: *closes[i],
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if b, err := json.Marshal(series); err == nil {
			_ = c.cache.SetBytes(cacheKey, b, c.cfg.CacheTTL)
		}
	}
	return series, nil
}

// pickCloses prefers the adjusted close track and falls back to raw close.
func pickCloses(adj []struct {
	Adjclose []*float64 `json:"adjclose"`
}, quote []struct {
	Close []*float64 `json:"close"`
}) []*float64 {
	if len(adj) > 0 && len(adj[0].Adjclose) > 0 {
		return adj[0].Adjclose
	}
	if len(quote) > 0 {
		return quote[0].Close
	}
	return nil
}

// get performs a GET and returns the body, translating 404s into the
// not-found sentinel.
func (c *Client) get(ctx context.Context, rawURL string, query map[string][]string) ([]byte, error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         rawURL,
		Headers:     map[string]string{"User-Agent": userAgent},
		QueryParams: query,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return body, nil // in-band error payload, parsed by the caller
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
