package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/service/cache"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordStudy(string)             {}
func (nopMetrics) RecordCAR(float64)              {}
func (nopMetrics) RecordProviderRequest(string)   {}
func (nopMetrics) RecordCacheLookup(string, bool) {}
func (nopMetrics) RecordResultSent(string)        {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

const chartJSON = `{
	"chart": {
		"result": [{
			"timestamp": [1741564800, 1741651200, 1741737600, 1741824000],
			"indicators": {
				"adjclose": [{"adjclose": [100.5, null, 102.25, 103.0]}],
				"quote": [{"close": [100.5, 101.0, 102.25, 103.0]}]
			}
		}],
		"error": null
	}
}`

const notFoundJSON = `{
	"chart": {
		"result": null,
		"error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
	}
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		BaseURL:       srv.URL,
		CacheTTL:      time.Minute,
		RateCapacity:  1000,
		RatePerSecond: 1000,
	}, cache.NewTTLCache(64), testLogger(t), nopMetrics{})
}

func fetchRange() (time.Time, time.Time) {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 30)
}

func TestFetchParsesChartAndSkipsNullBars(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("User-Agent = %q", got)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %q", r.URL.Query().Get("interval"))
		}
		fmt.Fprint(w, chartJSON)
	}))

	start, end := fetchRange()
	out, err := c.Fetch(context.Background(), []string{"AAPL"}, start, end)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	series := out["AAPL"]
	if len(series) != 3 {
		t.Fatalf("got %d bars, want 3 (null bar skipped)", len(series))
	}
	if series[0].AdjClose != 100.5 || series[2].AdjClose != 103.0 {
		t.Fatalf("unexpected closes: %+v", series)
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Date.Before(series[i].Date) {
			t.Fatalf("series out of order at %d: %+v", i, series)
		}
	}
	d := series[0].Date
	if d.Hour() != 0 || d.Location() != time.UTC {
		t.Fatalf("dates not truncated to UTC midnight: %v", d)
	}
}

func TestFetchUnknownSymbolYieldsEmptySeries(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, notFoundJSON)
	}))

	start, end := fetchRange()
	out, err := c.Fetch(context.Background(), []string{"ZZZFAKE"}, start, end)
	if err != nil {
		t.Fatalf("unresolvable symbols must not fail the call: %v", err)
	}
	if len(out["ZZZFAKE"]) != 0 {
		t.Fatalf("got %d bars for unknown symbol", len(out["ZZZFAKE"]))
	}
}

func TestFetchServerErrorFailsCall(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	start, end := fetchRange()
	if _, err := c.Fetch(context.Background(), []string{"AAPL"}, start, end); err == nil {
		t.Fatal("expected transport-level failure to surface")
	}
}

func TestFetchUsesPayloadCache(t *testing.T) {
	var hits int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		fmt.Fprint(w, chartJSON)
	}))

	start, end := fetchRange()
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), []string{"AAPL"}, start, end); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("provider hit %d times, want 1", got)
	}
}

func TestLookupParsesQuoteSummary(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("modules") != "price,assetProfile" {
			t.Errorf("modules = %q", r.URL.Query().Get("modules"))
		}
		fmt.Fprint(w, `{
			"quoteSummary": {
				"result": [{
					"price": {"shortName": "Apple Inc.", "marketCap": {"raw": 3000000000000}},
					"assetProfile": {"sector": "Technology", "industry": "Consumer Electronics"}
				}],
				"error": null
			}
		}`)
	}))

	info, err := c.Lookup(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info.Name != "Apple Inc." || info.Sector != "Technology" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.MarketCap != 3e12 {
		t.Fatalf("market cap = %v", info.MarketCap)
	}
}

func TestLookupPartialModulesFallBackToUnknown(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteSummary": {"result": [{"price": {"shortName": "Some ETF"}}], "error": null}}`)
	}))

	info, err := c.Lookup(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info.Name != "Some ETF" {
		t.Fatalf("name = %q", info.Name)
	}
	if info.Sector != "Unknown" || info.Industry != "Unknown" {
		t.Fatalf("missing profile should keep Unknown slots: %+v", info)
	}
}
