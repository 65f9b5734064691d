package eventstudy

import (
	"math"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
)

// ReturnPoint is one day-over-day simple return.
type ReturnPoint struct {
	Date   time.Time
	Return float64
}

// ReturnSeries is an ordered-by-date sequence of simple returns.
type ReturnSeries []ReturnPoint

// Window is a closed calendar-date interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window, bounds included.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// ToReturns converts a price series into day-over-day fractional changes.
// The first entry has no defined return and is dropped, as is any entry
// whose own or previous price is not a usable positive number. Gaps are
// never bridged by filling.
func ToReturns(prices models.PriceSeries) ReturnSeries {
	if len(prices) < 2 {
		return nil
	}
	out := make(ReturnSeries, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1].AdjClose, prices[i].AdjClose
		if !usablePrice(prev) || !usablePrice(cur) {
			continue
		}
		out = append(out, ReturnPoint{Date: prices[i].Date, Return: cur/prev - 1})
	}
	return out
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// alignInWindow walks two date-sorted return series in lockstep and collects
// the observations for dates present in both and inside the window. Returned
// slices are index-paired.
func alignInWindow(a, b ReturnSeries, w Window) (x, y []float64) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Date.Before(b[j].Date):
			i++
		case b[j].Date.Before(a[i].Date):
			j++
		default:
			if w.Contains(a[i].Date) {
				x = append(x, a[i].Return)
				y = append(y, b[j].Return)
			}
			i++
			j++
		}
	}
	return x, y
}

// overlapCount counts dates present in both series regardless of window.
func overlapCount(a, b ReturnSeries) int {
	n := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Date.Before(b[j].Date):
			i++
		case b[j].Date.Before(a[i].Date):
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}
