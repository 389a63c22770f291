// Package metrics derives price trends and summary statistics from a series.
// All functions are pure: the reference time is passed in explicitly.
package metrics

import (
	"math"
	"sort"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

// Change is the price movement of a product over a lookback window.
type Change struct {
	Current float64 // Latest price in the full series
	Past    float64 // Earliest price inside the window
	Delta   float64 // Current - Past
	Percent float64 // 100 * Delta / Past
}

// Stats summarizes the observations of one product.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64 // Sample standard deviation; 0 for a single observation
	Count  int
}

// windowStart returns the inclusive lower bound of a window of days ending at now.
func windowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// FilterByWindow keeps the observations with timestamp >= now - days.
// Filtering an already filtered series with the same arguments changes nothing.
func FilterByWindow(series entity.Series, days int, now time.Time) entity.Series {
	start := windowStart(now, days)
	out := make(entity.Series, 0, len(series))
	for _, o := range series {
		if !o.Timestamp.Before(start) {
			out = append(out, o)
		}
	}
	return out
}

// PriceChange compares the latest price of product with the earliest price
// inside the window. ok is false when the window holds fewer than two points
// for the product, or when the past price is zero.
func PriceChange(series entity.Series, product string, days int, now time.Time) (Change, bool) {
	points := series.ForProduct(product)
	if len(points) == 0 {
		return Change{}, false
	}
	points.Sort()
	current := points[len(points)-1].Price

	window := FilterByWindow(points, days, now)
	if len(window) < 2 {
		return Change{}, false
	}
	past := window[0].Price
	if past == 0 {
		return Change{}, false
	}

	delta := current - past
	percent := 100 * delta / past
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return Change{}, false
	}
	return Change{Current: current, Past: past, Delta: delta, Percent: percent}, true
}

// SummaryStats groups the series by product and computes min, max, mean,
// sample standard deviation and count for each.
func SummaryStats(series entity.Series) map[string]Stats {
	grouped := make(map[string][]float64)
	for _, o := range series {
		grouped[o.Product] = append(grouped[o.Product], o.Price)
	}

	out := make(map[string]Stats, len(grouped))
	for product, prices := range grouped {
		out[product] = describe(prices)
	}
	return out
}

func describe(prices []float64) Stats {
	st := Stats{Min: prices[0], Max: prices[0], Count: len(prices)}
	var sum float64
	for _, p := range prices {
		sum += p
		st.Min = math.Min(st.Min, p)
		st.Max = math.Max(st.Max, p)
	}
	st.Mean = sum / float64(st.Count)
	if st.Count < 2 {
		return st
	}
	var sq float64
	for _, p := range prices {
		d := p - st.Mean
		sq += d * d
	}
	st.StdDev = math.Sqrt(sq / float64(st.Count-1))
	return st
}

// LatestPerProduct returns the most recent observation of each product,
// sorted by product name.
func LatestPerProduct(series entity.Series) entity.Series {
	latest := make(map[string]entity.PriceObservation)
	for _, o := range series {
		cur, ok := latest[o.Product]
		if !ok || !o.Timestamp.Before(cur.Timestamp) {
			latest[o.Product] = o
		}
	}
	out := make(entity.Series, 0, len(latest))
	for _, o := range latest {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product < out[j].Product })
	return out
}

// AlarmMatches returns every observation priced at or below threshold.
// Callers usually pass LatestPerProduct(series) to alarm on current prices only.
func AlarmMatches(series entity.Series, threshold float64) entity.Series {
	out := make(entity.Series, 0)
	for _, o := range series {
		if o.Price <= threshold {
			out = append(out, o)
		}
	}
	return out
}

// TimeRange returns the earliest and latest timestamps in the series.
// ok is false for an empty series.
func TimeRange(series entity.Series) (first, last time.Time, ok bool) {
	if len(series) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = series[0].Timestamp, series[0].Timestamp
	for _, o := range series[1:] {
		if o.Timestamp.Before(first) {
			first = o.Timestamp
		}
		if o.Timestamp.After(last) {
			last = o.Timestamp
		}
	}
	return first, last, true
}
