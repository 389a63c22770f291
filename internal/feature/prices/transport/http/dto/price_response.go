// Package dto holds the JSON shapes of the prices API.
package dto

import (
	"maps"
	"slices"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/domain/metrics"
)

// dateLayout is the timestamp format of every response.
const dateLayout = time.RFC3339

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProductResponse is one catalog entry.
type ProductResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CategoryResponse lists the products of a category.
type CategoryResponse struct {
	Name     string            `json:"name"`
	Products []ProductResponse `json:"products"`
}

// ObservationResponse is one stored price point.
type ObservationResponse struct {
	Product string  `json:"product"`
	Price   float64 `json:"price"`
	Date    string  `json:"date"`
	URL     string  `json:"url,omitempty"`
}

// SeriesResponse is a category's series plus its time range.
type SeriesResponse struct {
	Category     string                `json:"category"`
	Days         int                   `json:"days,omitempty"`
	First        *string               `json:"first"`
	Last         *string               `json:"last"`
	Observations []ObservationResponse `json:"observations"`
}

// RangeResponse is the time span a category's series covers. First and Last
// are null while nothing is stored.
type RangeResponse struct {
	Category string  `json:"category"`
	First    *string `json:"first"`
	Last     *string `json:"last"`
}

// ChangeResponse is the movement of one product. Delta and Percent are null
// when the change is undefined.
type ChangeResponse struct {
	Product string   `json:"product"`
	Current *float64 `json:"current"`
	Past    *float64 `json:"past"`
	Delta   *float64 `json:"delta"`
	Percent *float64 `json:"percent"`
}

// StatsResponse summarizes one product.
type StatsResponse struct {
	Product string  `json:"product"`
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
}

// AlarmResponse lists the products at or below the threshold.
type AlarmResponse struct {
	Category  string                `json:"category"`
	Threshold float64               `json:"threshold"`
	Triggered bool                  `json:"triggered"`
	Notified  bool                  `json:"notified"`
	Matches   []ObservationResponse `json:"matches"`
	Lines     []string              `json:"lines"`
}

// NewCategory converts one catalog category.
func NewCategory(name string, refs []entity.ProductRef) CategoryResponse {
	ps := make([]ProductResponse, 0, len(refs))
	for _, r := range refs {
		ps = append(ps, ProductResponse{Name: r.Name, URL: r.SourceURL})
	}
	return CategoryResponse{Name: name, Products: ps}
}

// NewObservations converts a series.
func NewObservations(series entity.Series) []ObservationResponse {
	out := make([]ObservationResponse, 0, len(series))
	for _, o := range series {
		out = append(out, ObservationResponse{
			Product: o.Product,
			Price:   o.Price,
			Date:    o.Timestamp.UTC().Format(dateLayout),
			URL:     o.SourceURL,
		})
	}
	return out
}

// NewSeries builds a SeriesResponse; first and last stay null for an empty series.
func NewSeries(category string, days int, series entity.Series) SeriesResponse {
	resp := SeriesResponse{Category: category, Days: days, Observations: NewObservations(series)}
	if first, last, ok := metrics.TimeRange(series); ok {
		f, l := first.UTC().Format(dateLayout), last.UTC().Format(dateLayout)
		resp.First, resp.Last = &f, &l
	}
	return resp
}

// NewRange builds a RangeResponse.
func NewRange(category string, first, last time.Time, ok bool) RangeResponse {
	resp := RangeResponse{Category: category}
	if ok {
		f, l := first.UTC().Format(dateLayout), last.UTC().Format(dateLayout)
		resp.First, resp.Last = &f, &l
	}
	return resp
}

// NewChange converts one product change.
func NewChange(product string, c metrics.Change, ok bool) ChangeResponse {
	resp := ChangeResponse{Product: product}
	if !ok {
		return resp
	}
	resp.Current = &c.Current
	resp.Past = &c.Past
	resp.Delta = &c.Delta
	resp.Percent = &c.Percent
	return resp
}

// NewStats converts per-product statistics, ordered by product.
func NewStats(stats map[string]metrics.Stats) []StatsResponse {
	out := make([]StatsResponse, 0, len(stats))
	for _, p := range slices.Sorted(maps.Keys(stats)) {
		s := stats[p]
		out = append(out, StatsResponse{
			Product: p,
			Count:   s.Count,
			Min:     s.Min,
			Max:     s.Max,
			Mean:    s.Mean,
			StdDev:  s.StdDev,
		})
	}
	return out
}
