// Package entity defines the domain models for the prices feature.
package entity

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrInvalidObservation is returned by Validate for observations that must not enter a series.
var ErrInvalidObservation = errors.New("invalid price observation")

// ProductRef identifies a trackable listing: a display name (unique within a
// category) and the page the price is read from.
type ProductRef struct {
	Name      string
	SourceURL string
}

// PriceObservation is one immutable fact in a series.
type PriceObservation struct {
	Product   string    // Display name of the product
	Price     float64   // Price in euros, always > 0
	Timestamp time.Time // When the price was read (UTC, second precision)
	SourceURL string    // Page the price was extracted from
}

// Validate reports whether the observation may be stored.
func (o PriceObservation) Validate() error {
	if o.Product == "" || !(o.Price > 0) || math.IsInf(o.Price, 1) || o.Timestamp.IsZero() {
		return ErrInvalidObservation
	}
	return nil
}

// Canonical returns the observation with its timestamp in UTC truncated to the
// second, which is the precision the stores persist.
func (o PriceObservation) Canonical() PriceObservation {
	o.Timestamp = o.Timestamp.UTC().Truncate(time.Second)
	return o
}

// Key identifies an observation for deduplication.
func (o PriceObservation) Key() ObservationKey {
	return ObservationKey{Product: o.Product, Unix: o.Timestamp.Unix()}
}

// ObservationKey is the (product, timestamp) identity of an observation.
type ObservationKey struct {
	Product string
	Unix    int64
}

// PriceQuote is what a price source yields for one URL. Missing marks a page
// that was fetched successfully but carried no usable price.
type PriceQuote struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Missing   bool      `json:"missing,omitempty"`
}

// Series is a time-ordered sequence of observations for one category.
type Series []PriceObservation

// Sort orders the series ascending by timestamp, ties broken by product name.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].Timestamp.Equal(s[j].Timestamp) {
			return s[i].Timestamp.Before(s[j].Timestamp)
		}
		return s[i].Product < s[j].Product
	})
}

// Products returns the distinct product names in the series, sorted.
func (s Series) Products() []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0)
	for _, o := range s {
		if _, ok := seen[o.Product]; ok {
			continue
		}
		seen[o.Product] = struct{}{}
		out = append(out, o.Product)
	}
	sort.Strings(out)
	return out
}

// ForProduct returns the observations of a single product, in series order.
func (s Series) ForProduct(product string) Series {
	out := make(Series, 0)
	for _, o := range s {
		if o.Product == product {
			out = append(out, o)
		}
	}
	return out
}

// Merge combines existing and incoming observations. Duplicates by
// (product, timestamp) collapse to the last one written, incoming after
// existing. Invalid observations are dropped. The result is sorted.
func Merge(existing, incoming Series) Series {
	index := make(map[ObservationKey]int, len(existing)+len(incoming))
	out := make(Series, 0, len(existing)+len(incoming))
	for _, batch := range []Series{existing, incoming} {
		for _, o := range batch {
			if o.Validate() != nil {
				continue
			}
			o = o.Canonical()
			if i, ok := index[o.Key()]; ok {
				out[i] = o
				continue
			}
			index[o.Key()] = len(out)
			out = append(out, o)
		}
	}
	out.Sort()
	return out
}
