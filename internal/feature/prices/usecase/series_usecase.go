package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/domain/metrics"
)

// DefaultWindowDays is the lookback used when a query does not name one.
const DefaultWindowDays = 30

// CategoryInfo lists the products tracked under a category.
type CategoryInfo struct {
	Name     string
	Products []entity.ProductRef
}

// ProductChange is the price movement of one product. OK is false when the
// change is undefined (fewer than two points in the window, or a zero past price).
type ProductChange struct {
	Product string
	Change  metrics.Change
	OK      bool
}

// SeriesUsecase answers read queries over the stored series.
type SeriesUsecase struct {
	store   ObservationStore
	catalog entity.Catalog
	clock   func() time.Time
}

// NewSeriesUsecase creates a SeriesUsecase. A nil clock means time.Now.
func NewSeriesUsecase(store ObservationStore, catalog entity.Catalog, clock func() time.Time) *SeriesUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &SeriesUsecase{store: store, catalog: catalog, clock: clock}
}

// Categories returns the catalog categories with their products.
func (su *SeriesUsecase) Categories() []CategoryInfo {
	names := su.catalog.Categories()
	out := make([]CategoryInfo, 0, len(names))
	for _, name := range names {
		refs, _ := su.catalog.Products(name)
		out = append(out, CategoryInfo{Name: name, Products: refs})
	}
	return out
}

// Series returns the stored series of category, restricted to the last days
// when days > 0.
func (su *SeriesUsecase) Series(ctx context.Context, category string, days int) (entity.Series, error) {
	series, err := su.load(ctx, category)
	if err != nil {
		return nil, err
	}
	if days > 0 {
		series = metrics.FilterByWindow(series, days, su.clock())
	}
	return series, nil
}

// Latest returns the latest observation of every product.
func (su *SeriesUsecase) Latest(ctx context.Context, category string) (entity.Series, error) {
	series, err := su.load(ctx, category)
	if err != nil {
		return nil, err
	}
	return metrics.LatestPerProduct(series), nil
}

// Changes returns the price change of every product over the last days.
func (su *SeriesUsecase) Changes(ctx context.Context, category string, days int) ([]ProductChange, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	series, err := su.load(ctx, category)
	if err != nil {
		return nil, err
	}

	now := su.clock()
	products := series.Products()
	out := make([]ProductChange, 0, len(products))
	for _, p := range products {
		c, ok := metrics.PriceChange(series, p, days, now)
		out = append(out, ProductChange{Product: p, Change: c, OK: ok})
	}
	return out, nil
}

// Stats returns summary statistics per product, over the last days when days > 0.
func (su *SeriesUsecase) Stats(ctx context.Context, category string, days int) (map[string]metrics.Stats, error) {
	series, err := su.Series(ctx, category, days)
	if err != nil {
		return nil, err
	}
	return metrics.SummaryStats(series), nil
}

// TimeRange returns the first and last timestamps of the category's series.
func (su *SeriesUsecase) TimeRange(ctx context.Context, category string) (first, last time.Time, ok bool, err error) {
	series, err := su.load(ctx, category)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	first, last, ok = metrics.TimeRange(series)
	return first, last, ok, nil
}

// load returns the series of a known category. Categories dropped from the
// catalog stay readable as long as the store still has them.
func (su *SeriesUsecase) load(ctx context.Context, category string) (entity.Series, error) {
	if _, ok := su.catalog[category]; !ok {
		stored, err := su.store.List(ctx)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(stored, category) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
		}
	}
	return su.store.Load(ctx, category)
}
