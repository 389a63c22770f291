// Package usecase implements the price watch pipeline: scraping the catalog,
// persisting observations and answering queries over the stored series.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

// DefaultConcurrency bounds simultaneous fetches against the source site.
const DefaultConcurrency = 5

// Result status of one product within a scrape.
const (
	StatusOK      = "ok"
	StatusMissing = "missing"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// ProductResult is the outcome of scraping one product.
type ProductResult struct {
	Product string  `json:"product"`
	URL     string  `json:"url"`
	Status  string  `json:"status"`
	Price   float64 `json:"price,omitempty"`
	Error   string  `json:"error,omitempty"`

	obs *entity.PriceObservation
}

// RefreshReport summarizes one refresh cycle of a category.
type RefreshReport struct {
	RunID      string          `json:"run_id"`
	Category   string          `json:"category"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Stored     int             `json:"stored"`
	SeriesLen  int             `json:"series_len"`
	Results    []ProductResult `json:"results"`
	Error      string          `json:"error,omitempty"` // Set when the category could not be stored
}

// ScrapeConfig tunes a ScrapeUsecase. Zero values use the defaults.
type ScrapeConfig struct {
	Concurrency int
	Clock       func() time.Time
	NewRunID    func() string
}

// ScrapeUsecase fetches the catalog and appends the observations to the store.
type ScrapeUsecase struct {
	source      PriceSource
	store       ObservationStore
	catalog     entity.Catalog
	concurrency int
	clock       func() time.Time
	newRunID    func() string
}

// NewScrapeUsecase creates a ScrapeUsecase.
func NewScrapeUsecase(source PriceSource, store ObservationStore, catalog entity.Catalog, cfg ScrapeConfig) *ScrapeUsecase {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = uuid.NewString
	}
	return &ScrapeUsecase{
		source:      source,
		store:       store,
		catalog:     catalog,
		concurrency: cfg.Concurrency,
		clock:       cfg.Clock,
		newRunID:    cfg.NewRunID,
	}
}

// Scrape fetches every ref and returns one observation per product that
// yielded a valid price. Failed products are logged and left out.
func (su *ScrapeUsecase) Scrape(ctx context.Context, refs []entity.ProductRef) []entity.PriceObservation {
	return observations(su.scrape(ctx, refs))
}

// Refresh scrapes one category and appends the result to its series.
func (su *ScrapeUsecase) Refresh(ctx context.Context, category string) (RefreshReport, error) {
	refs, ok := su.catalog.Products(category)
	if !ok {
		return RefreshReport{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	report := RefreshReport{
		RunID:     su.newRunID(),
		Category:  category,
		StartedAt: su.clock().UTC(),
	}
	slog.Info("refresh started", "run_id", report.RunID, "category", category, "products", len(refs))

	report.Results = su.scrape(ctx, refs)
	obs := observations(report.Results)

	series, err := su.store.Append(ctx, category, obs)
	if err != nil {
		return report, fmt.Errorf("append %s: %w", category, err)
	}
	report.Stored = len(obs)
	report.SeriesLen = len(series)
	report.FinishedAt = su.clock().UTC()

	slog.Info("refresh finished",
		"run_id", report.RunID,
		"category", category,
		"stored", report.Stored,
		"series_len", report.SeriesLen,
		"elapsed", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// RefreshAll refreshes every catalog category. A failing category is logged,
// reported with its Error set and does not stop the others; the first such
// error is returned alongside all reports.
func (su *ScrapeUsecase) RefreshAll(ctx context.Context) ([]RefreshReport, error) {
	var (
		reports  []RefreshReport
		firstErr error
	)
	for _, category := range su.catalog.Categories() {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := su.Refresh(ctx, category)
		if err != nil {
			slog.Error("refresh failed", "category", category, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			report.Category = category
			report.Error = err.Error()
		}
		reports = append(reports, report)
	}
	return reports, firstErr
}

// scrape runs the bounded worker pool. Results keep the order of refs.
func (su *ScrapeUsecase) scrape(ctx context.Context, refs []entity.ProductRef) []ProductResult {
	results := make([]ProductResult, len(refs))

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(su.concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			r := su.scrapeOne(ctx, ref)
			mu.Lock()
			results[i] = r
			mu.Unlock()
			// Workers never fail the group: one product must not cancel another.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (su *ScrapeUsecase) scrapeOne(ctx context.Context, ref entity.ProductRef) ProductResult {
	res := ProductResult{Product: ref.Name, URL: ref.SourceURL}

	quote, err := su.source.FetchQuote(ctx, ref.SourceURL)
	switch {
	case errors.Is(err, ErrPriceNotFound) || (err == nil && quote.Missing):
		res.Status = StatusMissing
		if err == nil {
			err = ErrPriceNotFound
		}
		res.Error = err.Error()
		slog.Warn("no price on page", "product", ref.Name, "url", ref.SourceURL)
		return res
	case err != nil:
		res.Status = StatusFailed
		res.Error = err.Error()
		slog.Warn("failed to fetch price", "product", ref.Name, "url", ref.SourceURL, "error", err)
		return res
	}

	ts := quote.Timestamp
	if ts.IsZero() {
		ts = su.clock()
	}
	obs := entity.PriceObservation{
		Product:   ref.Name,
		Price:     quote.Price,
		Timestamp: ts,
		SourceURL: ref.SourceURL,
	}.Canonical()

	if err := obs.Validate(); err != nil {
		res.Status = StatusInvalid
		res.Error = err.Error()
		slog.Warn("dropping invalid observation", "product", ref.Name, "url", ref.SourceURL, "price", quote.Price)
		return res
	}

	res.Status = StatusOK
	res.Price = obs.Price
	res.obs = &obs
	return res
}

func observations(results []ProductResult) []entity.PriceObservation {
	out := make([]entity.PriceObservation, 0, len(results))
	for _, r := range results {
		if r.obs != nil {
			out = append(out, *r.obs)
		}
	}
	return out
}
