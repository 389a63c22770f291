package usecase

import (
	"context"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

// PriceSource reads the current price for one listing page.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceSource interface {
	// FetchQuote returns the quote for url. A fetched page without a price is
	// reported as a quote with Missing set, or as ErrPriceNotFound.
	FetchQuote(ctx context.Context, url string) (entity.PriceQuote, error)
}

// ObservationStore persists one series per category.
type ObservationStore interface {
	// Load returns the series for seriesID, empty when nothing was stored yet.
	Load(ctx context.Context, seriesID string) (entity.Series, error)
	// Append merges obs into the stored series and returns the merged result.
	Append(ctx context.Context, seriesID string, obs []entity.PriceObservation) (entity.Series, error)
	// List returns the IDs of all stored series.
	List(ctx context.Context) ([]string, error)
}

// Notifier hands alarm text to an outbound channel.
type Notifier interface {
	Notify(ctx context.Context, subject string, lines []string) error
}
