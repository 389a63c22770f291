package geizhals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/shared/ratelimiter"
	"pricewatch_backend/internal/shared/retry"
)

// Source is the geizhals PriceSource: fetch a page, then extract its price.
type Source struct {
	fetcher   *Fetcher
	extractor *Extractor
	clock     func() time.Time
}

// Source implements usecase.PriceSource.
var _ usecase.PriceSource = (*Source)(nil)

// NewSource creates a Source. A nil clock means time.Now.
func NewSource(fetcher *Fetcher, extractor *Extractor, clock func() time.Time) *Source {
	if clock == nil {
		clock = time.Now
	}
	return &Source{fetcher: fetcher, extractor: extractor, clock: clock}
}

// NewDefaultSource wires a Source from cfg and client.
func NewDefaultSource(cfg Config, client *http.Client) *Source {
	guard := ratelimiter.NewGuard(cfg.Guard)
	fetcher := NewFetcher(client, guard, retry.NewPolicy(cfg.MaxRetries))
	return NewSource(fetcher, NewExtractor(nil), nil)
}

// FetchQuote fetches url and extracts its price. A page without a price
// yields a quote with Missing set rather than an error.
func (s *Source) FetchQuote(ctx context.Context, url string) (entity.PriceQuote, error) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return entity.PriceQuote{}, err
	}

	now := s.clock().UTC()
	price, err := s.extractor.Extract(html)
	if errors.Is(err, usecase.ErrPriceNotFound) {
		slog.Debug("no price rule matched", "url", url, "error", err)
		return entity.PriceQuote{Timestamp: now, Missing: true}, nil
	}
	if err != nil {
		return entity.PriceQuote{}, err
	}
	return entity.PriceQuote{Price: price, Timestamp: now}, nil
}
