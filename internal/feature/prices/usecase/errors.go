package usecase

import (
	"errors"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

var (
	// ErrFetchFailed is returned when a page could not be retrieved within the retry budget.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrPriceNotFound is returned when a page was retrieved but no rule yielded a price.
	ErrPriceNotFound = errors.New("price not found")
	// ErrInvalidObservation is returned for observations that violate the series invariants.
	ErrInvalidObservation = entity.ErrInvalidObservation
	// ErrUnknownCategory is returned for a category that is not in the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidThreshold is returned for a non-positive alarm threshold.
	ErrInvalidThreshold = errors.New("invalid alarm threshold")
)
