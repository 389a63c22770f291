package usecase

import (
	"context"
	"errors"
	"sync"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

// mockPriceSource is a mock implementation of the PriceSource interface.
type mockPriceSource struct {
	mu             sync.Mutex
	FetchQuoteFunc func(ctx context.Context, url string) (entity.PriceQuote, error)
	FetchCalls     map[string]int
}

func (m *mockPriceSource) FetchQuote(ctx context.Context, url string) (entity.PriceQuote, error) {
	m.mu.Lock()
	if m.FetchCalls == nil {
		m.FetchCalls = map[string]int{}
	}
	m.FetchCalls[url]++
	m.mu.Unlock()
	if m.FetchQuoteFunc != nil {
		return m.FetchQuoteFunc(ctx, url)
	}
	return entity.PriceQuote{}, errors.New("FetchQuoteFunc is not implemented")
}

// memoryStore is an in-memory ObservationStore.
type memoryStore struct {
	mu          sync.Mutex
	series      map[string]entity.Series
	AppendErr   error
	AppendCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{series: map[string]entity.Series{}}
}

func (m *memoryStore) Load(ctx context.Context, seriesID string) (entity.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(entity.Series(nil), m.series[seriesID]...), nil
}

func (m *memoryStore) Append(ctx context.Context, seriesID string, obs []entity.PriceObservation) (entity.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	m.series[seriesID] = entity.Merge(m.series[seriesID], obs)
	return m.series[seriesID], nil
}

func (m *memoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.series))
	for id := range m.series {
		out = append(out, id)
	}
	return out, nil
}

// mockNotifier records notifications.
type mockNotifier struct {
	NotifyErr error
	Subjects  []string
	Lines     [][]string
}

func (m *mockNotifier) Notify(ctx context.Context, subject string, lines []string) error {
	m.Subjects = append(m.Subjects, subject)
	m.Lines = append(m.Lines, lines)
	return m.NotifyErr
}
