package adapters

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/usecase"
)

// GormStore keeps observations in a SQL table, one row per (series, product, time).
type GormStore struct {
	db *gorm.DB
}

var _ usecase.ObservationStore = (*GormStore)(nil)

// NewGormStore creates a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ObservationModel is the gorm model of a price observation.
type ObservationModel struct {
	ID         uint      `gorm:"primaryKey"`
	Series     string    `gorm:"size:64;not null;uniqueIndex:obs_series_product_time,priority:1"`
	Product    string    `gorm:"size:255;not null;uniqueIndex:obs_series_product_time,priority:2"`
	ObservedAt time.Time `gorm:"not null;uniqueIndex:obs_series_product_time,priority:3"`

	Price     float64 `gorm:"not null"`
	SourceURL string  `gorm:"size:1024"`
}

func (ObservationModel) TableName() string {
	return "price_observations"
}

func toModel(series string, o entity.PriceObservation) ObservationModel {
	return ObservationModel{
		Series:     series,
		Product:    o.Product,
		ObservedAt: o.Timestamp,
		Price:      o.Price,
		SourceURL:  o.SourceURL,
	}
}

func toEntity(m ObservationModel) entity.PriceObservation {
	return entity.PriceObservation{
		Product:   m.Product,
		Price:     m.Price,
		Timestamp: m.ObservedAt.UTC(),
		SourceURL: m.SourceURL,
	}
}

// Load returns the series ordered by time, then product.
func (r *GormStore) Load(ctx context.Context, seriesID string) (entity.Series, error) {
	var rows []ObservationModel
	if err := r.db.WithContext(ctx).
		Where("series = ?", seriesID).
		Order("observed_at ASC, product ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load series %s: %w", seriesID, err)
	}
	out := make(entity.Series, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// Append upserts obs so that a repeated (product, time) takes the newer values.
func (r *GormStore) Append(ctx context.Context, seriesID string, obs []entity.PriceObservation) (entity.Series, error) {
	// Merge first: one statement must not touch the same conflict key twice.
	batch := entity.Merge(nil, obs)
	if len(batch) > 0 {
		ms := make([]ObservationModel, 0, len(batch))
		for _, o := range batch {
			ms = append(ms, toModel(seriesID, o))
		}
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "series"}, {Name: "product"}, {Name: "observed_at"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "source_url"}),
		}).Create(&ms).Error
		if err != nil {
			return nil, fmt.Errorf("upsert series %s: %w", seriesID, err)
		}
	}
	return r.Load(ctx, seriesID)
}

// List returns the distinct series IDs.
func (r *GormStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&ObservationModel{}).
		Distinct("series").
		Order("series ASC").
		Pluck("series", &ids).Error; err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return ids, nil
}
