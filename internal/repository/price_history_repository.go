package repository

import (
	"context"
	"time"

	"swap4x-backend/internal/models"

	"gorm.io/gorm"
)

// PriceHistoryRepository defines the interface for PriceHistory data access
type PriceHistoryRepository interface {
	Create(ctx context.Context, entry *models.PriceHistory) error
	CreateBatch(ctx context.Context, entries []*models.PriceHistory) error
	Recent(ctx context.Context, symbol string, limit int) ([]*models.PriceHistory, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type priceHistoryRepository struct {
	db *gorm.DB
}

// NewPriceHistoryRepository creates a new PriceHistoryRepository instance
func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

func (r *priceHistoryRepository) Create(ctx context.Context, entry *models.PriceHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *priceHistoryRepository) CreateBatch(ctx context.Context, entries []*models.PriceHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *priceHistoryRepository) Recent(ctx context.Context, symbol string, limit int) ([]*models.PriceHistory, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	var entries []*models.PriceHistory
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PruneOlderThan removes history rows past the retention window.
func (r *priceHistoryRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PriceHistory{})
	return result.RowsAffected, result.Error
}
