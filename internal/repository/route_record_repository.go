package repository

import (
	"context"
	"time"

	"swap4x-backend/internal/models"

	"gorm.io/gorm"
)

// RouteRecordRepository defines the interface for BridgeRouteRecord data access
type RouteRecordRepository interface {
	CreateBatch(ctx context.Context, records []*models.BridgeRouteRecord) error

	ProtocolVolumes(ctx context.Context, since time.Time) ([]models.ProtocolVolume, error)
	ChainPairVolumes(ctx context.Context, since time.Time) ([]models.ChainPairVolume, error)
	AverageFeeBps(ctx context.Context, protocol string, since time.Time) (float64, error)
}

type routeRecordRepository struct {
	db *gorm.DB
}

// NewRouteRecordRepository creates a new RouteRecordRepository instance
func NewRouteRecordRepository(db *gorm.DB) RouteRecordRepository {
	return &routeRecordRepository{db: db}
}

func (r *routeRecordRepository) CreateBatch(ctx context.Context, records []*models.BridgeRouteRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

// ProtocolVolumes aggregates route counts and selection counts per protocol.
func (r *routeRecordRepository) ProtocolVolumes(ctx context.Context, since time.Time) ([]models.ProtocolVolume, error) {
	var rows []models.ProtocolVolume
	err := r.db.WithContext(ctx).
		Model(&models.BridgeRouteRecord{}).
		Select("protocol, COUNT(*) AS requests, SUM(CASE WHEN selected THEN 1 ELSE 0 END) AS selected").
		Where("created_at >= ?", since).
		Group("protocol").
		Order("requests DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ChainPairVolumes aggregates route counts per source/destination chain pair.
func (r *routeRecordRepository) ChainPairVolumes(ctx context.Context, since time.Time) ([]models.ChainPairVolume, error) {
	var rows []models.ChainPairVolume
	err := r.db.WithContext(ctx).
		Model(&models.BridgeRouteRecord{}).
		Select("from_chain, to_chain, COUNT(*) AS requests").
		Where("created_at >= ?", since).
		Group("from_chain, to_chain").
		Order("requests DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *routeRecordRepository) AverageFeeBps(ctx context.Context, protocol string, since time.Time) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.BridgeRouteRecord{}).
		Select("AVG(fee_bps)").
		Where("protocol = ? AND created_at >= ?", protocol, since).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
