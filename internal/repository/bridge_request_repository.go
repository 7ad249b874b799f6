package repository

import (
	"context"
	"time"

	"swap4x-backend/internal/models"

	"gorm.io/gorm"
)

// BridgeRequestRepository defines the interface for BridgeRequest data access
type BridgeRequestRepository interface {
	Create(ctx context.Context, request *models.BridgeRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*models.BridgeRequest, error)
	Update(ctx context.Context, request *models.BridgeRequest) error

	FindByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*models.BridgeRequest, int64, error)
	FindActive(ctx context.Context) ([]*models.BridgeRequest, error)

	UpdateStatus(ctx context.Context, requestID string, status models.BridgeStatus, note string) error
	MarkCompleted(ctx context.Context, requestID string, destTx string) error
}

type bridgeRequestRepository struct {
	db *gorm.DB
}

// NewBridgeRequestRepository creates a new BridgeRequestRepository instance
func NewBridgeRequestRepository(db *gorm.DB) BridgeRequestRepository {
	return &bridgeRequestRepository{db: db}
}

func (r *bridgeRequestRepository) Create(ctx context.Context, request *models.BridgeRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *bridgeRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*models.BridgeRequest, error) {
	var request models.BridgeRequest
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *bridgeRequestRepository) Update(ctx context.Context, request *models.BridgeRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// FindByWallet returns a page of requests for a wallet, newest first, plus the total count.
func (r *bridgeRequestRepository) FindByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*models.BridgeRequest, int64, error) {
	var requests []*models.BridgeRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BridgeRequest{}).Where("wallet_addr = ?", wallet)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// FindActive returns requests still moving through the bridge lifecycle.
func (r *bridgeRequestRepository) FindActive(ctx context.Context) ([]*models.BridgeRequest, error) {
	var requests []*models.BridgeRequest
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.BridgeStatus{models.BridgeStatusPending, models.BridgeStatusBridging}).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *bridgeRequestRepository) UpdateStatus(ctx context.Context, requestID string, status models.BridgeStatus, note string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if note != "" {
		updates["status_note"] = note
	}
	return r.db.WithContext(ctx).
		Model(&models.BridgeRequest{}).
		Where("request_id = ?", requestID).
		Updates(updates).Error
}

func (r *bridgeRequestRepository) MarkCompleted(ctx context.Context, requestID string, destTx string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.BridgeRequest{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"status":       models.BridgeStatusCompleted,
			"dest_tx":      destTx,
			"completed_at": &now,
			"updated_at":   now,
		}).Error
}
