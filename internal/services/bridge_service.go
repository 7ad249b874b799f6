package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/config"
	"swap4x-backend/internal/events"
	"swap4x-backend/internal/models"
	"swap4x-backend/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidWallet    = errors.New("invalid wallet address")
	ErrUnknownProtocol  = errors.New("unknown bridge protocol")
	ErrRequestNotFound  = errors.New("bridge request not found")
	ErrUnsupportedChain = errors.New("unsupported chain for protocol")
	ErrStoreUnavailable = errors.New("bridge request store not configured")
)

// BridgeService owns the bridge request lifecycle: creating a request from a
// chosen route, reading its status, and listing a wallet's history.
type BridgeService struct {
	cfg       *config.Config
	registry  *bridges.Registry
	requests  repository.BridgeRequestRepository
	publisher *events.Publisher
}

// NewBridgeService creates the bridge request service.
func NewBridgeService(cfg *config.Config, registry *bridges.Registry, requests repository.BridgeRequestRepository, publisher *events.Publisher) *BridgeService {
	return &BridgeService{
		cfg:       cfg,
		registry:  registry,
		requests:  requests,
		publisher: publisher,
	}
}

// Execute records a bridge request for a chosen protocol and returns it. The
// quote is recomputed server-side so a stale or tampered client amount cannot
// skew the stored record.
func (s *BridgeService) Execute(ctx context.Context, wallet, protocol, fromChain, toChain, token string, amount *big.Int) (*models.BridgeRequest, error) {
	if s.requests == nil {
		return nil, ErrStoreUnavailable
	}
	if !common.IsHexAddress(wallet) {
		return nil, ErrInvalidWallet
	}
	adapter, ok := s.registry.Get(protocol)
	if !ok {
		return nil, ErrUnknownProtocol
	}
	if fromChain == toChain || !adapter.SupportsChain(fromChain) || !adapter.SupportsChain(toChain) {
		return nil, ErrUnsupportedChain
	}

	result := adapter.Quote(ctx, fromChain, toChain, token, amount)
	request := &models.BridgeRequest{
		RequestID:  uuid.New().String(),
		WalletAddr: common.HexToAddress(wallet).Hex(),
		Protocol:   protocol,
		FromChain:  fromChain,
		ToChain:    toChain,
		Token:      token,
		AmountIn:   amount.String(),
		AmountOut:  result.Quote.AmountOut.String(),
		FeeBps:     int(result.Quote.FeeBps),
		Status:     models.BridgeStatusPending,
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to store bridge request: %w", err)
	}

	s.publisher.BridgeRequestCreated(request)
	logrus.WithFields(logrus.Fields{
		"request_id": request.RequestID,
		"protocol":   protocol,
		"from":       fromChain,
		"to":         toChain,
	}).Info("bridge request created")
	return request, nil
}

// Status returns a bridge request by its public id.
func (s *BridgeService) Status(ctx context.Context, requestID string) (*models.BridgeRequest, error) {
	if s.requests == nil {
		return nil, ErrStoreUnavailable
	}
	request, err := s.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load bridge request: %w", err)
	}
	return request, nil
}

// History returns a page of a wallet's bridge requests, newest first.
func (s *BridgeService) History(ctx context.Context, wallet string, page, pageSize int) ([]*models.BridgeRequest, int64, error) {
	if s.requests == nil {
		return nil, 0, ErrStoreUnavailable
	}
	if !common.IsHexAddress(wallet) {
		return nil, 0, ErrInvalidWallet
	}
	return s.requests.FindByWallet(ctx, common.HexToAddress(wallet).Hex(), page, pageSize)
}

// UpdateStatus transitions a request and publishes the change.
func (s *BridgeService) UpdateStatus(ctx context.Context, requestID string, status models.BridgeStatus, note string) error {
	if s.requests == nil {
		return ErrStoreUnavailable
	}
	if err := s.requests.UpdateStatus(ctx, requestID, status, note); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to update bridge request status: %w", err)
	}
	if request, err := s.requests.GetByRequestID(ctx, requestID); err == nil {
		s.publisher.BridgeStatusUpdated(request)
	}
	return nil
}

// Complete records the destination transaction for a request and publishes
// the terminal transition.
func (s *BridgeService) Complete(ctx context.Context, requestID, destTx string) error {
	if s.requests == nil {
		return ErrStoreUnavailable
	}
	if err := s.requests.MarkCompleted(ctx, requestID, destTx); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to complete bridge request: %w", err)
	}
	if request, err := s.requests.GetByRequestID(ctx, requestID); err == nil {
		s.publisher.BridgeStatusUpdated(request)
	}
	return nil
}
