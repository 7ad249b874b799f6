package services

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"swap4x-backend/internal/bridges"
	"swap4x-backend/internal/config"
	"swap4x-backend/internal/models"
)

// memoryBridgeRequests is an in-memory BridgeRequestRepository for tests.
type memoryBridgeRequests struct {
	mu       sync.Mutex
	requests map[string]*models.BridgeRequest
	order    []string
}

func newMemoryBridgeRequests() *memoryBridgeRequests {
	return &memoryBridgeRequests{requests: make(map[string]*models.BridgeRequest)}
}

func (r *memoryBridgeRequests) Create(ctx context.Context, request *models.BridgeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	r.requests[request.RequestID] = request
	r.order = append(r.order, request.RequestID)
	return nil
}

func (r *memoryBridgeRequests) GetByRequestID(ctx context.Context, requestID string) (*models.BridgeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *memoryBridgeRequests) Update(ctx context.Context, request *models.BridgeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[request.RequestID] = request
	return nil
}

func (r *memoryBridgeRequests) FindByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*models.BridgeRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.BridgeRequest, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		if req := r.requests[r.order[i]]; req.WalletAddr == wallet {
			matched = append(matched, req)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *memoryBridgeRequests) FindActive(ctx context.Context) ([]*models.BridgeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := make([]*models.BridgeRequest, 0)
	for _, id := range r.order {
		req := r.requests[id]
		if req.Status == models.BridgeStatusPending || req.Status == models.BridgeStatusBridging {
			copied := *req
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (r *memoryBridgeRequests) UpdateStatus(ctx context.Context, requestID string, status models.BridgeStatus, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	request.Status = status
	if note != "" {
		request.StatusNote = note
	}
	request.UpdatedAt = time.Now()
	return nil
}

func (r *memoryBridgeRequests) MarkCompleted(ctx context.Context, requestID string, destTx string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	request.Status = models.BridgeStatusCompleted
	request.DestTx = destTx
	request.CompletedAt = &now
	request.UpdatedAt = now
	return nil
}

const testWallet = "0x742d35cc6634c0532925a3b844bc9e7595f0beb1"

func newTestBridgeService(repo *memoryBridgeRequests) *BridgeService {
	cfg := &config.Config{}
	registry := bridges.DefaultRegistry("", "")
	return NewBridgeService(cfg, registry, repo, nil)
}

func TestExecuteCreatesRequest(t *testing.T) {
	repo := newMemoryBridgeRequests()
	svc := newTestBridgeService(repo)

	request, err := svc.Execute(context.Background(), testWallet, "stargate", "ethereum", "polygon", "USDC", big.NewInt(1000000))
	require.NoError(t, err)

	assert.NotEmpty(t, request.RequestID)
	assert.Equal(t, "stargate", request.Protocol)
	assert.Equal(t, models.BridgeStatusPending, request.Status)
	assert.Equal(t, "1000000", request.AmountIn)
	// the quote is recomputed server-side from the adapter profile
	assert.Equal(t, "999400", request.AmountOut)
	assert.Equal(t, 6, request.FeeBps)
	// wallet is stored in checksum form
	assert.Equal(t, common.HexToAddress(testWallet).Hex(), request.WalletAddr)
	assert.NotEqual(t, testWallet, request.WalletAddr)
}

func TestExecuteRejectsBadInput(t *testing.T) {
	repo := newMemoryBridgeRequests()
	svc := newTestBridgeService(repo)
	ctx := context.Background()
	amount := big.NewInt(1000000)

	_, err := svc.Execute(ctx, "not-an-address", "stargate", "ethereum", "polygon", "USDC", amount)
	assert.ErrorIs(t, err, ErrInvalidWallet)

	_, err = svc.Execute(ctx, testWallet, "wormhole", "ethereum", "polygon", "USDC", amount)
	assert.ErrorIs(t, err, ErrUnknownProtocol)

	_, err = svc.Execute(ctx, testWallet, "stargate", "ethereum", "ethereum", "USDC", amount)
	assert.ErrorIs(t, err, ErrUnsupportedChain)

	// across does not bridge to avalanche
	_, err = svc.Execute(ctx, testWallet, "across", "ethereum", "avalanche", "USDC", amount)
	assert.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestStatusLookup(t *testing.T) {
	repo := newMemoryBridgeRequests()
	svc := newTestBridgeService(repo)
	ctx := context.Background()

	created, err := svc.Execute(ctx, testWallet, "hop", "ethereum", "arbitrum", "USDC", big.NewInt(5000000))
	require.NoError(t, err)

	found, err := svc.Status(ctx, created.RequestID)
	require.NoError(t, err)
	assert.Equal(t, created.RequestID, found.RequestID)

	_, err = svc.Status(ctx, "missing-id")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestHistoryByWallet(t *testing.T) {
	repo := newMemoryBridgeRequests()
	svc := newTestBridgeService(repo)
	ctx := context.Background()

	_, err := svc.Execute(ctx, testWallet, "stargate", "ethereum", "polygon", "USDC", big.NewInt(1000000))
	require.NoError(t, err)
	_, err = svc.Execute(ctx, testWallet, "hop", "ethereum", "arbitrum", "USDC", big.NewInt(2000000))
	require.NoError(t, err)

	history, total, err := svc.History(ctx, testWallet, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, history, 2)
	// newest first
	assert.Equal(t, "hop", history[0].Protocol)

	_, _, err = svc.History(ctx, "junk", 1, 20)
	assert.ErrorIs(t, err, ErrInvalidWallet)
}

func TestCompleteRecordsDestinationTx(t *testing.T) {
	repo := newMemoryBridgeRequests()
	svc := newTestBridgeService(repo)
	ctx := context.Background()

	created, err := svc.Execute(ctx, testWallet, "stargate", "ethereum", "polygon", "USDC", big.NewInt(1000000))
	require.NoError(t, err)

	require.NoError(t, svc.Complete(ctx, created.RequestID, "0xabc123"))

	found, err := svc.Status(ctx, created.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.BridgeStatusCompleted, found.Status)
	assert.Equal(t, "0xabc123", found.DestTx)
	require.NotNil(t, found.CompletedAt)

	assert.ErrorIs(t, svc.Complete(ctx, "missing-id", "0xabc123"), ErrRequestNotFound)
}

func TestServiceWithoutStoreReturnsCleanError(t *testing.T) {
	svc := NewBridgeService(&config.Config{}, bridges.DefaultRegistry("", ""), nil, nil)
	ctx := context.Background()

	_, err := svc.Execute(ctx, testWallet, "stargate", "ethereum", "polygon", "USDC", big.NewInt(1000000))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = svc.Status(ctx, "some-id")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, _, err = svc.History(ctx, testWallet, 1, 20)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, "some-id", models.BridgeStatusBridging, ""), ErrStoreUnavailable)
	assert.ErrorIs(t, svc.Complete(ctx, "some-id", "0xdead"), ErrStoreUnavailable)
}

func TestUpdateStatusTransitions(t *testing.T) {
	repo := newMemoryBridgeRequests()
	svc := newTestBridgeService(repo)
	ctx := context.Background()

	created, err := svc.Execute(ctx, testWallet, "stargate", "ethereum", "polygon", "USDC", big.NewInt(1000000))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, created.RequestID, models.BridgeStatusBridging, "source tx confirmed"))

	found, err := svc.Status(ctx, created.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.BridgeStatusBridging, found.Status)
	assert.Equal(t, "source tx confirmed", found.StatusNote)
}
