package models

import (
	"time"
)

// bridge request lifecycle status
type BridgeStatus string

const (
	BridgeStatusPending   BridgeStatus = "pending"   // request accepted, awaiting source tx
	BridgeStatusBridging  BridgeStatus = "bridging"  // source tx seen, waiting for destination
	BridgeStatusCompleted BridgeStatus = "completed" // destination tx confirmed
	BridgeStatusFailed    BridgeStatus = "failed"    // bridge reported failure
	BridgeStatusExpired   BridgeStatus = "expired"   // no progress within the monitor deadline
)

// BridgeRequest is a user-initiated bridge execution tracked through its lifecycle.
type BridgeRequest struct {
	ID          uint64       `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID   string       `json:"request_id" gorm:"uniqueIndex;not null"` // uuid assigned at creation
	WalletAddr  string       `json:"wallet_address" gorm:"index;not null"`
	Protocol    string       `json:"protocol" gorm:"index;not null"`
	FromChain   string       `json:"from_chain" gorm:"not null"`
	ToChain     string       `json:"to_chain" gorm:"not null"`
	Token       string       `json:"token" gorm:"not null"`
	AmountIn    string       `json:"amount_in" gorm:"not null"`  // base units, decimal string
	AmountOut   string       `json:"amount_out" gorm:"not null"` // quoted net amount, base units
	FeeBps      int          `json:"fee_bps" gorm:"not null"`
	Status      BridgeStatus `json:"status" gorm:"index;not null;default:pending"`
	SourceTx    string       `json:"source_tx,omitempty"`
	DestTx      string       `json:"dest_tx,omitempty"`
	StatusNote  string       `json:"status_note,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (BridgeRequest) TableName() string {
	return "bridge_requests"
}

// BridgeRouteRecord is a snapshot of a ranked route produced during aggregation,
// kept for analytics over protocol selection and fee spreads.
type BridgeRouteRecord struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Protocol   string    `json:"protocol" gorm:"index;not null"`
	FromChain  string    `json:"from_chain" gorm:"index;not null"`
	ToChain    string    `json:"to_chain" gorm:"index;not null"`
	Token      string    `json:"token" gorm:"not null"`
	AmountIn   string    `json:"amount_in" gorm:"not null"`
	AmountOut  string    `json:"amount_out" gorm:"not null"`
	FeeBps     int       `json:"fee_bps" gorm:"not null"`
	TimeSec    int       `json:"time_sec" gorm:"not null"`
	Score      float64   `json:"score" gorm:"not null"`
	Source     string    `json:"source" gorm:"not null"` // live or fallback
	Preference string    `json:"preference" gorm:"not null"`
	Selected   bool      `json:"selected" gorm:"index;not null;default:false"` // top ranked for its request
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

func (BridgeRouteRecord) TableName() string {
	return "bridge_routes"
}

// PriceHistory records every oracle refresh so analytics can chart token prices.
type PriceHistory struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Symbol    string    `json:"symbol" gorm:"index;not null"`
	PriceUSD  float64   `json:"price_usd" gorm:"not null"`
	Source    string    `json:"source" gorm:"not null"` // coingecko or static
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (PriceHistory) TableName() string {
	return "price_history"
}

// ProtocolVolume is a read-only aggregate row returned by analytics queries.
type ProtocolVolume struct {
	Protocol string `json:"protocol"`
	Requests int64  `json:"requests"`
	Selected int64  `json:"selected"`
}

// ChainPairVolume is a read-only aggregate row returned by analytics queries.
type ChainPairVolume struct {
	FromChain string `json:"from_chain"`
	ToChain   string `json:"to_chain"`
	Requests  int64  `json:"requests"`
}
