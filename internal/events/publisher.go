package events

import (
	"time"

	"swap4x-backend/internal/clients"
	"swap4x-backend/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	SubjectBridgeRequestCreated = "bridge.request.created"
	SubjectBridgeStatusUpdated  = "bridge.status.updated"
)

// BridgeRequestEvent is the payload published on bridge lifecycle subjects.
type BridgeRequestEvent struct {
	RequestID string              `json:"request_id"`
	Wallet    string              `json:"wallet_address"`
	Protocol  string              `json:"protocol"`
	FromChain string              `json:"from_chain"`
	ToChain   string              `json:"to_chain"`
	Token     string              `json:"token"`
	AmountIn  string              `json:"amount_in"`
	Status    models.BridgeStatus `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
}

// Publisher publishes bridge lifecycle events to NATS. A nil Publisher or a
// Publisher without a client is safe to call and publishes nothing, so the
// service layer never has to branch on whether NATS is configured.
type Publisher struct {
	client *clients.NATSClient
}

// NewPublisher creates a publisher over the NATS client. client may be nil.
func NewPublisher(client *clients.NATSClient) *Publisher {
	return &Publisher{client: client}
}

// BridgeRequestCreated publishes a creation event for a new bridge request.
func (p *Publisher) BridgeRequestCreated(req *models.BridgeRequest) {
	p.publish(SubjectBridgeRequestCreated, req)
}

// BridgeStatusUpdated publishes a status transition for a bridge request.
func (p *Publisher) BridgeStatusUpdated(req *models.BridgeRequest) {
	p.publish(SubjectBridgeStatusUpdated, req)
}

func (p *Publisher) publish(subject string, req *models.BridgeRequest) {
	if p == nil || p.client == nil {
		return
	}
	event := BridgeRequestEvent{
		RequestID: req.RequestID,
		Wallet:    req.WalletAddr,
		Protocol:  req.Protocol,
		FromChain: req.FromChain,
		ToChain:   req.ToChain,
		Token:     req.Token,
		AmountIn:  req.AmountIn,
		Status:    req.Status,
		Timestamp: time.Now(),
	}
	if err := p.client.PublishJSON(subject, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"subject":    subject,
			"request_id": req.RequestID,
			"error":      err,
		}).Warn("failed to publish bridge event")
	}
}
