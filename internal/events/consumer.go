package events

import (
	"context"
	"encoding/json"
	"time"

	"swap4x-backend/internal/clients"
	"swap4x-backend/internal/models"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectBridgeStatusSync carries progress reports from external relayers
// watching source and destination chains.
const SubjectBridgeStatusSync = "bridge.status.sync"

// StatusSyncEvent is the relayer-side payload on SubjectBridgeStatusSync.
type StatusSyncEvent struct {
	RequestID string              `json:"request_id"`
	Status    models.BridgeStatus `json:"status"`
	TxHash    string              `json:"tx_hash"`
	Detail    string              `json:"detail"`
}

// StatusSink applies relayer-observed transitions to stored bridge requests.
type StatusSink interface {
	UpdateStatus(ctx context.Context, requestID string, status models.BridgeStatus, note string) error
	Complete(ctx context.Context, requestID, destTx string) error
}

// Consumer subscribes to relayer status reports and applies them through the
// bridge service.
type Consumer struct {
	client *clients.NATSClient
	sink   StatusSink
	sub    *nats.Subscription
}

// NewConsumer creates a consumer over the NATS client.
func NewConsumer(client *clients.NATSClient, sink StatusSink) *Consumer {
	return &Consumer{client: client, sink: sink}
}

// Start subscribes to the status sync subject.
func (c *Consumer) Start() error {
	sub, err := c.client.Subscribe(SubjectBridgeStatusSync, c.handle)
	if err != nil {
		return err
	}
	c.sub = sub
	logrus.WithField("subject", SubjectBridgeStatusSync).Info("bridge status consumer started")
	return nil
}

// Stop unsubscribes from the status sync subject.
func (c *Consumer) Stop() {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			logrus.WithError(err).Warn("failed to unsubscribe bridge status consumer")
		}
		c.sub = nil
	}
}

func (c *Consumer) handle(msg *nats.Msg) {
	var event StatusSyncEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logrus.WithError(err).Warn("discarding malformed status sync event")
		return
	}
	if event.RequestID == "" {
		logrus.Warn("discarding status sync event without request id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if event.Status == models.BridgeStatusCompleted {
		err = c.sink.Complete(ctx, event.RequestID, event.TxHash)
	} else {
		err = c.sink.UpdateStatus(ctx, event.RequestID, event.Status, event.Detail)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": event.RequestID,
			"status":     event.Status,
			"error":      err,
		}).Warn("failed to apply status sync event")
	}
}
