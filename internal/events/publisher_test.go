package events

import (
	"testing"

	"swap4x-backend/internal/models"
)

func TestPublisherNilSafety(t *testing.T) {
	req := &models.BridgeRequest{
		RequestID: "req-1",
		Protocol:  "stargate",
		Status:    models.BridgeStatusPending,
	}

	var nilPublisher *Publisher
	nilPublisher.BridgeRequestCreated(req)
	nilPublisher.BridgeStatusUpdated(req)

	clientless := NewPublisher(nil)
	clientless.BridgeRequestCreated(req)
	clientless.BridgeStatusUpdated(req)
}
