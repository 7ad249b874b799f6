package services

import (
	"context"
	"sync"
	"time"

	"swap4x-backend/internal/events"
	"swap4x-backend/internal/models"
	"swap4x-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// BridgeStatusMonitor sweeps active bridge requests on an interval and
// expires those that have made no progress within the configured age.
type BridgeStatusMonitor struct {
	requests  repository.BridgeRequestRepository
	publisher *events.Publisher
	interval  time.Duration
	maxAge    time.Duration

	mu        sync.Mutex
	ticker    *time.Ticker
	ticks     <-chan time.Time // overridable for tests
	done      chan bool
	isRunning bool
}

// NewBridgeStatusMonitor creates the monitor.
func NewBridgeStatusMonitor(requests repository.BridgeRequestRepository, publisher *events.Publisher, interval, maxAge time.Duration) *BridgeStatusMonitor {
	return &BridgeStatusMonitor{
		requests:  requests,
		publisher: publisher,
		interval:  interval,
		maxAge:    maxAge,
	}
}

// Start begins the sweep loop.
func (m *BridgeStatusMonitor) Start() {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = true
	m.done = make(chan bool)
	done := m.done
	ticks := m.ticks
	if ticks == nil {
		m.ticker = time.NewTicker(m.interval)
		ticks = m.ticker.C
	}
	m.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				if m.ticker != nil {
					m.ticker.Stop()
				}
				return
			case <-ticks:
				m.sweep()
			}
		}
	}()

	logrus.WithField("interval", m.interval).Info("bridge status monitor started")
}

// Stop stops the sweep loop.
func (m *BridgeStatusMonitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	close(m.done)
	m.mu.Unlock()
	logrus.Info("bridge status monitor stopped")
}

func (m *BridgeStatusMonitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	active, err := m.requests.FindActive(ctx)
	if err != nil {
		logrus.WithError(err).Warn("bridge status sweep failed to list active requests")
		return
	}

	cutoff := time.Now().Add(-m.maxAge)
	for _, request := range active {
		if request.UpdatedAt.After(cutoff) {
			continue
		}
		if err := m.requests.UpdateStatus(ctx, request.RequestID, models.BridgeStatusExpired, "no progress within monitor deadline"); err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": request.RequestID,
				"error":      err,
			}).Warn("failed to expire bridge request")
			continue
		}
		request.Status = models.BridgeStatusExpired
		m.publisher.BridgeStatusUpdated(request)
		logrus.WithField("request_id", request.RequestID).Info("bridge request expired")
	}
}
