package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"swap4x-backend/internal/bridges"

	"github.com/sirupsen/logrus"
)

const (
	ProtocolStatusOperational = "operational"
	ProtocolStatusDegraded    = "degraded"
	ProtocolStatusUnknown     = "unknown"
)

// ProtocolStatus is the cached health of one bridge protocol.
type ProtocolStatus struct {
	Protocol    string    `json:"protocol"`
	Status      string    `json:"status"`
	ResponseMs  int64     `json:"responseMs"`
	LastChecked time.Time `json:"lastChecked"`
}

// ProtocolStatusMonitor probes each bridge protocol's quoting endpoint on an
// interval and caches an operational/degraded verdict. Protocols without a
// live endpoint quote from their static profile and cannot degrade, so they
// always report operational.
type ProtocolStatusMonitor struct {
	registry  *bridges.Registry
	endpoints map[string]string
	client    *http.Client
	interval  time.Duration
	maxAge    time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	statuses  map[string]ProtocolStatus
	ticker    *time.Ticker
	ticks     <-chan time.Time // overridable for tests
	done      chan bool
	isRunning bool
}

// NewProtocolStatusMonitor creates the monitor. endpoints maps protocol
// identifiers to their quoting base URLs; protocols missing from the map or
// mapped to "" are treated as static.
func NewProtocolStatusMonitor(registry *bridges.Registry, endpoints map[string]string, interval, maxAge time.Duration) *ProtocolStatusMonitor {
	return &ProtocolStatusMonitor{
		registry:  registry,
		endpoints: endpoints,
		client:    &http.Client{Timeout: 5 * time.Second},
		interval:  interval,
		maxAge:    maxAge,
		now:       time.Now,
		statuses:  make(map[string]ProtocolStatus),
	}
}

// Start begins the check loop. The first check runs immediately.
func (m *ProtocolStatusMonitor) Start() {
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
		m.Refresh(context.Background())

		for {
			select {
			case <-done:
				if m.ticker != nil {
					m.ticker.Stop()
				}
				return
			case <-ticks:
				m.Refresh(context.Background())
			}
		}
	}()

	logrus.WithField("interval", m.interval).Info("protocol status monitor started")
}

// Stop stops the check loop.
func (m *ProtocolStatusMonitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	close(m.done)
	m.mu.Unlock()
	logrus.Info("protocol status monitor stopped")
}

// Refresh checks every registered protocol and updates the cache.
func (m *ProtocolStatusMonitor) Refresh(ctx context.Context) {
	for _, adapter := range m.registry.All() {
		protocol := adapter.Protocol()
		status := m.check(ctx, protocol)
		m.mu.Lock()
		m.statuses[protocol] = status
		m.mu.Unlock()
	}
}

// Status returns the cached status for a protocol. Missing and stale entries
// report ProtocolStatusUnknown.
func (m *ProtocolStatusMonitor) Status(protocol string) ProtocolStatus {
	m.mu.RLock()
	status, ok := m.statuses[protocol]
	m.mu.RUnlock()

	if !ok || m.IsStale(status) {
		return ProtocolStatus{Protocol: protocol, Status: ProtocolStatusUnknown}
	}
	return status
}

// Snapshot returns a copy of every cached status.
func (m *ProtocolStatusMonitor) Snapshot() map[string]ProtocolStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make(map[string]ProtocolStatus, len(m.statuses))
	for protocol, status := range m.statuses {
		statuses[protocol] = status
	}
	return statuses
}

// IsStale reports whether a cached entry is past the freshness window.
func (m *ProtocolStatusMonitor) IsStale(status ProtocolStatus) bool {
	if status.LastChecked.IsZero() {
		return true
	}
	return m.now().Sub(status.LastChecked) > m.maxAge
}

// check probes one protocol's quoting endpoint. Any HTTP answer counts as
// operational; only transport failures degrade the protocol.
func (m *ProtocolStatusMonitor) check(ctx context.Context, protocol string) ProtocolStatus {
	status := ProtocolStatus{
		Protocol:    protocol,
		Status:      ProtocolStatusOperational,
		LastChecked: m.now(),
	}

	endpoint := m.endpoints[protocol]
	if endpoint == "" {
		return status
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	started := m.now()
	req, err := http.NewRequestWithContext(reqCtx, "GET", endpoint, nil)
	if err != nil {
		status.Status = ProtocolStatusDegraded
		return status
	}
	resp, err := m.client.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"protocol": protocol,
			"error":    err,
		}).Warn("protocol endpoint unreachable")
		status.Status = ProtocolStatusDegraded
		return status
	}
	resp.Body.Close()

	status.ResponseMs = m.now().Sub(started).Milliseconds()
	return status
}
