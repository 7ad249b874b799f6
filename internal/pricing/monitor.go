package pricing

import (
	"context"
	"sync"
	"time"

	"swap4x-backend/internal/models"
	"swap4x-backend/internal/repository"

	"github.com/sirupsen/logrus"
)

// PriceChangeListener receives the entries updated by each refresh cycle.
type PriceChangeListener interface {
	OnPriceChange(entries []PriceEntry)
}

// Monitor refreshes the oracle on an interval, persists each refresh to the
// price history table, and notifies listeners.
type Monitor struct {
	oracle    *Oracle
	history   repository.PriceHistoryRepository
	symbols   []string
	interval  time.Duration
	retention time.Duration

	mu        sync.RWMutex
	listeners []PriceChangeListener
	ticker    *time.Ticker
	ticks     <-chan time.Time // overridable for tests
	done      chan bool
	isRunning bool
}

// NewMonitor creates a price monitor. history may be nil when persistence is
// not wanted; retention bounds how far back persisted rows are kept, with
// zero disabling pruning.
func NewMonitor(oracle *Oracle, history repository.PriceHistoryRepository, symbols []string, interval, retention time.Duration) *Monitor {
	return &Monitor{
		oracle:    oracle,
		history:   history,
		symbols:   symbols,
		interval:  interval,
		retention: retention,
	}
}

// AddListener registers a listener for refresh notifications.
func (m *Monitor) AddListener(l PriceChangeListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Start begins the refresh loop. The first refresh runs immediately.
func (m *Monitor) Start() {
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
		m.refresh()

		for {
			select {
			case <-done:
				if m.ticker != nil {
					m.ticker.Stop()
				}
				return
			case <-ticks:
				m.refresh()
			}
		}
	}()

	logrus.WithField("interval", m.interval).Info("price monitor started")
}

// Stop stops the refresh loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	close(m.done)
	m.mu.Unlock()
	logrus.Info("price monitor stopped")
}

func (m *Monitor) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updated := m.oracle.Refresh(ctx, m.symbols)
	if len(updated) == 0 {
		return
	}

	if m.history != nil {
		entries := make([]*models.PriceHistory, 0, len(updated))
		for _, e := range updated {
			entries = append(entries, &models.PriceHistory{
				Symbol:   e.Symbol,
				PriceUSD: e.PriceUSD,
				Source:   e.Source,
			})
		}
		if err := m.history.CreateBatch(ctx, entries); err != nil {
			logrus.WithError(err).Warn("failed to persist price history")
		}
		if m.retention > 0 {
			if pruned, err := m.history.PruneOlderThan(ctx, time.Now().Add(-m.retention)); err != nil {
				logrus.WithError(err).Warn("failed to prune price history")
			} else if pruned > 0 {
				logrus.WithField("rows", pruned).Debug("pruned price history")
			}
		}
	}

	m.mu.RLock()
	listeners := make([]PriceChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()
	for _, l := range listeners {
		l.OnPriceChange(updated)
	}
}
