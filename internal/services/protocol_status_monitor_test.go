package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap4x-backend/internal/bridges"
)

func TestProtocolStatusCheckReachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := bridges.DefaultRegistry(server.URL, "")
	endpoints := map[string]string{"stargate": server.URL}
	m := NewProtocolStatusMonitor(registry, endpoints, time.Minute, 10*time.Minute)

	m.Refresh(context.Background())

	status := m.Status("stargate")
	assert.Equal(t, ProtocolStatusOperational, status.Status)
	assert.False(t, status.LastChecked.IsZero())
}

func TestProtocolStatusCheckUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	registry := bridges.DefaultRegistry(server.URL, "")
	endpoints := map[string]string{"stargate": server.URL}
	m := NewProtocolStatusMonitor(registry, endpoints, time.Minute, 10*time.Minute)

	m.Refresh(context.Background())

	assert.Equal(t, ProtocolStatusDegraded, m.Status("stargate").Status)
}

func TestProtocolStatusStaticProtocolsAlwaysOperational(t *testing.T) {
	registry := bridges.DefaultRegistry("", "")
	m := NewProtocolStatusMonitor(registry, nil, time.Minute, 10*time.Minute)

	m.Refresh(context.Background())

	snapshot := m.Snapshot()
	require.Len(t, snapshot, 5)
	for protocol, status := range snapshot {
		assert.Equal(t, ProtocolStatusOperational, status.Status, protocol)
	}
}

func TestProtocolStatusStaleEntryReportsUnknown(t *testing.T) {
	registry := bridges.DefaultRegistry("", "")
	m := NewProtocolStatusMonitor(registry, nil, time.Minute, 10*time.Minute)

	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m.Refresh(context.Background())
	assert.Equal(t, ProtocolStatusOperational, m.Status("hop").Status)

	clock = clock.Add(11 * time.Minute)
	assert.Equal(t, ProtocolStatusUnknown, m.Status("hop").Status)

	// a never-checked protocol is unknown too
	assert.Equal(t, ProtocolStatusUnknown, m.Status("wormhole").Status)
}

func TestProtocolStatusTickDrivenRefresh(t *testing.T) {
	registry := bridges.DefaultRegistry("", "")
	m := NewProtocolStatusMonitor(registry, nil, time.Minute, 10*time.Minute)

	ticks := make(chan time.Time)
	m.ticks = ticks
	m.Start()
	defer m.Stop()

	// the first check runs without any tick
	require.Eventually(t, func() bool {
		return len(m.Snapshot()) == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProtocolStatusStopHaltsLoop(t *testing.T) {
	registry := bridges.DefaultRegistry("", "")
	m := NewProtocolStatusMonitor(registry, nil, time.Minute, 10*time.Minute)

	ticks := make(chan time.Time)
	m.ticks = ticks
	m.Start()
	require.Eventually(t, func() bool {
		return len(m.Snapshot()) == 5
	}, 2*time.Second, 10*time.Millisecond)
	m.Stop()

	time.Sleep(100 * time.Millisecond)
	select {
	case ticks <- time.Now():
		t.Fatal("loop consumed a tick after Stop")
	case <-time.After(200 * time.Millisecond):
	}
}
