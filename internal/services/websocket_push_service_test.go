package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap4x-backend/internal/pricing"
)

func dialPushService(t *testing.T, s *WebSocketPushService) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.HandleUpgrade))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPushServiceBroadcastsPriceUpdates(t *testing.T) {
	s := NewWebSocketPushService()
	conn := dialPushService(t, s)

	// give the hub a moment to register the connection
	time.Sleep(50 * time.Millisecond)

	entries := []pricing.PriceEntry{
		{Symbol: "ETH", PriceUSD: 3200.0, Source: "coingecko", FetchedAt: time.Now()},
	}
	s.OnPriceChange(entries)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg PushMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "price_update", msg.Type)
	assert.NotEmpty(t, msg.MessageID)
	assert.NotEmpty(t, msg.Timestamp)

	payload, ok := msg.Data.([]any)
	require.True(t, ok)
	require.Len(t, payload, 1)
	entry := payload[0].(map[string]any)
	assert.Equal(t, "ETH", entry["symbol"])
	assert.Equal(t, 3200.0, entry["price_usd"])
}

func TestPushServiceSendsSnapshotOnConnect(t *testing.T) {
	s := NewWebSocketPushService()
	s.SetSnapshotSource(func() []pricing.PriceEntry {
		return []pricing.PriceEntry{
			{Symbol: "ETH", PriceUSD: 3200.0, Source: "static", FetchedAt: time.Now()},
			{Symbol: "USDC", PriceUSD: 1.0, Source: "static", FetchedAt: time.Now()},
		}
	})
	conn := dialPushService(t, s)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg PushMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "price_snapshot", msg.Type)

	payload, ok := msg.Data.([]any)
	require.True(t, ok)
	assert.Len(t, payload, 2)
}

func TestPushServiceWithoutSubscribers(t *testing.T) {
	s := NewWebSocketPushService()

	// no connections registered, the update must be absorbed silently
	s.OnPriceChange([]pricing.PriceEntry{{Symbol: "USDC", PriceUSD: 1.0}})
}
