package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func adminTestRouter(allowedIPs []string) *gin.Engine {
	router := gin.New()
	// trust the test client so X-Forwarded-For decides the client IP
	router.SetTrustedProxies([]string{"0.0.0.0/0"})
	admin := NewAdminOnly(allowedIPs)
	router.GET("/api/analytics", admin.Restrict(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func adminRequest(router *gin.Engine, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/analytics", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminOnlyAllowsLoopback(t *testing.T) {
	router := adminTestRouter(nil)
	w := adminRequest(router, "127.0.0.1:54321", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnlyAllowsWhitelistedIP(t *testing.T) {
	router := adminTestRouter([]string{"203.0.113.7"})
	w := adminRequest(router, "10.0.0.1:54321", "203.0.113.7")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnlyAllowsCIDRMatch(t *testing.T) {
	router := adminTestRouter([]string{"203.0.113.0/24"})
	w := adminRequest(router, "10.0.0.1:54321", "203.0.113.200")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnlyRejectsUnknownIP(t *testing.T) {
	router := adminTestRouter([]string{"203.0.113.7"})
	w := adminRequest(router, "10.0.0.1:54321", "198.51.100.9")
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "IP_NOT_ALLOWED", body["code"])
}

func TestAdminOnlyDirectLoopbackBypassesHeaders(t *testing.T) {
	router := adminTestRouter(nil)
	// proxy headers name a remote client, but the socket itself is local
	w := adminRequest(router, "127.0.0.1:54321", "198.51.100.9")
	assert.Equal(t, http.StatusOK, w.Code)
}
