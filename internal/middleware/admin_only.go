package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminOnly restricts analytics and admin endpoints to localhost or
// whitelisted IPs/CIDRs.
type AdminOnly struct {
	allowedIPs []string
}

// NewAdminOnly creates the restriction middleware.
func NewAdminOnly(allowedIPs []string) *AdminOnly {
	return &AdminOnly{allowedIPs: allowedIPs}
}

// Restrict rejects requests from non-whitelisted addresses.
func (a *AdminOnly) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if a.isAllowed(clientIP) {
			c.Next()
			return
		}

		// direct loopback connections pass even when proxy headers resolve
		// to something else
		if remoteIP, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && isLoopback(remoteIP) {
			c.Next()
			return
		}

		logrus.WithFields(logrus.Fields{
			"client_ip": clientIP,
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		}).Warn("rejected non-whitelisted access to admin API")

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "This API is only accessible from allowed IP addresses",
			"code":    "IP_NOT_ALLOWED",
		})
	}
}

func (a *AdminOnly) isAllowed(ip string) bool {
	if isLoopback(ip) {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, allowed := range a.allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if strings.Contains(allowed, "/") {
			if _, ipNet, err := net.ParseCIDR(allowed); err == nil && ipNet.Contains(parsed) {
				return true
			}
			continue
		}
		if allowedIP := net.ParseIP(allowed); allowedIP != nil && allowedIP.Equal(parsed) {
			return true
		}
	}
	return false
}

func isLoopback(ip string) bool {
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
