package shared

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIP resolves the originating address, trusting proxy headers first.
// Every consumer keys on this one resolver so the lockout, the limiter and
// the allow-list always see the same address for a request.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		ip := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(c.Context().RemoteAddr().String()); err == nil {
		return host
	}

	return c.IP()
}
