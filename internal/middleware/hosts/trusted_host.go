package hostsmw

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/logging"
)

// TrustedHosts rejects requests whose Host header, port stripped, is not in
// allowed. "*" allows any host and "*.example.com" allows subdomains.
// An empty list disables the check.
func TrustedHosts(allowed []string) echo.MiddlewareFunc {
	patterns := make([]string, 0, len(allowed))
	for _, h := range allowed {
		patterns = append(patterns, strings.ToLower(strings.TrimSpace(h)))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if len(patterns) == 0 {
			return next
		}
		return func(c echo.Context) error {
			host := hostOnly(c.Request().Host)
			if !hostAllowed(host, patterns) {
				logging.FromContext(c.Request().Context()).Warn("host_rejected", "status", 400, "host", host)
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid host header")
			}
			return next(c)
		}
	}
}

func hostOnly(hostport string) string {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}
	return strings.ToLower(strings.Trim(host, "[]"))
}

func hostAllowed(host string, patterns []string) bool {
	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "*."):
			if strings.HasSuffix(host, p[1:]) {
				return true
			}
		case p == host:
			return true
		}
	}
	return false
}
