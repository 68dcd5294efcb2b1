package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
)

// Logger writes one structured line per request including request_id and
// a browser/os summary of the client.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		ua := user_agent.New(c.Request.UserAgent())
		browser, version := ua.Browser()

		attrs := []any{
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(latency.Microseconds()) / 1000.0,
			"ip", c.ClientIP(),
			"browser", browser + " " + version,
			"os", ua.OS(),
			"mobile", ua.Mobile(),
		}
		if ua.Bot() {
			attrs = append(attrs, "bot", true)
		}

		switch {
		case status >= 500:
			slog.Error("[HTTP]", attrs...)
		case status >= 400:
			slog.Warn("[HTTP]", attrs...)
		default:
			slog.Info("[HTTP]", attrs...)
		}
	}
}
