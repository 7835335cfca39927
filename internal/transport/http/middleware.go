package http

import (
	"net/http"
	"strings"
	"time"

	"assessment-service/internal/auth"
	"assessment-service/internal/observability"
	"assessment-service/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

const adminClaimsKey = "adminClaims"

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			fields = append(fields, "trace_id", sc.TraceID().String())
		}
		if claims, ok := c.Get(adminClaimsKey); ok {
			fields = append(fields, "admin_id", claims.(*auth.Claims).AdminID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Metrics instruments HTTP request counts and latency.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.APIInflightInc()
		defer m.APIInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// RequireAdmin rejects requests without a valid admin token. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted too.
func RequireAdmin(tokens *auth.TokenManager, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequireAdmin")
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" || tokens == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := tokens.Verify(tokenString)
		if err != nil {
			log.Debug("admin token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("token")
}
