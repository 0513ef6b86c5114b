package middleware

import (
	"strings"
	"time"

	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey ключ trace-ID в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Пути из quiet (например /health, /metrics) пишутся на уровне Debug.
type RequestLogger struct {
	logger *logging.Logger
	quiet  []string
}

func NewRequestLogger(logger *logging.Logger, quiet ...string) *RequestLogger {
	return &RequestLogger{logger: logger, quiet: quiet}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		entry := rl.logger.WithFields(logging.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
			"trace":   traceID,
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("[HTTP] ❌ %s %s", c.Request.Method, path)
		case rl.isQuiet(path):
			entry.Debug("[HTTP] %s %s", c.Request.Method, path)
		default:
			entry.Info("[HTTP] ◀ %s %s", c.Request.Method, path)
		}
	}
}

func (rl *RequestLogger) isQuiet(path string) bool {
	for _, q := range rl.quiet {
		if strings.HasPrefix(path, q) {
			return true
		}
	}
	return false
}
