package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/atelier/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	headerRequestID     = "X-Request-Id"
	headerCorrelationID = "X-Correlation-Id"
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps the last handler error to an (error_type, error_code) pair.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware stamps request and correlation ids on the request context and
// echoes them back as headers, then writes one http_request entry per call.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := incomingRequestID(c)
		c.Set("request_id", requestID)
		c.Header(headerRequestID, requestID)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx, correlationID := obscontext.EnsureCorrelationID(ctx, c.GetHeader(headerCorrelationID))
		c.Header(headerCorrelationID, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		entry := requestEntry{
			route:   c.FullPath(),
			status:  c.Writer.Status(),
			elapsed: time.Since(start),
		}
		if entry.route == "" {
			entry.route = "unknown"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", entry.route),
			zap.Int("status", entry.status),
			zap.Int64("duration_ms", entry.elapsed.Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if last := c.Errors.Last(); last != nil {
			if cfg.ErrorClassifier != nil {
				entry.errorType, entry.errorCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields,
				zap.String("error_type", entry.errorType),
				zap.String("error_code", entry.errorCode),
			)
			if cfg.Debug {
				fields = append(fields, zap.Error(last.Err))
			}
		}

		log := FromContext(c.Request.Context())
		if ce := log.Check(entry.level(), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

type requestEntry struct {
	route     string
	status    int
	elapsed   time.Duration
	errorType string
	errorCode string
}

// level keeps probes and rejected input out of info logs and surfaces 5xx as errors.
func (e requestEntry) level() zapcore.Level {
	switch {
	case e.route == "/health" || e.route == "/metrics":
		return zapcore.DebugLevel
	case e.status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case e.status >= http.StatusBadRequest && e.errorType == "validation_error":
		return zapcore.DebugLevel
	case e.status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func incomingRequestID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(headerRequestID)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetString("request_id")); id != "" {
		return id
	}
	return uuid.NewString()
}
