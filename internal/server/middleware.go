package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/offerdesk/internal/actorcontext"
	"github.com/smallbiznis/offerdesk/internal/logger"
	obsmetrics "github.com/smallbiznis/offerdesk/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	HeaderRequestID  = "X-Request-Id"
	HeaderAuthorID   = "X-Author-Id"
	HeaderAuthorName = "X-Author-Name"
)

// RequestContext propagates or generates the request id.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		ctx := actorcontext.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Actor reads the acting author from request headers.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := actorcontext.WithActor(c.Request.Context(), actorcontext.Actor{
			ID:   c.GetHeader(HeaderAuthorID),
			Name: c.GetHeader(HeaderAuthorName),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs each request with correlation identifiers.
func RequestLogger(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			errStatus, _ := mapError(lastErr.Err)
			fields = append(fields,
				zap.Int("error_status", errStatus),
				zap.String("error", lastErr.Err.Error()),
			)
			if debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		log := logger.FromContext(c.Request.Context())
		switch {
		case route == "/metrics" || route == "/health":
			log.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

// Metrics records request counts and latency per route.
func Metrics(m *obsmetrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.Observe(c.FullPath(), c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
