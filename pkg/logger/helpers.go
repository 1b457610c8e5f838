package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogGatewayRequest logs a completed gateway round trip
func LogGatewayRequest(l Logger, method, path string, statusCode int, durationMS float64) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": durationMS,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("Gateway request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("Gateway request client error", fields)
	default:
		l.DebugWithFields("Gateway request completed", fields)
	}
}

// LogDownload logs the outcome of a single message download
func LogDownload(l Logger, jobID string, mediaType string, messageID int, err error) {
	entry := l.WithFields(map[string]interface{}{
		"job_id":     jobID,
		"media_type": mediaType,
		"message_id": messageID,
	})

	if err != nil {
		entry.WithError(err).Warn("Download failed, skipping")
		return
	}
	entry.Debug("Download completed")
}

// LogRateLimit logs a flood wait reported by the gateway
func LogRateLimit(l Logger, endpoint string, retryAfter int) {
	l.WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogPageProgress logs how far a media type has advanced
func LogPageProgress(l Logger, jobID string, mediaType string, pageSize, offset int) {
	l.WithFields(map[string]interface{}{
		"job_id":     jobID,
		"media_type": mediaType,
		"page_size":  pageSize,
		"offset":     offset,
	}).Info("Page committed")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(config) > 0 {
		entry = entry.WithFields(config)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// Percent formats done/total for progress fields
func Percent(done, total int64) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(done)/float64(total)*100)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
