// Package logger provides the structured logging interface used across tgbulkdl.
//
// It wraps zerolog behind a small Logger interface so that packages can
// attach fields without importing zerolog directly:
//
//	log := logger.GetLogger().
//	    WithField("component", "engine").
//	    WithField("job_id", job.ID)
//
//	log.InfoWithFields("Page committed", map[string]interface{}{
//	    "media_type": "pictures",
//	    "offset":     600,
//	})
//
// Console output is colourised and written to stderr. Setting
// logging.file additionally writes JSON lines to a file rotated by
// lumberjack according to max_size, max_backups, max_age and compress.
//
// Tests use NewTestLogger to capture lines, or NewNopLogger to discard them.
package logger
