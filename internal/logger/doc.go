// Package logger provides component-scoped structured logging on top of zerolog.
//
// Every subsystem of the track-details pipeline logs through its own
// ComponentLogger, and each component can be switched on or off
// independently of the level:
//
//	log := logger.WithComponent(logger.ComponentLoader)
//	log.Info("Loaded track details", map[string]any{
//		"video_id":    id,
//		"duration_ms": logger.Since(start),
//	})
//
// Output formats are text, color (both via zerolog.ConsoleWriter) and JSON.
// LogConfig is the textual form used by configuration files and
// YTDETAILS_LOG_* environment variables; file outputs ("file:/path") are
// rotated by size.
package logger
