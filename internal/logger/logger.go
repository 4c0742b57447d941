package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l Level) String() string {
	return levelNames[l]
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component represents the logging component
type Component string

const (
	ComponentApp       Component = "app"
	ComponentLoader    Component = "loader"
	ComponentInnerTube Component = "innertube"
	ComponentCipher    Component = "cipher"
	ComponentScript    Component = "playerscript"
	ComponentClient    Component = "client"
	ComponentBotGuard  Component = "botguard"
	ComponentAPI       Component = "api"
	ComponentFormat    Component = "format"
	ComponentTelemetry Component = "telemetry"
)

const (
	componentFieldName = "component"
	defaultTimeLayout  = "2006-01-02 15:04:05"
)

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  INFO,
		Format: FormatText,
		Output: os.Stderr,
		Components: map[Component]bool{
			ComponentApp:       true,
			ComponentLoader:    true,
			ComponentInnerTube: false,
			ComponentCipher:    false,
			ComponentScript:    false,
			ComponentClient:    false,
			ComponentBotGuard:  false,
			ComponentAPI:       true,
			ComponentFormat:    false,
			ComponentTelemetry: true,
		},
		ShowCaller: false,
		Timestamp:  false,
	}
}

// Logger filters entries by level and component and hands them to zerolog.
type Logger struct {
	config *Config
	zl     zerolog.Logger
	mu     sync.RWMutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	l := &Logger{config: config}
	l.rebuild()
	return l
}

// rebuild recreates the zerolog backend; callers must hold mu or own l exclusively.
func (l *Logger) rebuild() {
	out := l.config.Output
	if out == nil {
		out = os.Stderr
	}
	out = zerolog.SyncWriter(out)

	var w io.Writer = out
	switch l.config.Format {
	case FormatText, FormatColor:
		cw := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    l.config.Format == FormatText,
			TimeFormat: defaultTimeLayout,
		}
		if !l.config.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		w = cw
	}

	ctx := zerolog.New(w).Level(l.config.Level.zerolog()).With()
	if l.config.Timestamp {
		ctx = ctx.Timestamp()
	}
	if l.config.ShowCaller {
		ctx = ctx.CallerWithSkipFrameCount(5)
	}
	if l.config.Level == TRACE && zerolog.GlobalLevel() > zerolog.TraceLevel {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
	l.zl = ctx.Logger()
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
	l.rebuild()
}

// SetFormat changes the log format
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Format = format
	l.rebuild()
}

// SetOutput changes the log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
	l.rebuild()
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

// DisableComponent disables logging for a specific component
func (l *Logger) DisableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = false
}

// Zerolog returns the underlying zerolog logger annotated with component.
// Use it for libraries that expect a zerolog.Logger directly.
func (l *Logger) Zerolog(component Component) zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl.With().Str(componentFieldName, string(component)).Logger()
}

func (l *Logger) enabled(level Level, component Component) bool {
	return level >= l.config.Level && l.config.Components[component]
}

// log writes a log entry
func (l *Logger) log(level Level, component Component, message string, fields map[string]any) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.enabled(level, component) {
		return
	}

	ev := l.zl.WithLevel(level.zerolog()).Str(componentFieldName, string(component))
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(message)
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...map[string]any) {
	cl.log(TRACE, message, fields...)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...map[string]any) {
	cl.log(DEBUG, message, fields...)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...map[string]any) {
	cl.log(INFO, message, fields...)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...map[string]any) {
	cl.log(WARN, message, fields...)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...map[string]any) {
	cl.log(ERROR, message, fields...)
}

// Enabled reports whether an entry at level would be written. Use it to skip
// building expensive fields.
func (cl *ComponentLogger) Enabled(level Level) bool {
	cl.logger.mu.RLock()
	defer cl.logger.mu.RUnlock()
	return cl.logger.enabled(level, cl.component)
}

func (cl *ComponentLogger) log(level Level, message string, fields ...map[string]any) {
	var merged map[string]any
	switch len(fields) {
	case 0:
	case 1:
		merged = fields[0]
	default:
		merged = make(map[string]any)
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.logger.log(level, cl.component, message, merged)
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return New(&Config{Level: ERROR + 1, Output: io.Discard, Components: map[Component]bool{}})
}

var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger from global logger
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}

// Since returns elapsed milliseconds, the unit used for duration fields.
func Since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
