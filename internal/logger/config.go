package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override read by EnvironmentConfig.
const EnvPrefix = "YTDETAILS_LOG_"

// LogConfig is the textual form of Config, as found in config files and env.
type LogConfig struct {
	Level      string          `mapstructure:"level" json:"level"`
	Format     string          `mapstructure:"format" json:"format"`
	Output     string          `mapstructure:"output" json:"output"`
	Components map[string]bool `mapstructure:"components" json:"components"`
	ShowCaller bool            `mapstructure:"show_caller" json:"show_caller"`
	Timestamp  bool            `mapstructure:"timestamp" json:"timestamp"`
	Rotation   RotationConfig  `mapstructure:"rotation" json:"rotation"`
}

// RotationConfig applies to file: outputs only.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" json:"max_size"` // e.g. "100MB"
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// DefaultLogConfig mirrors DefaultConfig in textual form.
func DefaultLogConfig() *LogConfig {
	components := make(map[string]bool)
	for c, on := range DefaultConfig().Components {
		components[string(c)] = on
	}
	return &LogConfig{
		Level:      "INFO",
		Format:     "text",
		Output:     "stderr",
		Components: components,
		Rotation: RotationConfig{
			MaxSize:    "50MB",
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// ToLoggerConfig converts LogConfig to logger.Config, opening file outputs.
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}
	output, err := c.openOutput()
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	components := make(map[Component]bool, len(c.Components))
	for name, enabled := range c.Components {
		components[Component(strings.ToLower(name))] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

func (c *LogConfig) openOutput() (io.Writer, error) {
	switch strings.ToLower(c.Output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "null", "none":
		return io.Discard, nil
	}
	path, ok := strings.CutPrefix(c.Output, "file:")
	if !ok || path == "" {
		return nil, fmt.Errorf("unknown output: %s", c.Output)
	}
	maxSize, err := parseSize(c.Rotation.MaxSize)
	if err != nil {
		return nil, err
	}
	return NewRotatingWriter(path, maxSize, c.Rotation.MaxBackups, c.Rotation.Compress)
}

// Validate checks every field without opening outputs.
func (c *LogConfig) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	switch out := strings.ToLower(c.Output); {
	case out == "", out == "stderr", out == "stdout", out == "null", out == "none":
	case strings.HasPrefix(c.Output, "file:") && len(c.Output) > len("file:"):
	default:
		return fmt.Errorf("invalid output: %s", c.Output)
	}
	if _, err := parseSize(c.Rotation.MaxSize); err != nil {
		return fmt.Errorf("invalid rotation max_size: %w", err)
	}
	if c.Rotation.MaxBackups < 0 {
		return fmt.Errorf("invalid rotation: max_backups must be non-negative")
	}
	return nil
}

// CreateLoggerFromConfig creates a logger from LogConfig
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}
	return New(loggerConfig), nil
}

// EnvironmentConfig returns DefaultLogConfig with YTDETAILS_LOG_* overrides applied.
func EnvironmentConfig() *LogConfig {
	config := DefaultLogConfig()
	config.ApplyEnv(os.Getenv)
	return config
}

// ApplyEnv overrides fields from YTDETAILS_LOG_* variables looked up through getenv.
// YTDETAILS_LOG_COMPONENTS replaces the component map with the listed names.
func (c *LogConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvPrefix + "LEVEL"); v != "" {
		c.Level = v
	}
	if v := getenv(EnvPrefix + "FORMAT"); v != "" {
		c.Format = v
	}
	if v := getenv(EnvPrefix + "OUTPUT"); v != "" {
		c.Output = v
	}
	if v := getenv(EnvPrefix + "CALLER"); v != "" {
		c.ShowCaller = parseBool(v)
	}
	if v := getenv(EnvPrefix + "TIMESTAMP"); v != "" {
		c.Timestamp = parseBool(v)
	}
	if v := getenv(EnvPrefix + "COMPONENTS"); v != "" {
		c.Components = make(map[string]bool)
		for _, comp := range strings.Split(v, ",") {
			if comp = strings.TrimSpace(comp); comp != "" {
				c.Components[strings.ToLower(comp)] = true
			}
		}
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

// parseSize parses "512", "10KB", "100MB" or "1GB" into bytes. Empty means no limit.
func parseSize(sizeStr string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(sizeStr))
	if s == "" {
		return 0, nil
	}
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i == 0 {
		return 0, fmt.Errorf("no number found in size: %s", sizeStr)
	}
	numStr, unit := s, ""
	if i > 0 {
		numStr, unit = s[:i], strings.TrimSpace(s[i:])
	}
	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number: %w", err)
	}
	switch unit {
	case "", "B":
		return num, nil
	case "KB":
		return num << 10, nil
	case "MB":
		return num << 20, nil
	case "GB":
		return num << 30, nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}
