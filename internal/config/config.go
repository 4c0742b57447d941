// Package config loads ytdetails settings from defaults, an optional config
// file, a .env file and YTDETAILS_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ytget/ytdetails/internal/botguard"
	"github.com/ytget/ytdetails/internal/logger"
	"github.com/ytget/ytdetails/internal/telemetry"
	"github.com/ytget/ytdetails/pkg/client"
)

// EnvPrefix prefixes every environment variable, e.g. YTDETAILS_HTTP_TIMEOUT.
const EnvPrefix = "YTDETAILS"

// EnvKeyReplacer maps configuration keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config is the complete application configuration.
type Config struct {
	HTTP      HTTPConfig       `mapstructure:"http"`
	Innertube InnertubeConfig  `mapstructure:"innertube"`
	Botguard  BotguardConfig   `mapstructure:"botguard"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Server    ServerConfig     `mapstructure:"server"`
	Telemetry TelemetryConfig  `mapstructure:"telemetry"`
	Log       logger.LogConfig `mapstructure:"log"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	Proxy             string        `mapstructure:"proxy"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// InnertubeConfig selects the client identity sent to the platform.
type InnertubeConfig struct {
	ClientName    string `mapstructure:"client_name"`
	ClientVersion string `mapstructure:"client_version"`
	BaseURL       string `mapstructure:"base_url"`
}

// BotguardConfig enables attestation through a JavaScript solver.
type BotguardConfig struct {
	Mode   string        `mapstructure:"mode"`
	Script string        `mapstructure:"script"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig enables the shared player script slot when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen            string        `mapstructure:"listen"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// TelemetryConfig configures OTLP tracing.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Endpoint     string  `mapstructure:"endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// Defaults returns the factory default of every key.
func Defaults() map[string]any {
	lc := logger.DefaultLogConfig()
	return map[string]any{
		"http.timeout":             30 * time.Second,
		"http.user_agent":          "",
		"http.proxy":               "",
		"http.requests_per_second": 0.0,
		"http.burst":               1,

		"innertube.client_name":    "WEB",
		"innertube.client_version": "",
		"innertube.base_url":       "",

		"botguard.mode":   "off",
		"botguard.script": "",
		"botguard.ttl":    30 * time.Minute,

		"redis.addr":     "",
		"redis.password": "",
		"redis.db":       0,
		"redis.key":      "ytdetails:player_script",

		"server.listen":              ":8080",
		"server.requests_per_minute": 120,
		"server.shutdown_timeout":    10 * time.Second,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.insecure":      true,
		"telemetry.sampling_rate": 1.0,

		"log.level":                lc.Level,
		"log.format":               lc.Format,
		"log.output":               lc.Output,
		"log.show_caller":          lc.ShowCaller,
		"log.timestamp":            lc.Timestamp,
		"log.rotation.max_size":    lc.Rotation.MaxSize,
		"log.rotation.max_backups": lc.Rotation.MaxBackups,
		"log.rotation.compress":    lc.Rotation.Compress,
	}
}

// Load reads the configuration. path names an explicit config file; when
// empty, ytdetails.{yaml,toml,json} is looked up in the working directory and
// a missing file is not an error. envFiles are loaded into the environment
// first (".env" when none are given); missing ones are skipped.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("ytdetails")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Log.Components) == 0 {
		cfg.Log.Components = logger.DefaultLogConfig().Components
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := botguard.ParseMode(c.Botguard.Mode); err != nil {
		return err
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must not be negative")
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("telemetry.sampling_rate must be between 0 and 1")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// BotguardMode returns the parsed botguard mode.
func (c *Config) BotguardMode() botguard.Mode {
	m, _ := botguard.ParseMode(c.Botguard.Mode)
	return m
}

// ClientConfig returns the outbound HTTP client settings.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		Timeout:           c.HTTP.Timeout,
		UserAgent:         c.HTTP.UserAgent,
		ProxyURL:          c.HTTP.Proxy,
		RequestsPerSecond: c.HTTP.RequestsPerSecond,
		Burst:             c.HTTP.Burst,
	}
}

// TelemetryConfig returns the tracing settings for service.
func (c *Config) TelemetryConfig(service, version string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    service,
		ServiceVersion: version,
		Endpoint:       c.Telemetry.Endpoint,
		Insecure:       c.Telemetry.Insecure,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}
