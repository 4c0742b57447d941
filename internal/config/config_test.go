package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ytget/ytdetails/internal/botguard"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", noEnvFile(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Innertube.ClientName != "WEB" {
		t.Errorf("Expected WEB client, got %s", cfg.Innertube.ClientName)
	}
	if cfg.Server.Listen != ":8080" || cfg.Server.RequestsPerMinute != 120 {
		t.Errorf("Unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Redis.Key != "ytdetails:player_script" {
		t.Errorf("Unexpected redis key %s", cfg.Redis.Key)
	}
	if cfg.BotguardMode() != botguard.Off {
		t.Errorf("Expected botguard off, got %s", cfg.BotguardMode())
	}
	if cfg.Log.Level != "INFO" || len(cfg.Log.Components) == 0 {
		t.Errorf("Unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("YTDETAILS_HTTP_TIMEOUT", "5s")
	t.Setenv("YTDETAILS_HTTP_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("YTDETAILS_INNERTUBE_CLIENT_NAME", "MWEB")
	t.Setenv("YTDETAILS_REDIS_ADDR", "localhost:6379")
	t.Setenv("YTDETAILS_BOTGUARD_MODE", "force")
	t.Setenv("YTDETAILS_LOG_LEVEL", "debug")

	cfg, err := Load("", noEnvFile(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 rps, got %v", cfg.HTTP.RequestsPerSecond)
	}
	if cfg.Innertube.ClientName != "MWEB" {
		t.Errorf("Expected MWEB, got %s", cfg.Innertube.ClientName)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected redis addr, got %s", cfg.Redis.Addr)
	}
	if cfg.BotguardMode() != botguard.Force {
		t.Errorf("Expected force, got %s", cfg.BotguardMode())
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ytdetails.yaml")
	content := `
http:
  timeout: 12s
  proxy: http://proxy.local:3128
server:
  listen: 127.0.0.1:9090
telemetry:
  enabled: true
  endpoint: collector:4318
  sampling_rate: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, noEnvFile(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Timeout != 12*time.Second || cfg.HTTP.Proxy != "http://proxy.local:3128" {
		t.Errorf("Unexpected http config: %+v", cfg.HTTP)
	}
	if cfg.Server.Listen != "127.0.0.1:9090" {
		t.Errorf("Unexpected listen address %s", cfg.Server.Listen)
	}
	tc := cfg.TelemetryConfig("ytdetails", "test")
	if !tc.Enabled || tc.Endpoint != "collector:4318" || tc.SamplingRate != 0.5 || tc.ServiceName != "ytdetails" {
		t.Errorf("Unexpected telemetry config: %+v", tc)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "YTDETAILS_SERVER_REQUESTS_PER_MINUTE"
	_ = os.Unsetenv(key)
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=42\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.RequestsPerMinute != 42 {
		t.Errorf("Expected 42 requests per minute from .env, got %d", cfg.Server.RequestsPerMinute)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
	if err == nil {
		t.Fatal("Expected error for a missing config file")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "botguard mode", key: "YTDETAILS_BOTGUARD_MODE", value: "sometimes", want: "botguard"},
		{name: "sampling rate", key: "YTDETAILS_TELEMETRY_SAMPLING_RATE", value: "2", want: "sampling_rate"},
		{name: "telemetry endpoint", key: "YTDETAILS_TELEMETRY_ENABLED", value: "true", want: "endpoint"},
		{name: "negative rps", key: "YTDETAILS_HTTP_REQUESTS_PER_SECOND", value: "-1", want: "requests_per_second"},
		{name: "log level", key: "YTDETAILS_LOG_LEVEL", value: "loud", want: "log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("", noEnvFile(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	cfg := &Config{HTTP: HTTPConfig{Timeout: time.Second, UserAgent: "ua", Proxy: "http://p", RequestsPerSecond: 3, Burst: 2}}
	cc := cfg.ClientConfig()
	if cc.Timeout != time.Second || cc.UserAgent != "ua" || cc.ProxyURL != "http://p" || cc.RequestsPerSecond != 3 || cc.Burst != 2 {
		t.Errorf("Unexpected client config: %+v", cc)
	}
}

func TestEnvKeyReplacer(t *testing.T) {
	if got := EnvKeyReplacer.Replace("http.requests_per_second"); got != "http_requests_per_second" {
		t.Errorf("Expected http_requests_per_second, got %s", got)
	}
}
