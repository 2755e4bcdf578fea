package config

import (
	"log/slog"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(nil, lookupFrom(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("ListenAddr=%q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.Mode != ModeDev {
		t.Fatalf("Mode=%q, want dev", cfg.Mode)
	}
	if cfg.LogFormat != LogFormatText {
		t.Fatalf("LogFormat=%q, want text in dev mode", cfg.LogFormat)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel=%v, want debug in dev mode", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdown {
		t.Fatalf("ShutdownTimeout=%v, want %v", cfg.ShutdownTimeout, DefaultShutdown)
	}
	if cfg.MaxSignalingMessageBytes != DefaultMaxSignalingMessageBytes {
		t.Fatalf("MaxSignalingMessageBytes=%d", cfg.MaxSignalingMessageBytes)
	}
	if cfg.EstimatedWaitMinutesPerPosition != DefaultEstimatedWaitMinutes {
		t.Fatalf("EstimatedWaitMinutesPerPosition=%d", cfg.EstimatedWaitMinutesPerPosition)
	}
	if cfg.TURNREST.Enabled() {
		t.Fatal("TURN REST should be disabled by default")
	}
	if cfg.ICEConfigError() != nil {
		t.Fatalf("unexpected ICE config error: %v", cfg.ICEConfigError())
	}
	if len(cfg.ICEServers) != 0 {
		t.Fatalf("ICEServers=%v, want none", cfg.ICEServers)
	}
}

func TestLoad_ProdModeDefaultsToJSONLogs(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"VETLINK_CONSULT_RELAY_MODE": "prod",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogFormat != LogFormatJSON {
		t.Fatalf("LogFormat=%q, want json in prod mode", cfg.LogFormat)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel=%v, want info in prod mode", cfg.LogLevel)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	cfg, err := load(
		[]string{"--listen-addr", "0.0.0.0:9000", "--log-level", "warn", "--estimated-wait-minutes-per-position", "7"},
		lookupFrom(map[string]string{
			"VETLINK_CONSULT_RELAY_LISTEN_ADDR":   "127.0.0.1:1234",
			"ESTIMATED_WAIT_MINUTES_PER_POSITION": "3",
		}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Fatalf("ListenAddr=%q, want flag value", cfg.ListenAddr)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel=%v, want warn", cfg.LogLevel)
	}
	if cfg.EstimatedWaitMinutesPerPosition != 7 {
		t.Fatalf("EstimatedWaitMinutesPerPosition=%d, want 7", cfg.EstimatedWaitMinutesPerPosition)
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"ALLOWED_ORIGINS": " https://app.vetlink.example , http://localhost:5173 ,",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"https://app.vetlink.example", "http://localhost:5173"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins=%v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins=%v, want %v", cfg.AllowedOrigins, want)
		}
	}
}

func TestLoad_ShutdownTimeoutFromEnv(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"VETLINK_CONSULT_RELAY_SHUTDOWN_TIMEOUT": "2s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Fatalf("ShutdownTimeout=%v, want 2s", cfg.ShutdownTimeout)
	}

	if _, err := load(nil, lookupFrom(map[string]string{
		"VETLINK_CONSULT_RELAY_SHUTDOWN_TIMEOUT": "soon",
	})); err == nil {
		t.Fatal("expected error for unparsable shutdown timeout")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid mode", map[string]string{"VETLINK_CONSULT_RELAY_MODE": "staging"}},
		{"invalid log format", map[string]string{"VETLINK_CONSULT_RELAY_LOG_FORMAT": "xml"}},
		{"invalid log level", map[string]string{"VETLINK_CONSULT_RELAY_LOG_LEVEL": "loud"}},
		{"zero message size", map[string]string{"MAX_SIGNALING_MESSAGE_BYTES": "0"}},
		{"negative message rate", map[string]string{"MAX_SIGNALING_MESSAGES_PER_SECOND": "-1"}},
		{"negative wait estimate", map[string]string{"ESTIMATED_WAIT_MINUTES_PER_POSITION": "-2"}},
		{"turn rest zero ttl", map[string]string{
			"TURN_REST_SHARED_SECRET": "s",
			"TURN_REST_TTL_SECONDS":   "0",
		}},
		{"turn rest prefix with colon", map[string]string{
			"TURN_REST_SHARED_SECRET":   "s",
			"TURN_REST_USERNAME_PREFIX": "a:b",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(nil, lookupFrom(tt.env)); err == nil {
				t.Fatalf("expected load error for env %v", tt.env)
			}
		})
	}
}

func TestLoad_ICEConfigErrorIsDeferred(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"VETLINK_ICE_SERVERS_JSON": "not json",
	}))
	if err != nil {
		t.Fatalf("load must not fail on ICE misconfiguration: %v", err)
	}
	if cfg.ICEConfigError() == nil {
		t.Fatal("expected deferred ICE config error")
	}
}

func TestLoad_MessageRateZeroDisablesLimit(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"MAX_SIGNALING_MESSAGES_PER_SECOND": "0",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxSignalingMessagesPerSecond != 0 {
		t.Fatalf("MaxSignalingMessagesPerSecond=%d, want 0", cfg.MaxSignalingMessagesPerSecond)
	}
}

func TestNewLogger_RejectsUnknownFormat(t *testing.T) {
	if _, err := NewLogger(Config{LogFormat: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
	logger, err := NewLogger(Config{LogFormat: LogFormatJSON})
	if err != nil || logger == nil {
		t.Fatalf("NewLogger(json): logger=%v err=%v", logger, err)
	}
}
