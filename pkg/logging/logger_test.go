package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   LogLevel
		want    zerolog.Level
		wantErr bool
	}{
		{LevelDebug, zerolog.DebugLevel, false},
		{LevelInfo, zerolog.InfoLevel, false},
		{LevelWarn, zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{" ERROR ", zerolog.ErrorLevel, false},
		{"trace", zerolog.TraceLevel, false},
		{"", zerolog.InfoLevel, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    LogLevel
		visible  []string
		filtered []string
	}{
		{LevelDebug, []string{"cache hit", "request done", "reconnecting", "flush failed"}, nil},
		{LevelInfo, []string{"request done", "reconnecting", "flush failed"}, []string{"cache hit"}},
		{"warning", []string{"reconnecting", "flush failed"}, []string{"cache hit", "request done"}},
		{LevelError, []string{"flush failed"}, []string{"cache hit", "request done", "reconnecting"}},
		{"verbose", []string{"request done"}, []string{"cache hit"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			Setup(Config{Level: tt.level, Output: buf})

			logger := NewLogger("cache")
			logger.Debug().Msg("cache hit")
			logger.Info().Msg("request done")
			logger.Warn().Msg("reconnecting")
			logger.Error().Msg("flush failed")

			output := buf.String()
			for _, msg := range tt.visible {
				if !strings.Contains(output, msg) {
					t.Errorf("level %q: expected %q in output %q", tt.level, msg, output)
				}
			}
			for _, msg := range tt.filtered {
				if strings.Contains(output, msg) {
					t.Errorf("level %q: %q should be filtered, got %q", tt.level, msg, output)
				}
			}
		})
	}
}

func TestNewLogger_TagsComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("store")
	logger.Info().Str("addr", "localhost:6379").Msg("Store ready")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a JSON line: %v (%q)", err, buf.String())
	}
	if entry["component"] != "store" {
		t.Errorf("component = %v, want store", entry["component"])
	}
	if entry["addr"] != "localhost:6379" {
		t.Errorf("addr = %v, want localhost:6379", entry["addr"])
	}
	if entry["time"] == nil {
		t.Error("expected a timestamp field")
	}
}

func TestSetup_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Pretty: true, Output: buf})

	logger := NewLogger("http")
	logger.Info().Msg("Request completed")

	output := buf.String()
	if !strings.Contains(output, "Request completed") {
		t.Errorf("expected message in console output, got %q", output)
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("pretty output should not be JSON, got %q", output)
	}
}

func TestDefaultConfig_WritesToStderr(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("default level = %q, want info", cfg.Level)
	}
	if cfg.Output == nil {
		t.Error("default output should be set")
	}

	cfg.Output = nil
	Setup(cfg)
	t.Cleanup(func() { Setup(Config{Level: LevelInfo, Output: &bytes.Buffer{}}) })
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("global level = %v, want info", got)
	}
}
