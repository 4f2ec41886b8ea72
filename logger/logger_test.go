package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: "json"}
	return NewWithWriter(cfg, "test-svc", &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l, buf := newBufferLogger("invalid-level")
	l.Info("hello")
	m := decodeLine(t, buf)
	if m["level"] != "info" {
		t.Errorf("expected fallback to info, got %v", m["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger("warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn("kept")
	if decodeLine(t, buf)["message"] != "kept" {
		t.Error("expected warn message to be written")
	}
}

func TestFieldsAreWritten(t *testing.T) {
	l, buf := newBufferLogger("debug")
	l.WithComponent("engine").Debug("node done", Fields(FieldNodeID, "n1", FieldCacheResult, "hit"))

	m := decodeLine(t, buf)
	if m[FieldComponent] != "engine" {
		t.Errorf("expected component=engine, got %v", m[FieldComponent])
	}
	if m[FieldNodeID] != "n1" {
		t.Errorf("expected node_id=n1, got %v", m[FieldNodeID])
	}
	if m["service"] != "test-svc" {
		t.Errorf("expected service field, got %v", m["service"])
	}
}

func TestWithContextRunID(t *testing.T) {
	l, buf := newBufferLogger("info")
	ctx := ContextWithRunID(context.Background(), "run-42")
	l.WithContext(ctx).Info("started")

	if got := decodeLine(t, buf)[FieldRunID]; got != "run-42" {
		t.Errorf("expected run_id=run-42, got %v", got)
	}
}

func TestWithContextNoRunID(t *testing.T) {
	l := NewDefault("x")
	if l.WithContext(context.Background()) != l {
		t.Error("expected same logger when context has no run id")
	}
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger("info")
	l.WithError(errors.New("boom")).Error("failed")
	if got := decodeLine(t, buf)["error"]; got != "boom" {
		t.Errorf("expected error=boom, got %v", got)
	}
}

func TestFieldsOddArgs(t *testing.T) {
	m := Fields("a", 1, "b")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestMergeWithDuration(t *testing.T) {
	m := MergeWithDuration(nil, 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing happens")
}
