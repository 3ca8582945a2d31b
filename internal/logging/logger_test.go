package logging

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitialize_SilentWithoutLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestSuccess_TagsEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	Success(l, "Connect success", zap.String("device", "gw"))

	entries := logs.FilterField(zap.String("event", "success")).All()
	if len(entries) != 1 {
		t.Fatalf("got %d success entries, want 1", len(entries))
	}
	if entries[0].Message != "Connect success" {
		t.Errorf("Message = %q, want %q", entries[0].Message, "Connect success")
	}
}

func TestLogRPCCall_DebugOnly(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	LogRPCCall(zap.New(core), "system", "board", time.Millisecond, nil)
	if logs.Len() != 0 {
		t.Errorf("LogRPCCall should not log above debug level, got %d entries", logs.Len())
	}

	core, logs = observer.New(zapcore.DebugLevel)
	LogRPCCall(zap.New(core), "uci", "get", time.Millisecond, errors.New("boom"))
	if logs.Len() != 1 {
		t.Fatalf("got %d entries, want 1", logs.Len())
	}
	if _, ok := logs.All()[0].ContextMap()["error"]; !ok {
		t.Error("expected error field on failed call")
	}
}

func TestTruncate(t *testing.T) {
	long := make([]byte, maxPayloadLog+10)
	for i := range long {
		long[i] = 'a'
	}
	got := truncate(long)
	if len(got) != maxPayloadLog+3 {
		t.Errorf("truncate length = %d, want %d", len(got), maxPayloadLog+3)
	}
	if truncate([]byte("short")) != "short" {
		t.Error("short payloads should be returned unchanged")
	}
}
