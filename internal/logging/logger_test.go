package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{" error ", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatal(err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is set")
	}
}

func TestLogRelayRequestRedacts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogRelayRequest("POST", "https://relay/login", map[string][]string{
		"UserID": {"someone"},
		"Passwd": {"hunter2"},
	}, "Passwd")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	form, ok := entries[0].ContextMap()["form"].(map[string]string)
	if !ok {
		t.Fatalf("form field has type %T", entries[0].ContextMap()["form"])
	}
	if form["Passwd"] != "[redacted]" {
		t.Errorf("Passwd = %q, want redacted", form["Passwd"])
	}
	if form["UserID"] != "someone" {
		t.Errorf("UserID = %q, want someone", form["UserID"])
	}
}

func TestSetLoggerConcurrentWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	observed := zap.New(core)
	t.Cleanup(func() { SetLogger(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(observed)
		}()
		go func() {
			defer wg.Done()
			Info("tick")
		}()
	}
	wg.Wait()

	SetLogger(observed)
	Info("after")
	if logs.FilterMessage("after").Len() != 1 {
		t.Error("logger set by SetLogger was not used")
	}

	SetLogger(nil)
	if GetLogger() == nil || GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("SetLogger(nil) should leave a silent logger")
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte{'a', 0x00, 'b', 0xFF}); got != "a.b." {
		t.Errorf("asciiDump = %q, want a.b.", got)
	}
}
