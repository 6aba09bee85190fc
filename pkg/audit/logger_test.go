package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transit/pkg/logger"
)

func init() {
	logger.Init("error")
}

func TestStdoutLogger(t *testing.T) {
	cfg := &Config{
		Enabled: true,
		Backend: "stdout",
	}

	l := NewStdoutLogger(cfg)
	defer l.Close()

	entry := NewEntry().
		Service("planner-svc").
		Method("/v1/networks").
		Action(ActionCreate).
		Outcome(OutcomeSuccess).
		Build()

	if err := l.Log(context.Background(), entry); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStdoutLogger_Disabled(t *testing.T) {
	l := NewStdoutLogger(&Config{Enabled: false})
	defer l.Close()

	if err := l.Log(context.Background(), NewEntry().Build()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFileLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")

	cfg := &Config{
		Enabled:     true,
		Backend:     "file",
		FilePath:    logPath,
		BufferSize:  100,
		FlushPeriod: 100 * time.Millisecond,
	}

	l, err := NewFileLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	entry := NewEntry().
		Service("planner-svc").
		Method("/v1/networks/net-1").
		Action(ActionDelete).
		Outcome(OutcomeSuccess).
		Resource("network", "net-1").
		Build()

	if err := l.Log(context.Background(), entry); err != nil {
		t.Fatalf("failed to log entry: %v", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if !strings.Contains(string(data), `"action":"DELETE"`) {
		t.Errorf("audit log missing entry, got: %s", data)
	}

	var decoded Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &decoded); err != nil {
		t.Fatalf("audit log line is not valid JSON: %v", err)
	}
	if decoded.ResourceID != "net-1" {
		t.Errorf("expected resource ID net-1, got %s", decoded.ResourceID)
	}
}

func TestFileLogger_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	l, err := NewFileLogger(&Config{Enabled: true})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	defer l.Close()

	if l.config.FilePath != "audit.log" {
		t.Errorf("expected default path audit.log, got %s", l.config.FilePath)
	}
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	l, err := New(&Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := l.(*NoopLogger); !ok {
		t.Errorf("expected NoopLogger, got %T", l)
	}
}

func TestNew_UnknownBackendFallsBackToStdout(t *testing.T) {
	l, err := New(&Config{Enabled: true, Backend: "carrier-pigeon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := l.(*StdoutLogger); !ok {
		t.Errorf("expected StdoutLogger, got %T", l)
	}
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := l.(*StdoutLogger); !ok {
		t.Errorf("expected StdoutLogger, got %T", l)
	}
}

func TestNoopLogger(t *testing.T) {
	l := &NoopLogger{}
	if err := l.Log(context.Background(), NewEntry().Build()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
