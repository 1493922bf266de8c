package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "error", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer log.Close()

	log.Info("hidden")
	log.Error("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected error message: %s", out)
	}
}

func TestNewUnknownLevel(t *testing.T) {
	log, err := New(&bytes.Buffer{}, "chatty", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info, got %s", log.GetLevel())
	}
}

func TestNewLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ask.log")

	var buf bytes.Buffer
	log, err := New(&buf, "debug", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.LogFailure("provider", "invalid_api_key", 401)
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"invalid_api_key", "kind=provider", "status=401"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in log file: %s", want, data)
		}
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in output: %s", want, buf.String())
		}
	}
}
