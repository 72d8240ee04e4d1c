package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestEnsureID(t *testing.T) {
	ctx, id := EnsureID(context.Background())
	if id == "" || RequestID(ctx) != id {
		t.Fatalf("expected generated id, got %q", id)
	}
	again, same := EnsureID(ctx)
	if same != id || RequestID(again) != id {
		t.Fatalf("expected existing id to be kept, got %q", same)
	}
}

func TestForCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("debug", "json", &buf); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	})

	For(ContextWithID(context.Background(), "req-1")).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup("loud", "text", nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
