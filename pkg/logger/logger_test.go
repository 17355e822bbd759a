package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	Init()
	defer func() {
		Log.SetLevel(logrus.InfoLevel)
		Log.SetFormatter(&logrus.TextFormatter{})
	}()

	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", Log.GetLevel())
	}

	var buf bytes.Buffer
	SetOutput(&buf)
	Log.WithField("peer", "gui-1").Debug("connected")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["peer"] != "gui-1" || entry["msg"] != "connected" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LOG_FORMAT", "")

	Init()
	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", Log.GetLevel())
	}
}
