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

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize default logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := Init(WithLevel("loud")); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf), WithLevel("debug")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Named("simulator").With(String("match_id", "m-1")).Info(context.Background(), "match played",
		Int("home_goals", 2),
		Bool("friendly", false),
		Duration("took", 3*time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "match played" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "simulator" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["match_id"] != "m-1" {
		t.Errorf("match_id = %v", entry["match_id"])
	}
	if entry["home_goals"] != float64(2) {
		t.Errorf("home_goals = %v", entry["home_goals"])
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %v, want caller file", entry["source"])
	}
}

func TestLoggerNamedNesting(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Named("service").With(String("competition_id", "cup")).Named("worker").Info(context.Background(), "started")

	if n := strings.Count(buf.String(), `"component"`); n != 1 {
		t.Fatalf("component keys = %d, want 1 (%q)", n, buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["component"] != "service.worker" {
		t.Errorf("component = %v, want service.worker", entry["component"])
	}
	if entry["competition_id"] != "cup" {
		t.Errorf("competition_id = %v", entry["competition_id"])
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf), WithLevel("warn")); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	Get().Info(ctx, "hidden too")
	Get().Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info lines leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestLoggerFatal(t *testing.T) {
	var buf bytes.Buffer
	code := -1
	if err := Init(WithWriter(&buf), WithExit(func(c int) { code = c })); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = Init() }()

	Get().Fatal(context.Background(), "cannot continue")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "cannot continue") {
		t.Errorf("fatal line missing: %q", buf.String())
	}
}

func TestStandaloneLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, FormatText)
	l.Debug(context.Background(), "standalone", String("k", "v"))
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("text output missing field: %q", buf.String())
	}
}
