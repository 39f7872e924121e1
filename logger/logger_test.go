package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	return entry
}

func TestWriter_ComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "debug").
		WithComponent("autosave").
		WithFields(Fields(FieldSessionKey, "wizard:guest")).
		Info("snapshot saved", Fields(FieldStep, 2))

	entry := decode(t, &buf)
	want := map[string]any{
		FieldComponent:  "autosave",
		FieldSessionKey: "wizard:guest",
		FieldStep:       float64(2),
		"message":       "snapshot saved",
		"level":         "info",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, entry[k])
		}
	}
}

func TestWriter_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*Logger)
		shown bool
	}{
		{"warn", func(l *Logger) { l.Info("x") }, false},
		{"warn", func(l *Logger) { l.Warn("x") }, true},
		{"error", func(l *Logger) { l.Warn("x") }, false},
		{"debug", func(l *Logger) { l.Debug("x") }, true},
		{"bogus", func(l *Logger) { l.Debug("x") }, false},
		{"bogus", func(l *Logger) { l.Error("x") }, true},
	}
	for _, tc := range tests {
		var buf bytes.Buffer
		tc.log(NewWriter(&buf, tc.level))
		if got := buf.Len() > 0; got != tc.shown {
			t.Errorf("level %s: expected shown=%v, got %q", tc.level, tc.shown, buf.String())
		}
	}
}

func TestBuild(t *testing.T) {
	t.Run("json with service", func(t *testing.T) {
		var buf bytes.Buffer
		build(Config{ServiceName: "wizard", Level: "info", Format: FormatJSON}, &buf).Info("hi")
		entry := decode(t, &buf)
		if entry[FieldService] != "wizard" {
			t.Errorf("expected service field, got %v", entry)
		}
		if _, ok := entry["time"]; !ok {
			t.Errorf("expected timestamp, got %v", entry)
		}
	})

	t.Run("no timestamp", func(t *testing.T) {
		var buf bytes.Buffer
		build(Config{Level: "info", Format: FormatJSON, NoTimestamp: true}, &buf).Info("hi")
		if _, ok := decode(t, &buf)["time"]; ok {
			t.Error("expected no timestamp")
		}
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		build(Config{Level: "info", Format: FormatConsole, NoColor: true}, &buf).
			Warn("disk slow", Fields(FieldOperation, "save"))
		out := buf.String()
		if strings.HasPrefix(out, "{") {
			t.Fatalf("expected console output, got %s", out)
		}
		if !strings.Contains(out, "disk slow") || !strings.Contains(out, "operation=save") {
			t.Errorf("unexpected console line %q", out)
		}
	})
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Error("nothing")
	l.WithComponent("x").WithFields(Fields("a", 1)).Info("still nothing")
}

func TestInit_ReplacesGlobal(t *testing.T) {
	t.Cleanup(func() {
		mu.Lock()
		global = nil
		mu.Unlock()
	})

	first := GetGlobalLogger()
	if first == nil || GetGlobalLogger() != first {
		t.Fatal("expected a stable default logger")
	}
	Init(Config{Level: "error", Format: FormatJSON})
	if GetGlobalLogger() == first {
		t.Error("expected Init to replace the global logger")
	}
	Get("cache").Info("filtered out")
	Warn("filtered out")
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, 2, "skipped", "b", "two", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}

	d := DurationFields("load", 1500*time.Millisecond)
	if d[FieldOperation] != "load" || d[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration fields %v", d)
	}

	m := MergeWithError(nil, errors.New("boom"))
	if m[FieldError] != "boom" {
		t.Errorf("unexpected merged fields %v", m)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != OutputStderr {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", cfg, false},
		{"json stdout", Config{Level: "debug", Format: FormatJSON, Output: OutputStdout}, false},
		{"bad level", Config{Level: "loud", Format: FormatJSON, Output: OutputStderr}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: OutputStderr}, true},
		{"bad output", Config{Level: "info", Format: FormatJSON, Output: "/var/log/x"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
