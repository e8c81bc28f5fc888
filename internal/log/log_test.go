package log

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestInitWriter_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	disable := InitWriter(&buf)
	defer disable()

	Warn(CatLifecycle, "Module skipped", "type", "sample.GameModule", "orphan")
	ErrorErr(CatRegistry, "Scan failed", errors.New("boom"))

	out := buf.String()
	require.Contains(t, out, "[WARN] [lifecycle] Module skipped type=sample.GameModule orphan=<missing>")
	require.Contains(t, out, "[ERROR] [registry] Scan failed error=boom")
}

func TestSetMinLevel_FiltersBelow(t *testing.T) {
	var buf bytes.Buffer
	disable := InitWriter(&buf)
	defer disable()

	SetMinLevel(LevelWarn)
	Debug(CatLocator, "hidden")
	Info(CatLocator, "hidden too")
	Error(CatLocator, "shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestSetEnabled_False(t *testing.T) {
	var buf bytes.Buffer
	disable := InitWriter(&buf)
	disable()

	Error(CatConfig, "dropped")
	require.Empty(t, buf.String())
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)

	Info(CatConfig, "Loaded", "path", "x.yaml")
	SetEnabled(false)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [config] Loaded path=x.yaml")
}

func TestInit_BadPath(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "missing", "debug.log"))
	require.Error(t, err)
}

func TestNewListener_ReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	disable := InitWriter(&buf)
	defer disable()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Info(CatUI, "Hello")

	msgCh := make(chan any, 1)
	go func() { msgCh <- listener.Listen()() }()

	select {
	case msg := <-msgCh:
		event, ok := msg.(LogEvent)
		require.True(t, ok)
		require.Contains(t, event.Payload, "Hello")
	case <-time.After(time.Second):
		t.Fatal("log event not delivered")
	}
}

func TestFormatLine(t *testing.T) {
	at := time.Date(2026, 10, 14, 10, 45, 0, 0, time.UTC)
	tests := []struct {
		name   string
		fields []any
		want   string
	}{
		{"no fields", nil, "2026-10-14T10:45:00 [INFO] [locator] Registered\n"},
		{"pairs", []any{"type", "sample.ItemStore", "n", 2}, "2026-10-14T10:45:00 [INFO] [locator] Registered type=sample.ItemStore n=2\n"},
		{"dangling key", []any{"type"}, "2026-10-14T10:45:00 [INFO] [locator] Registered type=<missing>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, formatLine(at, LevelInfo, CatLocator, "Registered", tt.fields))
		})
	}
}

func TestErrorErr_NilError(t *testing.T) {
	var buf bytes.Buffer
	disable := InitWriter(&buf)
	defer disable()

	ErrorErr(CatLifecycle, "Cleanup failed", nil, "type", "sample.SaveSystemSubmodule")
	require.Contains(t, buf.String(), "type=sample.SaveSystemSubmodule error=<nil>")
}
