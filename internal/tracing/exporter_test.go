package tracing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func initializeStub() tracetest.SpanStub {
	start := time.Now()
	return tracetest.SpanStub{
		Name:      SpanPrefixCall + "initialize",
		SpanKind:  trace.SpanKindInternal,
		StartTime: start,
		EndTime:   start.Add(25 * time.Millisecond),
		Status:    sdktrace.Status{Code: codes.Error, Description: "boom"},
		Attributes: []attribute.KeyValue{
			attribute.String(AttrComponentType, "sample.GameModule"),
			attribute.Int(AttrLoadOrder, 1),
		},
		Events: []sdktrace.Event{{
			Name:       EventIncompatible,
			Time:       start,
			Attributes: []attribute.KeyValue{attribute.String(AttrErrorMessage, "needs v2")},
		}},
	}
}

func TestWriterExporter_WritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)

	stub := initializeStub()
	err := exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot(), stub.Snapshot()})
	require.NoError(t, err)

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		require.Equal(t, "component.initialize", rec.Name)
		require.Equal(t, "internal", rec.Kind)
		require.Equal(t, "Error", rec.Status)
		require.Equal(t, "boom", rec.StatusMsg)
		require.InDelta(t, 25.0, rec.DurationMs, 0.001)
		require.Equal(t, "sample.GameModule", rec.Attributes[AttrComponentType])
		require.EqualValues(t, 1, rec.Attributes[AttrLoadOrder])
		require.Len(t, rec.Events, 1)
		require.Equal(t, "needs v2", rec.Events[0].Attributes[AttrErrorMessage])
		lines++
	}
	require.Equal(t, 2, lines)
}

func TestFileExporter_AppendsAndCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.jsonl")
	stub := initializeStub()

	for range 2 {
		exporter, err := NewFileExporter(path)
		require.NoError(t, err)
		require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
		require.NoError(t, exporter.Shutdown(context.Background()))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestFileExporter_EmptyBatchAndShutdown(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	stub := initializeStub()
	require.Error(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
}
