package tracer

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
)

// LogExporter writes finished spans to a Logger, one line per span.
type LogExporter struct {
	log logger.Logger
}

// NewLogExporter returns an exporter writing to log.
func NewLogExporter(log logger.Logger) *LogExporter {
	return &LogExporter{log: log}
}

// ExportSpans logs each span with its duration, status and attributes.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := logger.Ctx{
			"span":     s.Name(),
			"trace_id": s.SpanContext().TraceID().String(),
			"duration": s.EndTime().Sub(s.StartTime()).String(),
		}
		if p := s.Parent(); p.IsValid() {
			fields["parent_id"] = p.SpanID().String()
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		if st := s.Status(); st.Code == codes.Error {
			fields["error"] = st.Description
		}
		e.log.Info("Span finished", fields)
	}
	return nil
}

// Shutdown is a no-op; the logger is owned by the caller.
func (e *LogExporter) Shutdown(context.Context) error { return nil }

// NewLogProvider returns a tracer provider that exports every span to log
// as it ends.
func NewLogProvider(log logger.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewLogExporter(log)))
}
