package api

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/nataliagff23/checklist-clientes/api"

	requestEventName   = "dashboard.request"
	requestEventDomain = "checklist"
	requestSpanName    = "dashboard.request"
	observabilityEvent = "observability.event"

	attrPrefix = "checklist.request."
)

// requestMetrics collects timings and counters of one request and reports
// them as a structured log entry and a span.
type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	route  string
	start  time.Time

	fetch  time.Duration
	encode time.Duration
	stage  string
	cause  error
	fields map[string]any
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*requestMetrics, context.Context) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", route)),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
		fields: map[string]any{},
	}, spanCtx
}

func (m *requestMetrics) ObserveFetch(d time.Duration) {
	m.fetch += d
}

func (m *requestMetrics) ObserveEncode(d time.Duration) {
	m.encode += d
}

// SetErrorStage records where the request failed.
func (m *requestMetrics) SetErrorStage(stage string) { m.stage = stage }

// Fail records the stage and the underlying error of a failed request whose
// response was already written.
func (m *requestMetrics) Fail(stage string, err error) {
	m.stage = stage
	m.cause = err
}

// Set attaches a route specific attribute, such as the number of clients
// returned.
func (m *requestMetrics) Set(key string, v any) { m.fields[key] = v }

func (m *requestMetrics) attributes() map[string]any {
	attrs := map[string]any{"http.route": m.route}
	attrs[attrPrefix+"total_ms"] = durationToMillis(time.Since(m.start))
	attrs[attrPrefix+"fetch_ms"] = durationToMillis(m.fetch)
	attrs[attrPrefix+"encode_ms"] = durationToMillis(m.encode)
	if m.stage != "" {
		attrs[attrPrefix+"error_stage"] = m.stage
	}
	for k, v := range m.fields {
		attrs[attrPrefix+k] = v
	}
	return attrs
}

// Log emits the observability event and ends the span.
func (m *requestMetrics) Log(status int, err error) {
	if err == nil {
		err = m.cause
	}
	attrs := m.attributes()
	severity, number := severityForStatus(status, err)

	fields := log.Fields{
		"event.name":       requestEventName,
		"event.domain":     requestEventDomain,
		"attributes":       attrs,
		"severity_text":    severity,
		"severity_number":  number,
		"http.status_code": status,
	}
	if sc := m.span.SpanContext(); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	entry := m.logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	switch severity {
	case "ERROR":
		entry.Error(observabilityEvent)
	case "WARN":
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, toAttribute(k, v))
	}
	m.span.SetAttributes(kvs...)
	m.span.SetAttributes(attribute.Int64("http.status_code", int64(status)))

	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", requestEventName),
		attribute.String("event.domain", requestEventDomain),
		attribute.String("severity_text", severity),
		attribute.Int("severity_number", number),
	}, kvs...)
	if err != nil {
		eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
	}
	m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))

	switch {
	case err != nil:
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	case status >= 500:
		m.span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
	default:
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()
}

// severityForStatus maps a response to an OpenTelemetry severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= 500:
		return "ERROR", 17
	case status >= 400:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func toAttribute(key string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	default:
		return attribute.String(key, fmt.Sprint(val))
	}
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
