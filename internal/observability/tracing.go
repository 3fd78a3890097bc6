package observability

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one operation. Spans nest through the context and are written
// to the log when they end.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	Duration  time.Duration     `json:"duration"`
	Tags      map[string]string `json:"tags,omitempty"`
	Err       error             `json:"-"`
}

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		SpanID:    generateID(),
		Operation: operation,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	if parent := GetSpan(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	} else {
		span.TraceID = generateID()
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

func (s *Span) SetError(err error) {
	s.Err = err
}

// End records the duration and logs the span: debug on success, warn on
// failure.
func (s *Span) End(ctx context.Context, logger *slog.Logger) {
	s.Duration = time.Since(s.StartTime)

	level := slog.LevelDebug
	if s.Err != nil {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "span finished",
		"span", s,
		"request_id", GetRequestID(ctx),
	)
}

func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("operation", s.Operation),
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.Duration("duration", s.Duration),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	for k, v := range s.Tags {
		attrs = append(attrs, slog.String(k, v))
	}
	if s.Err != nil {
		attrs = append(attrs, slog.String("error", s.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func generateID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}
