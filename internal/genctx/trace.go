package genctx

import (
	"io"
	"log/slog"
)

// Decision is one recorded inference choice
type Decision struct {
	Category string // "borrow", "clone", "can-fail", "fallback", ...
	Subject  string // function, parameter or variable the decision is about
	Choice   string
	Reason   string
}

// Tracer receives inference decisions
type Tracer interface {
	Trace(d Decision)
}

// NopTracer discards every decision
type NopTracer struct{}

// Trace implements Tracer
func (NopTracer) Trace(Decision) {}

// LogTracer writes decisions as structured log records
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a tracer writing text records to w
func NewLogTracer(w io.Writer) *LogTracer {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &LogTracer{logger: slog.New(handler)}
}

// WithLogger creates a tracer on an existing logger
func WithLogger(logger *slog.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Trace implements Tracer
func (t *LogTracer) Trace(d Decision) {
	t.logger.Debug("decision",
		slog.String("category", d.Category),
		slog.String("subject", d.Subject),
		slog.String("choice", d.Choice),
		slog.String("reason", d.Reason),
	)
}

// MemoryTracer keeps decisions in order
type MemoryTracer struct {
	Decisions []Decision
}

// Trace implements Tracer
func (t *MemoryTracer) Trace(d Decision) {
	t.Decisions = append(t.Decisions, d)
}

// Of returns the recorded decisions in a category
func (t *MemoryTracer) Of(category string) []Decision {
	var out []Decision
	for _, d := range t.Decisions {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
