// Package audit keeps raw oracle responses that could not be parsed.
package audit

import (
	"context"

	"go.uber.org/zap"

	"llm-daily-trader/internal/interfaces"
	"llm-daily-trader/internal/trace"
)

// FileSink appends one JSON line per unparseable response.
type FileSink struct {
	log *zap.Logger
}

var _ interfaces.AuditSink = (*FileSink)(nil)

func NewFileSink(path string) (*FileSink, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &FileSink{log: l}, nil
}

func (s *FileSink) Record(ctx context.Context, kind, raw string) {
	fields := []zap.Field{zap.String("kind", kind), zap.String("raw", raw)}
	if traceID, _, ok := trace.GetTraceFields(ctx); ok {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	s.log.Warn("unparseable oracle response", fields...)
}

func (s *FileSink) Close() error {
	return s.log.Sync()
}

type discard struct{}

func (discard) Record(context.Context, string, string) {}

// Discard drops every record.
var Discard interfaces.AuditSink = discard{}
