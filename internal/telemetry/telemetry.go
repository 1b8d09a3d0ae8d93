// Package telemetry fans out upstream failure records to the configured
// sinks: the structured log, the api_errors table, and optionally a Slack
// webhook. Sinks are fire-and-forget so a broken sink can never fail a
// collection cycle.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/boardwatch/boardwatch/internal/model"
)

// LogSink writes failures to the structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, f model.UpstreamFailure) {
	s.logger.Error("upstream failure",
		"employer", f.EmployerName,
		"source", f.Source,
		"message", f.Message,
	)
}

// StoreSink persists failures to the api_errors table. Its own persistence
// errors are logged and swallowed.
type StoreSink struct {
	store  model.Store
	logger *slog.Logger
}

// NewStoreSink creates a store-backed sink.
func NewStoreSink(store model.Store, logger *slog.Logger) *StoreSink {
	return &StoreSink{store: store, logger: logger}
}

func (s *StoreSink) Record(ctx context.Context, f model.UpstreamFailure) {
	if err := s.store.RecordUpstreamFailure(ctx, f); err != nil {
		s.logger.Warn("recording upstream failure", "employer", f.EmployerName, "error", err)
	}
}

// MultiSink fans one record out to every sink in order.
type MultiSink []model.FailureSink

func (m MultiSink) Record(ctx context.Context, f model.UpstreamFailure) {
	for _, sink := range m {
		sink.Record(ctx, f)
	}
}
