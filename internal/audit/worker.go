package audit

import (
	"context"
	"log/slog"
)

// Sink receives a copy of every audit event, beyond the primary store.
// Used for the Kafka export.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Worker drains the publisher's inbox into the store and any extra sinks.
// A failing store or sink is logged and skipped; audit delivery is
// best-effort by design and must never take the service down.
type Worker struct {
	store  Store
	sinks  []Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker builds a Worker over the publisher's inbox.
func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

// Run processes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit store append failed",
					slog.String("action", string(event.Action)),
					slog.String("error", err.Error()))
			}
			for _, sink := range w.sinks {
				if err := sink.Write(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink write failed",
						slog.String("action", string(event.Action)),
						slog.String("error", err.Error()))
				}
			}
		}
	}
}
