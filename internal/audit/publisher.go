package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pintcert/pkg/requestcontext"
)

var droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pintcert_audit_events_dropped_total",
	Help: "Audit events dropped because the buffer was full",
})

// Publisher accepts audit events from request handlers and buffers them for
// the worker. Emit never blocks: when the buffer is full the event is
// dropped and counted, because a slow audit backend must not stall
// registrations or verifications.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher builds a Publisher with the given buffer capacity.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer), logger: logger}
}

// Inbox exposes the buffered channel for the worker to drain.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Emit stamps and enqueues one event. Identity, time, and client metadata
// missing from the event are filled from the request context.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.StaffID(ctx)
	}
	if event.Device == "" {
		event.Device = DeviceSummary(requestcontext.UserAgent(ctx))
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		droppedTotal.Inc()
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			slog.String("action", string(event.Action)))
		return nil
	}
}
