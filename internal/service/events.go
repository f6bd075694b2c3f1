package service

import (
	"context"
	"time"

	"github.com/iliyamo/croabboard/internal/logging"
	"github.com/iliyamo/croabboard/internal/queue"
)

// EventPublisher delivers domain events. queue.Publisher sends them to
// RabbitMQ; queue.AuditSink writes them straight into the audit log.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

// emitter stamps events with the request's client and the current time
// and publishes them after the change was committed. Failures are logged
// and never reach the caller.
type emitter struct {
	pub EventPublisher
	log logging.Logger
	now func() time.Time
}

func newEmitter(pub EventPublisher, log logging.Logger) emitter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return emitter{pub: pub, log: log, now: time.Now}
}

func (e emitter) emit(ctx context.Context, ev queue.Event) {
	c := queue.ClientFrom(ctx)
	ev.IPAddress, ev.UserAgent = c.IP, c.UserAgent
	ev.OccurredAt = e.now().UTC()
	if err := e.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.log.Warn(ctx, "publish event failed", "type", ev.Type, "user_id", ev.UserID, "err", err)
	}
}
