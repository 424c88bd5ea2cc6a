package events

import (
	"context"
	"encoding/json"
	"log/slog"

	domainevents "stayhub/internal/domain/shared/events"
)

// Publisher delivers serialized domain events to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Dispatcher encodes pending aggregate events as JSON and hands them to the
// publisher. Publishing happens after the aggregate was persisted; delivery
// failures are logged, never surfaced to the caller.
type Dispatcher struct {
	Publisher   Publisher
	TopicPrefix string
	Logger      *slog.Logger
}

type envelope struct {
	Name        string `json:"name"`
	AggregateID string `json:"aggregate_id"`
	OccurredAt  int64  `json:"occurred_at"`
	Payload     any    `json:"payload"`
}

func (d Dispatcher) Dispatch(ctx context.Context, evts []domainevents.DomainEvent) {
	if d.Publisher == nil || len(evts) == 0 {
		return
	}
	for _, evt := range evts {
		payload, err := json.Marshal(envelope{
			Name:        evt.EventName(),
			AggregateID: evt.AggregateID(),
			OccurredAt:  evt.OccurredAt().UnixMilli(),
			Payload:     evt,
		})
		if err != nil {
			if d.Logger != nil {
				d.Logger.Error("event encode failed", "event", evt.EventName(), "error", err)
			}
			continue
		}
		topic := d.TopicPrefix + evt.EventName()
		if err := d.Publisher.Publish(ctx, topic, evt.AggregateID(), payload, nil); err != nil {
			if d.Logger != nil {
				d.Logger.Error("event publish failed", "topic", topic, "error", err)
			}
		}
	}
}

// Noop satisfies Publisher when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, []byte, map[string]string) error {
	return nil
}
