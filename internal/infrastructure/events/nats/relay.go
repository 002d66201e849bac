package nats

import (
	"context"
	"time"

	"github.com/harpoonmedia/harpoon/internal/request/domain"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// Publisher is the outbound contract the relay needs from the NATS client.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// relayedEventTypes is every lifecycle event type mirrored to JetStream. The
// event type doubles as the NATS subject.
var relayedEventTypes = []string{
	domain.EventRequestSearching,
	domain.EventRequestFound,
	domain.EventRequestDownloading,
	domain.EventRequestCompleted,
	domain.EventRequestFailed,
	domain.EventRequestCancelled,
	domain.EventRequestExpired,
	domain.EventRequestReset,
	domain.EventSeasonCompleted,
	domain.EventEpisodeCompleted,
}

// envelope is the wire form of a relayed event.
type envelope struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        any       `json:"data"`
}

// Relay mirrors in-process lifecycle events onto JetStream. Publish failures
// are logged and dropped; external consumers are not allowed to stall the
// lifecycle.
type Relay struct {
	publisher Publisher
	logger    interfaces.Logger
}

// NewRelay creates a relay over the given publisher.
func NewRelay(publisher Publisher, logger interfaces.Logger) *Relay {
	return &Relay{publisher: publisher, logger: logger}
}

// Attach subscribes the relay to every lifecycle event type on the bus.
func (r *Relay) Attach(bus interfaces.EventBus) error {
	for _, eventType := range relayedEventTypes {
		if err := bus.Subscribe(eventType, &relayHandler{relay: r, eventType: eventType}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Relay) publish(ctx context.Context, event interfaces.Event) error {
	err := r.publisher.Publish(ctx, event.EventType(), envelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  time.Unix(event.Timestamp(), 0).UTC(),
		Data:        event,
	})
	if err != nil {
		r.logger.Error("failed to relay event",
			interfaces.String("event_type", event.EventType()),
			interfaces.String("aggregate_id", event.AggregateID()),
			interfaces.Error(err))
	}
	return err
}

// relayHandler adapts the relay to the per-event-type handler contract.
type relayHandler struct {
	relay     *Relay
	eventType string
}

func (h *relayHandler) Handle(ctx context.Context, event interfaces.Event) error {
	return h.relay.publish(ctx, event)
}

func (h *relayHandler) EventType() string {
	return h.eventType
}
