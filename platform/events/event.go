// Package events is the in-process event bus. Modules publish after their
// transaction commits and subscribers react without importing the
// publisher.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every published event.
type Event interface {
	EventName() string
	// EventID is unique per published occurrence. Consumers that hand the
	// event to an external queue use it for deduplication.
	EventID() uuid.UUID
	OccurredAt() time.Time
}

// BaseEvent carries the identity and time of an occurrence. Embed it in
// concrete events and build it with NewBaseEvent.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events by name.
type Bus interface {
	// Publish fans the event out asynchronously; failures are only logged.
	Publish(ctx context.Context, event Event)
	// PublishSync runs the handlers and returns the first failure.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
