package outbox

import "context"

// Event is a domain event identified by name.
type Event interface {
	EventName() string
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
