// Package logging defines the structured event contract shared by the
// simulation engine and the host: publishers emit typed events, a router
// fans them out to sinks.
package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown   EntityKind = "unknown"
	EntityKindThing     EntityKind = "thing"
	EntityKindBlueprint EntityKind = "blueprint"
	EntityKindEngine    EntityKind = "engine"
	EntityKindEditor    EntityKind = "editor"
)

const (
	CategoryScript    = "script"
	CategoryLifecycle = "lifecycle"
	CategoryStore     = "store"
	CategorySystem    = "system"
)

// EntityRef names the entity an event concerns.
type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

// Event is one structured occurrence inside the engine or host.
type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Publisher accepts events for delivery. Implementations must be safe to
// call from the tick loop without blocking it.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher discards every event.
func NopPublisher() Publisher {
	return nopPublisher{}
}
