// Package lifecycle publishes Thing creation and removal events.
package lifecycle

import (
	"context"

	"thingforge/server/logging"
)

const (
	// EventThingSpawned is emitted when a Thing enters the state.
	EventThingSpawned logging.EventType = "lifecycle.thing_spawned"
	// EventThingDestroyed is emitted when a Thing is removed.
	EventThingDestroyed logging.EventType = "lifecycle.thing_destroyed"
	// EventThingsDuplicated is emitted for an editor duplicate operation.
	EventThingsDuplicated logging.EventType = "lifecycle.things_duplicated"
)

// ThingSpawnedPayload records where the Thing appeared and from what.
type ThingSpawnedPayload struct {
	Blueprint string  `json:"blueprint,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ThingsDuplicatedPayload records a duplicate operation's inputs/outputs.
type ThingsDuplicatedPayload struct {
	SourceIDs []string `json:"sourceIds"`
	NewIDs    []string `json:"newIds"`
}

// ThingSpawned publishes a spawn event.
func ThingSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ThingSpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventThingSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// ThingDestroyed publishes a removal event.
func ThingDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventThingDestroyed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
	})
}

// ThingsDuplicated publishes a duplicate-selection event.
func ThingsDuplicated(ctx context.Context, pub logging.Publisher, tick uint64, payload ThingsDuplicatedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventThingsDuplicated,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindEditor},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
