package sim

import (
	"context"
	"fmt"

	"thingforge/server/internal/world"
	"thingforge/server/logging"
)

const (
	// EventActionRejected is emitted when a dispatched action has an
	// unknown type or a payload the reducer cannot apply.
	EventActionRejected logging.EventType = "store.action_rejected"
)

// Subscriber receives the post-reduction state whenever a patch touches
// the subscribed path. Callbacks run synchronously on the dispatching
// goroutine and must not dispatch further actions.
type Subscriber func(state *world.GameState)

type subscription struct {
	id   uint64
	path []string
	fn   Subscriber
}

// Store owns the mutable game state. Every mutation flows through
// Dispatch or Record, which append patches to the journal and notify
// path-scoped subscribers. The store is not safe for concurrent use; the
// host serializes dispatches against the tick loop.
type Store struct {
	state     *world.GameState
	journal   []Patch
	subs      []subscription
	nextSubID uint64
	notifying bool
	publisher logging.Publisher
	tick      uint64
}

// NewStore wraps state in a store. A nil state starts empty, a nil
// publisher discards events.
func NewStore(state *world.GameState, publisher logging.Publisher) *Store {
	if state == nil {
		state = world.NewGameState()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Store{state: state, publisher: publisher}
}

// State returns the live state. Callers outside the tick loop must treat
// it as read-only.
func (s *Store) State() *world.GameState {
	return s.state
}

// SetTick stamps subsequent patches and events with the current tick.
func (s *Store) SetTick(tick uint64) {
	s.tick = tick
}

// Dispatch applies one action to the state. Unknown action types and
// unusable payloads are logged and dropped; Dispatch never fails.
// Subscribers run between reduction and the dispatcher's return, so a
// dispatch from inside a callback is rejected rather than reducing
// against half-notified state.
func (s *Store) Dispatch(action Action) {
	if s.notifying {
		s.reject(action.Type, "dispatch from a subscriber callback")
		return
	}
	switch action.Type {
	case ActionAddThing:
		if action.Thing == nil || action.Thing.ID == "" {
			s.reject(action.Type, "thing missing or has empty id")
			return
		}
		s.state.Things = append(s.state.Things, action.Thing)
		s.Record(Patch{Kind: PatchThingAdded, EntityID: action.Thing.ID, Payload: action.Thing})

	case ActionRemoveThing:
		if action.ThingID == "" {
			s.reject(action.Type, "empty thing id")
			return
		}
		if !s.removeThing(action.ThingID) {
			return
		}
		s.Record(Patch{Kind: PatchThingRemoved, EntityID: action.ThingID})

	case ActionUpdateThing:
		if action.Thing == nil || action.Thing.ID == "" {
			s.reject(action.Type, "thing missing or has empty id")
			return
		}
		for i, t := range s.state.Things {
			if t.ID == action.Thing.ID {
				s.state.Things[i] = action.Thing
				s.Record(Patch{Kind: PatchThingUpdated, EntityID: action.Thing.ID, Payload: action.Thing})
				return
			}
		}
		s.reject(action.Type, fmt.Sprintf("no thing with id %q", action.Thing.ID))

	case ActionAddBlueprint:
		if action.Blueprint == nil || action.Blueprint.Name == "" {
			s.reject(action.Type, "blueprint missing or has empty name")
			return
		}
		s.state.Blueprints[action.Blueprint.Name] = *action.Blueprint
		s.Record(Patch{Kind: PatchBlueprintAdded, EntityID: action.Blueprint.Name, Payload: action.Blueprint})

	case ActionUpdateBlueprint:
		if action.Blueprint == nil || action.Blueprint.Name == "" {
			s.reject(action.Type, "blueprint missing or has empty name")
			return
		}
		if _, ok := s.state.Blueprints[action.Blueprint.Name]; !ok {
			s.reject(action.Type, fmt.Sprintf("no blueprint named %q", action.Blueprint.Name))
			return
		}
		s.state.Blueprints[action.Blueprint.Name] = *action.Blueprint
		s.Record(Patch{Kind: PatchBlueprintUpdated, EntityID: action.Blueprint.Name, Payload: action.Blueprint})

	case ActionRemoveBlueprint:
		if action.Name == "" {
			s.reject(action.Type, "empty blueprint name")
			return
		}
		if _, ok := s.state.Blueprints[action.Name]; !ok {
			return
		}
		delete(s.state.Blueprints, action.Name)
		s.Record(Patch{Kind: PatchBlueprintRemoved, EntityID: action.Name})

	case ActionRenameBlueprint:
		if action.Rename == nil || action.Rename.From == "" || action.Rename.To == "" {
			s.reject(action.Type, "rename payload missing from/to")
			return
		}
		bp, ok := s.state.Blueprints[action.Rename.From]
		if !ok {
			s.reject(action.Type, fmt.Sprintf("no blueprint named %q", action.Rename.From))
			return
		}
		delete(s.state.Blueprints, action.Rename.From)
		bp.Name = action.Rename.To
		s.state.Blueprints[action.Rename.To] = bp
		s.Record(Patch{
			Kind:     PatchBlueprintRenamed,
			EntityID: action.Rename.To,
			Payload:  RenamedPayload{From: action.Rename.From, To: action.Rename.To},
		})

	case ActionSetSelectedThingID:
		s.state.SelectedThingID = action.ThingID
		s.Record(Patch{Kind: PatchSelection, Payload: action.ThingID})

	case ActionSetSelectedThingIDs:
		ids := append([]string(nil), action.ThingIDs...)
		s.state.SelectedThingIDs = ids
		s.Record(Patch{Kind: PatchSelection, Payload: ids})

	case ActionSetBackgroundColor:
		s.state.BackgroundColor = action.Color
		s.Record(Patch{Kind: PatchBackgroundColor, Payload: action.Color})

	case ActionSetPaused:
		s.state.Paused = action.Paused
		s.Record(Patch{Kind: PatchPaused, Payload: action.Paused})

	case ActionSetCameraPosition:
		if action.Position == nil {
			s.reject(action.Type, "missing camera position")
			return
		}
		s.state.Camera = *action.Position
		s.Record(Patch{Kind: PatchCamera, Payload: *action.Position})

	case ActionSetScreenSize:
		if action.Size == nil || action.Size.Width <= 0 || action.Size.Height <= 0 {
			s.reject(action.Type, "missing or non-positive screen size")
			return
		}
		s.state.Screen = *action.Size
		s.Record(Patch{Kind: PatchScreen, Payload: *action.Size})

	default:
		s.reject(action.Type, "unknown action type")
	}
}

// Record appends a patch to the journal and notifies subscribers whose
// path intersects the patch path. The engine uses it for mutations that
// bypass the reducer, e.g. spawn and destroy.
func (s *Store) Record(patch Patch) {
	s.journal = append(s.journal, patch)
	s.notify(patch)
}

// Subscribe registers fn for patches under path. It returns the current
// value of the named state slice, a dispatch handle for the subscriber
// to mutate state through, and an unsubscribe func. An empty path
// matches every patch and yields the whole state.
func (s *Store) Subscribe(path []string, fn Subscriber) (any, func(Action), func()) {
	if fn == nil {
		return s.valueAt(path), s.Dispatch, func() {}
	}
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{
		id:   id,
		path: append([]string(nil), path...),
		fn:   fn,
	})
	return s.valueAt(path), s.Dispatch, func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// valueAt resolves the state slice a subscription path names. Unknown
// or empty paths resolve to the whole state; a missing keyed entry
// resolves to nil.
func (s *Store) valueAt(path []string) any {
	if len(path) == 0 {
		return s.state
	}
	switch path[0] {
	case "things":
		if len(path) > 1 {
			return s.state.ThingByID(path[1])
		}
		return s.state.Things
	case "blueprints":
		if len(path) > 1 {
			bp, ok := s.state.Blueprints[path[1]]
			if !ok {
				return nil
			}
			return bp
		}
		return s.state.Blueprints
	case "selection":
		if len(s.state.SelectedThingIDs) > 0 {
			return s.state.SelectedThingIDs
		}
		return s.state.SelectedThingID
	case "backgroundColor":
		return s.state.BackgroundColor
	case "paused":
		return s.state.Paused
	case "camera":
		return s.state.Camera
	case "screen":
		return s.state.Screen
	default:
		return s.state
	}
}

// DrainPatches returns the accumulated journal and resets it. The host
// calls it once per tick to broadcast diffs.
func (s *Store) DrainPatches() []Patch {
	if len(s.journal) == 0 {
		return nil
	}
	drained := s.journal
	s.journal = nil
	return drained
}

func (s *Store) removeThing(id string) bool {
	for i, t := range s.state.Things {
		if t.ID == id {
			s.state.Things = append(s.state.Things[:i], s.state.Things[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) notify(patch Patch) {
	path := patch.Path()
	s.notifying = true
	defer func() { s.notifying = false }()
	// Snapshot so a callback unsubscribing mid-notify cannot skip peers.
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		if len(sub.path) == 0 || pathsIntersect(sub.path, path) {
			sub.fn(s.state)
		}
	}
}

func (s *Store) reject(actionType ActionType, reason string) {
	s.publisher.Publish(context.Background(), logging.Event{
		Type:     EventActionRejected,
		Tick:     s.tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindEngine},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryStore,
		Payload:  map[string]any{"action": string(actionType), "reason": reason},
	})
}
