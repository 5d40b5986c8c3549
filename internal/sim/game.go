package sim

import (
	"context"
	"fmt"
	"math/rand"

	"thingforge/server/internal/world"
	"thingforge/server/logging"
	"thingforge/server/logging/lifecycle"
	"thingforge/server/logging/script"
)

// State returns the live game state.
func (e *Engine) State() *world.GameState {
	return e.store.State()
}

// Tick returns the current tick number.
func (e *Engine) Tick() uint64 {
	return e.tick
}

// Blueprint resolves a blueprint by name.
func (e *Engine) Blueprint(name string) (world.Blueprint, bool) {
	return e.store.State().Blueprint(name)
}

// Spawn creates a Thing from a named blueprint and inserts it. An unknown
// blueprint is logged and yields nil rather than an error, so a script
// can chain spawn attempts without checking the catalog first.
func (e *Engine) Spawn(desc world.SpawnDescriptor) *world.Thing {
	bp, ok := e.store.State().Blueprint(desc.Blueprint)
	if !ok {
		script.SoftSkip(context.Background(), e.publisher, e.tick,
			logging.EntityRef{ID: desc.Blueprint, Kind: logging.EntityKindBlueprint},
			script.SoftSkipPayload{
				Where:  "spawn",
				Reason: fmt.Sprintf("unknown blueprint %q", desc.Blueprint),
			}, nil)
		return nil
	}
	t := &world.Thing{
		ID:            world.NewThingID(),
		BlueprintName: bp.Name,
		X:             desc.Position.X,
		Y:             desc.Position.Y,
		Width:         bp.Width,
		Height:        bp.Height,
		Color:         bp.Color,
	}
	if o := desc.Overrides; o != nil {
		if o.Velocity != nil {
			t.VX = o.Velocity.X
			t.VY = o.Velocity.Y
		}
		if o.Angle != nil {
			t.Angle = *o.Angle
		}
		if o.Width != nil {
			t.Width = *o.Width
		}
		if o.Height != nil {
			t.Height = *o.Height
		}
		if o.Z != nil {
			t.Z = *o.Z
		}
		if o.Color != "" {
			t.Color = o.Color
		}
		if o.Data != nil {
			t.Data = o.Data
		}
		if o.Behaviors != nil {
			t.Behaviors = world.CloneBehaviorRefs(o.Behaviors)
		}
	}
	if bp.Data != nil && bp.Data.Validate != nil && t.Data != nil {
		if err := bp.Data.Validate(t.Data); err != nil {
			script.SoftSkip(context.Background(), e.publisher, e.tick,
				logging.EntityRef{ID: t.ID, Kind: logging.EntityKindThing},
				script.SoftSkipPayload{
					Where:  "spawn",
					Reason: fmt.Sprintf("invalid %s data: %v", bp.Data.Kind, err),
				}, nil)
			t.Data = nil
		}
	}
	return e.Insert(t)
}

// Insert appends a fully-formed Thing to the state, assigning an ID when
// absent. Behaviors use it for raw Things that have no blueprint, such as
// explosion fragments.
func (e *Engine) Insert(t *world.Thing) *world.Thing {
	if t == nil {
		return nil
	}
	if t.ID == "" {
		t.ID = world.NewThingID()
	}
	state := e.store.State()
	state.Things = append(state.Things, t)
	e.store.Record(Patch{Kind: PatchThingAdded, EntityID: t.ID, Payload: t})
	lifecycle.ThingSpawned(context.Background(), e.publisher, e.tick,
		logging.EntityRef{ID: t.ID, Kind: logging.EntityKindThing},
		lifecycle.ThingSpawnedPayload{Blueprint: t.BlueprintName, X: t.X, Y: t.Y})
	return t
}

// Destroy removes a Thing from the state along with its behavior memos.
// A second call for the same Thing is a no-op.
func (e *Engine) Destroy(t *world.Thing) {
	if t == nil {
		return
	}
	if !e.store.removeThing(t.ID) {
		return
	}
	e.memo.DropThing(t.ID)
	e.store.Record(Patch{Kind: PatchThingRemoved, EntityID: t.ID})
	lifecycle.ThingDestroyed(context.Background(), e.publisher, e.tick,
		logging.EntityRef{ID: t.ID, Kind: logging.EntityKindThing})
}

// DuplicateThingsWithIds clones the identified Things as a group anchored
// at anchor: the group's top-left corner moves there and every clone keeps
// its offset within the group. Unknown ids are skipped. Returns the new
// ids in input order.
func (e *Engine) DuplicateThingsWithIds(ids []string, anchor world.Vec2) []string {
	state := e.store.State()
	sources := make([]*world.Thing, 0, len(ids))
	for _, id := range ids {
		if t := state.ThingByID(id); t != nil {
			sources = append(sources, t)
		}
	}
	if len(sources) == 0 {
		return nil
	}
	minX, minY := sources[0].X, sources[0].Y
	for _, t := range sources[1:] {
		if t.X < minX {
			minX = t.X
		}
		if t.Y < minY {
			minY = t.Y
		}
	}
	newIDs := make([]string, 0, len(sources))
	sourceIDs := make([]string, 0, len(sources))
	for _, src := range sources {
		clone := *src
		clone.ID = world.NewThingID()
		clone.X = anchor.X + (src.X - minX)
		clone.Y = anchor.Y + (src.Y - minY)
		clone.Behaviors = world.CloneBehaviorRefs(src.Behaviors)
		if src.PhysicsType != nil {
			physics := *src.PhysicsType
			clone.PhysicsType = &physics
		}
		e.Insert(&clone)
		newIDs = append(newIDs, clone.ID)
		sourceIDs = append(sourceIDs, src.ID)
	}
	lifecycle.ThingsDuplicated(context.Background(), e.publisher, e.tick,
		lifecycle.ThingsDuplicatedPayload{SourceIDs: sourceIDs, NewIDs: newIDs})
	return newIDs
}

// RegisterImage binds an image source to a blueprint name.
func (e *Engine) RegisterImage(blueprintName string, img world.ImageSource) {
	if blueprintName == "" || img == nil {
		return
	}
	e.images[blueprintName] = img
}

// ImageForThing resolves the registered image for a Thing's blueprint, or
// nil when none is registered.
func (e *Engine) ImageForThing(t *world.Thing) world.ImageSource {
	if t == nil {
		return nil
	}
	return e.images[t.BlueprintName]
}

// KeyDown reports the key snapshot captured at the start of the tick.
func (e *Engine) KeyDown(name string) bool {
	return e.store.State().KeyDown(name)
}

// Rand returns the engine's seeded random source.
func (e *Engine) Rand() *rand.Rand {
	return e.rng
}

// Memo returns the engine-scoped behavior memo store.
func (e *Engine) Memo() *world.MemoStore {
	return e.memo
}

// NavGrid returns the cached navigation grid for the current state,
// rebuilding it when the obstacle signature changed.
func (e *Engine) NavGrid(cellSize, padding float64) *world.NavGrid {
	return e.nav.Grid(e.store.State(), cellSize, padding)
}

// Dispatch applies an editor action to the store.
func (e *Engine) Dispatch(action Action) {
	e.store.Dispatch(action)
}

// Subscribe registers a path-scoped store subscriber. It returns the
// current value of the named state slice, a dispatch handle, and an
// unsubscribe func.
func (e *Engine) Subscribe(path []string, fn Subscriber) (any, func(Action), func()) {
	return e.store.Subscribe(path, fn)
}

// DrainPatches returns and clears the patch journal.
func (e *Engine) DrainPatches() []Patch {
	return e.store.DrainPatches()
}
