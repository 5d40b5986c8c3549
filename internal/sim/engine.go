// Package sim runs the tick pipeline over a store-held game state: input,
// movement, update, collision, camera, render. The engine owns everything
// an instance needs (nav cache, behavior memos, RNG) so two engines never
// share mutable state.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"thingforge/server/behaviors"
	"thingforge/server/internal/world"
	"thingforge/server/logging"
	"thingforge/server/logging/script"
)

// CameraUpdateFunc lets the hosting game reposition the camera once per
// tick. The returned position is adopted verbatim.
type CameraUpdateFunc func(game world.Game) world.Vec2

// EngineConfig tunes one engine instance. Zero values fall back to the
// deterministic defaults.
type EngineConfig struct {
	// Seed drives the engine RNG. Empty uses world.DefaultSeed.
	Seed string
	// RNG overrides the seeded source entirely when non-nil.
	RNG *rand.Rand
	// Publisher receives engine events. Nil discards them.
	Publisher logging.Publisher
	// Library is the action catalog. Nil uses the built-ins.
	Library *behaviors.Library
	// CameraUpdate runs in the camera phase when non-nil.
	CameraUpdate CameraUpdateFunc
	// Resolver resolves a dynamic Thing's blocked axis against another
	// dynamic Thing. Nil cancels the axis.
	Resolver world.AxisResolver
}

// Engine drives the simulation. It implements world.Game so hooks and
// behaviors can reach back into the running instance.
type Engine struct {
	store        *Store
	library      *behaviors.Library
	publisher    logging.Publisher
	cameraUpdate CameraUpdateFunc
	resolver     world.AxisResolver
	images       map[string]world.ImageSource
	memo         *world.MemoStore
	nav          *world.NavCache
	rng          *rand.Rand
	tick         uint64
}

var _ world.Game = (*Engine)(nil)

// NewEngine wraps state in a store and returns a ready engine.
func NewEngine(state *world.GameState, cfg EngineConfig) *Engine {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	library := cfg.Library
	if library == nil {
		library = behaviors.NewLibrary()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = world.CancelAxis
	}
	rng := cfg.RNG
	if rng == nil {
		seed := cfg.Seed
		if seed == "" {
			seed = world.DefaultSeed
		}
		rng = world.NewDeterministicRNG(seed, "engine")
	}
	return &Engine{
		store:        NewStore(state, publisher),
		library:      library,
		publisher:    publisher,
		cameraUpdate: cfg.CameraUpdate,
		resolver:     resolver,
		images:       make(map[string]world.ImageSource),
		memo:         world.NewMemoStore(),
		nav:          &world.NavCache{},
		rng:          rng,
	}
}

// Step advances the simulation one tick. keys is the input snapshot for
// the whole tick; surface may be nil for a headless step, which skips the
// render phase. A paused state skips input, movement, update, and
// collision; camera and render still run so the editor view stays live.
func (e *Engine) Step(keys map[string]bool, surface world.DrawSurface) {
	e.tick++
	e.store.SetTick(e.tick)
	state := e.store.State()
	state.Keys = make(map[string]bool, len(keys))
	for name, down := range keys {
		if down {
			state.Keys[name] = true
		}
	}
	if !state.Paused {
		e.runInputPhase()
		e.runMovementPhase()
		e.runUpdatePhase()
		e.runCollisionPhase()
	}
	e.runCameraPhase()
	if surface != nil {
		e.runRenderPhase(surface)
	}
}

// Each phase iterates a snapshot taken at phase start, so a Thing spawned
// by a hook joins the pipeline at the next phase, not mid-iteration.
func (e *Engine) snapshotThings() []*world.Thing {
	return append([]*world.Thing(nil), e.store.State().Things...)
}

func (e *Engine) runInputPhase() {
	state := e.store.State()
	for _, t := range e.snapshotThings() {
		if !e.alive(t) {
			continue
		}
		bp := state.BlueprintFor(t)
		if bp.Hooks.Input != nil {
			e.guard("input", t, func() { bp.Hooks.Input(t, e) })
		}
		e.runBehaviors(t, world.TriggerInput, nil)
	}
}

func (e *Engine) runMovementPhase() {
	state := e.store.State()
	for _, t := range e.snapshotThings() {
		if !e.alive(t) {
			continue
		}
		physics := state.EffectivePhysics(t)
		if physics == world.PhysicsStatic {
			continue
		}
		proposed := world.Vec2{X: t.VX, Y: t.VY}
		bp := state.BlueprintFor(t)
		if bp.Hooks.GetAdjustedVelocity != nil {
			thing := t
			e.guard("movement", t, func() {
				proposed = bp.Hooks.GetAdjustedVelocity(thing, proposed, e)
			})
		}
		if physics == world.PhysicsAmbient {
			t.X += proposed.X
			t.Y += proposed.Y
			continue
		}
		world.MoveThing(t, proposed, state, e.resolver)
	}
}

func (e *Engine) runUpdatePhase() {
	state := e.store.State()
	for _, t := range e.snapshotThings() {
		if !e.alive(t) {
			continue
		}
		bp := state.BlueprintFor(t)
		if bp.Hooks.Update != nil {
			e.guard("update", t, func() { bp.Hooks.Update(t, e) })
		}
		e.runBehaviors(t, world.TriggerUpdate, nil)
	}
}

func (e *Engine) runCollisionPhase() {
	state := e.store.State()
	for _, pair := range world.OverlapPairs(state) {
		a, b := pair[0], pair[1]
		if e.alive(a) && e.alive(b) {
			bp := state.BlueprintFor(a)
			if bp.Hooks.Collision != nil {
				e.guard("collision", a, func() { bp.Hooks.Collision(a, b, e) })
			}
			e.runBehaviors(a, world.TriggerCollision, b)
		}
		if e.alive(a) && e.alive(b) {
			bp := state.BlueprintFor(b)
			if bp.Hooks.Collision != nil {
				e.guard("collision", b, func() { bp.Hooks.Collision(b, a, e) })
			}
			e.runBehaviors(b, world.TriggerCollision, a)
		}
	}
}

func (e *Engine) runCameraPhase() {
	if e.cameraUpdate == nil {
		return
	}
	state := e.store.State()
	e.guard("camera", nil, func() {
		state.Camera = e.cameraUpdate(e)
	})
}

func (e *Engine) runRenderPhase(surface world.DrawSurface) {
	state := e.store.State()
	ordered := e.snapshotThings()
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Z < ordered[j].Z })
	for _, t := range ordered {
		if !e.alive(t) {
			continue
		}
		bp := state.BlueprintFor(t)
		if bp.Hooks.Render == nil {
			continue
		}
		// Local frame: Thing top-left at the origin, rotation about the
		// center, camera offset already applied.
		surface.Save()
		surface.Translate(t.X-state.Camera.X+t.Width/2, t.Y-state.Camera.Y+t.Height/2)
		surface.Rotate(t.Angle * math.Pi / 180)
		surface.Translate(-t.Width/2, -t.Height/2)
		thing := t
		e.guard("render", t, func() { bp.Hooks.Render(thing, surface, e) })
		surface.Restore()
	}
}

// runBehaviors fires every behavior attached to t that both the registry
// entry and the reference allow for trigger. Thing-level references
// override blueprint-level ones per action key.
func (e *Engine) runBehaviors(t *world.Thing, trigger world.Trigger, other *world.Thing) {
	for _, ref := range e.combinedBehaviors(t) {
		def, ok := e.library.Definition(ref.ActionKey)
		if !ok {
			script.SoftSkip(context.Background(), e.publisher, e.tick,
				logging.EntityRef{ID: t.ID, Kind: logging.EntityKindThing},
				script.SoftSkipPayload{
					Where:  "behavior",
					Reason: fmt.Sprintf("unknown action key %q", ref.ActionKey),
				}, nil)
			continue
		}
		if !def.Allows(trigger) || !refAllows(ref, trigger) {
			continue
		}
		settings := behaviors.ResolveSettings(def.Settings, ref.Settings)
		ctx := &behaviors.Context{
			Thing:    t,
			Other:    other,
			Trigger:  trigger,
			Game:     e,
			Settings: settings,
		}
		e.guard(string(trigger), t, func() { def.Code(ctx) })
	}
}

func (e *Engine) combinedBehaviors(t *world.Thing) []world.BehaviorRef {
	bp := e.store.State().BlueprintFor(t)
	if len(t.Behaviors) == 0 {
		return bp.Behaviors
	}
	overrides := make(map[string]world.BehaviorRef, len(t.Behaviors))
	for _, ref := range t.Behaviors {
		overrides[ref.ActionKey] = ref
	}
	combined := make([]world.BehaviorRef, 0, len(bp.Behaviors)+len(t.Behaviors))
	fromBlueprint := make(map[string]bool, len(bp.Behaviors))
	for _, ref := range bp.Behaviors {
		fromBlueprint[ref.ActionKey] = true
		if override, ok := overrides[ref.ActionKey]; ok {
			combined = append(combined, override)
			continue
		}
		combined = append(combined, ref)
	}
	for _, ref := range t.Behaviors {
		if !fromBlueprint[ref.ActionKey] {
			combined = append(combined, ref)
		}
	}
	return combined
}

func refAllows(ref world.BehaviorRef, trigger world.Trigger) bool {
	if ref.AllowedTriggers == nil {
		return true
	}
	for _, t := range ref.AllowedTriggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// guard isolates one hook or action invocation: a panic is logged as a
// script fault and the tick continues with the next Thing.
func (e *Engine) guard(phase string, t *world.Thing, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			actor := logging.EntityRef{Kind: logging.EntityKindEngine}
			if t != nil {
				actor = logging.EntityRef{ID: t.ID, Kind: logging.EntityKindThing}
			}
			script.Fault(context.Background(), e.publisher, e.tick, actor,
				script.FaultPayload{Phase: phase, Error: fmt.Sprint(r)}, nil)
		}
	}()
	fn()
}

func (e *Engine) alive(t *world.Thing) bool {
	for _, candidate := range e.store.State().Things {
		if candidate == t {
			return true
		}
	}
	return false
}
