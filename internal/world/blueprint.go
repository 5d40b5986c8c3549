package world

import "math/rand"

// ImageSource exposes the natural pixel dimensions of a blueprint image.
// The host owns decode and caching; the engine only needs the size.
type ImageSource interface {
	NaturalSize() (width, height int)
}

// DrawSurface is the host-supplied 2D canvas handed to render hooks. The
// engine establishes a local frame (Thing top-left at the origin) before a
// hook runs; what gets painted is the host script's concern.
type DrawSurface interface {
	Save()
	Restore()
	Translate(x, y float64)
	Rotate(radians float64)
}

// Game is the per-engine context threaded into every hook and behavior
// invocation. Behaviors must not touch state outside this interface and
// their own Thing argument.
type Game interface {
	// State returns the live runtime state for the current tick.
	State() *GameState
	// Tick returns the current tick number.
	Tick() uint64
	// Blueprint resolves a blueprint by name.
	Blueprint(name string) (Blueprint, bool)
	// Spawn creates a Thing from a named blueprint. Returns nil when the
	// blueprint is unknown.
	Spawn(desc SpawnDescriptor) *Thing
	// Insert appends a fully-formed Thing to the state. Used by behaviors
	// that synthesize raw Things, such as explosion fragments.
	Insert(t *Thing) *Thing
	// Destroy removes a Thing. Idempotent on a second call.
	Destroy(t *Thing)
	// ImageForThing resolves the registered image for a Thing's blueprint,
	// or nil when there is none.
	ImageForThing(t *Thing) ImageSource
	// KeyDown reports the key state captured at the start of the tick.
	KeyDown(name string) bool
	// Rand returns the engine's random source.
	Rand() *rand.Rand
	// Memo returns the engine-scoped store for per-Thing behavior memos.
	Memo() *MemoStore
	// NavGrid returns the cached navigation grid for the current state.
	NavGrid(cellSize, padding float64) *NavGrid
}

// Hooks is the optional capability set a blueprint may define. Nil entries
// are skipped. GetAdjustedVelocity may replace the proposed per-tick
// velocity before movement integration.
type Hooks struct {
	Input               func(t *Thing, game Game)                      `json:"-"`
	Update              func(t *Thing, game Game)                      `json:"-"`
	Collision           func(t *Thing, other *Thing, game Game)        `json:"-"`
	Render              func(t *Thing, surface DrawSurface, game Game) `json:"-"`
	GetAdjustedVelocity func(t *Thing, proposed Vec2, game Game) Vec2  `json:"-"`
}

// DataSpec validates the opaque per-Thing data payload for one blueprint
// kind. Validation happens where a Thing is created or loaded, not on
// every access.
type DataSpec struct {
	Kind     string          `json:"kind"`
	Validate func(any) error `json:"-"`
}

// Blueprint is an immutable behavior template keyed by name. Edits replace
// the whole record.
type Blueprint struct {
	Name        string        `json:"name"`
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
	Shape       string        `json:"shape,omitempty"`
	PhysicsType PhysicsType   `json:"physicsType"`
	Weight      float64       `json:"weight"`
	Bounce      float64       `json:"bounce"`
	Image       string        `json:"image,omitempty"`
	Color       string        `json:"color,omitempty"`
	Data        *DataSpec     `json:"data,omitempty"`
	Hooks       Hooks         `json:"-"`
	Behaviors   []BehaviorRef `json:"behaviors,omitempty"`
}

// DefaultBlueprint is the safe fallback for a dangling blueprint reference:
// no-op hooks, neutral render, dynamic physics.
func DefaultBlueprint(name string) Blueprint {
	return Blueprint{Name: name, PhysicsType: PhysicsDynamic}
}

// SpawnDescriptor names a blueprint and the positional/velocity overrides
// applied to the new Thing.
type SpawnDescriptor struct {
	Blueprint string
	Position  Vec2
	Overrides *SpawnOverrides
}

// SpawnOverrides adjusts individual fields of a spawned Thing. Nil pointers
// keep the blueprint default.
type SpawnOverrides struct {
	Velocity  *Vec2
	Angle     *float64
	Width     *float64
	Height    *float64
	Z         *float64
	Color     string
	Data      any
	Behaviors []BehaviorRef
}
