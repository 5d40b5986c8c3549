package sim

import (
	"fmt"
	"testing"

	"thingforge/server/internal/world"
	"thingforge/server/logging"
	"thingforge/server/logging/script"
)

func newTestEngine(t *testing.T, state *world.GameState) (*Engine, *eventRecorder) {
	t.Helper()
	recorder := &eventRecorder{}
	engine := NewEngine(state, EngineConfig{Seed: "test", Publisher: recorder})
	return engine, recorder
}

func staticPhysics() *world.PhysicsType {
	kind := world.PhysicsStatic
	return &kind
}

func TestStaticThingNeverMoves(t *testing.T) {
	state := world.NewGameState()
	rock := &world.Thing{ID: "rock", X: 50, Y: 50, Width: 10, Height: 10, VX: 7, VY: -3, PhysicsType: staticPhysics()}
	state.Things = append(state.Things, rock)
	engine, _ := newTestEngine(t, state)

	for i := 0; i < 10; i++ {
		engine.Step(nil, nil)
	}

	if rock.X != 50 || rock.Y != 50 {
		t.Fatalf("static thing moved to (%g, %g)", rock.X, rock.Y)
	}
}

func TestDynamicBlockedByStaticZeroesOnlyThatAxis(t *testing.T) {
	state := world.NewGameState()
	mover := &world.Thing{ID: "mover", X: 0, Y: 0, Width: 10, Height: 10, VX: 10, VY: 2}
	wall := &world.Thing{ID: "wall", X: 15, Y: 0, Width: 10, Height: 10, PhysicsType: staticPhysics()}
	state.Things = append(state.Things, mover, wall)
	engine, _ := newTestEngine(t, state)

	engine.Step(nil, nil)

	if mover.X != 0 || mover.VX != 0 {
		t.Fatalf("blocked axis: x=%g vx=%g, want 0, 0", mover.X, mover.VX)
	}
	if mover.Y != 2 || mover.VY != 2 {
		t.Fatalf("free axis: y=%g vy=%g, want 2, 2", mover.Y, mover.VY)
	}
}

func TestGetAdjustedVelocityHookReplacesProposal(t *testing.T) {
	state := world.NewGameState()
	state.Blueprints["sled"] = world.Blueprint{
		Name:        "sled",
		PhysicsType: world.PhysicsDynamic,
		Hooks: world.Hooks{
			GetAdjustedVelocity: func(t *world.Thing, proposed world.Vec2, game world.Game) world.Vec2 {
				return world.Vec2{X: proposed.X / 2, Y: 0}
			},
		},
	}
	sled := &world.Thing{ID: "sled-1", BlueprintName: "sled", X: 0, Y: 0, Width: 4, Height: 4, VX: 8, VY: 8}
	state.Things = append(state.Things, sled)
	engine, _ := newTestEngine(t, state)

	engine.Step(nil, nil)

	if sled.X != 4 || sled.Y != 0 {
		t.Fatalf("adjusted velocity ignored: (%g, %g)", sled.X, sled.Y)
	}
}

func TestSpawnUnknownBlueprintReturnsNil(t *testing.T) {
	engine, recorder := newTestEngine(t, nil)

	if got := engine.Spawn(world.SpawnDescriptor{Blueprint: "ghost"}); got != nil {
		t.Fatalf("expected nil for unknown blueprint, got %+v", got)
	}
	if len(engine.State().Things) != 0 {
		t.Fatal("unknown blueprint must not insert a thing")
	}
	if len(recorder.byType(script.EventSoftSkip)) != 1 {
		t.Fatal("expected a soft-skip event")
	}
}

func TestSpawnAppliesOverridesAndValidatesData(t *testing.T) {
	state := world.NewGameState()
	state.Blueprints["chest"] = world.Blueprint{
		Name: "chest", Width: 16, Height: 12, Color: "gold",
		PhysicsType: world.PhysicsDynamic,
		Data: &world.DataSpec{
			Kind: "loot",
			Validate: func(v any) error {
				if _, ok := v.(map[string]any); !ok {
					return fmt.Errorf("expected object")
				}
				return nil
			},
		},
	}
	engine, recorder := newTestEngine(t, state)

	angle := 45.0
	velocity := world.Vec2{X: 1, Y: 2}
	spawned := engine.Spawn(world.SpawnDescriptor{
		Blueprint: "chest",
		Position:  world.Vec2{X: 30, Y: 40},
		Overrides: &world.SpawnOverrides{
			Velocity: &velocity,
			Angle:    &angle,
			Color:    "silver",
			Data:     "not-an-object",
		},
	})

	if spawned == nil {
		t.Fatal("spawn returned nil for a known blueprint")
	}
	if spawned.X != 30 || spawned.Y != 40 || spawned.VX != 1 || spawned.VY != 2 {
		t.Fatalf("position/velocity overrides lost: %+v", spawned)
	}
	if spawned.Angle != 45 || spawned.Color != "silver" {
		t.Fatalf("angle/color overrides lost: %+v", spawned)
	}
	if spawned.Width != 16 || spawned.Height != 12 {
		t.Fatalf("blueprint size lost: %gx%g", spawned.Width, spawned.Height)
	}
	if spawned.Data != nil {
		t.Fatal("invalid data must be dropped, not kept")
	}
	if len(recorder.byType(script.EventSoftSkip)) != 1 {
		t.Fatal("invalid data must be logged as a soft skip")
	}
	if engine.State().ThingByID(spawned.ID) == nil {
		t.Fatal("spawned thing missing from state")
	}
}

func TestDestroyIsIdempotentAndDropsMemos(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	thing := engine.Insert(&world.Thing{ID: "t1"})
	engine.Memo().Store(world.MemoKey("roam", "t1"), world.Vec2{X: 1})
	engine.DrainPatches()

	engine.Destroy(thing)
	engine.Destroy(thing)

	if len(engine.State().Things) != 0 {
		t.Fatal("thing survived destroy")
	}
	if _, ok := engine.Memo().Lookup(world.MemoKey("roam", "t1")); ok {
		t.Fatal("destroy must drop the thing's memos")
	}
	patches := engine.DrainPatches()
	if len(patches) != 1 || patches[0].Kind != PatchThingRemoved {
		t.Fatalf("expected one removal patch, got %v", patches)
	}
}

func TestHookSpawnVisibleToLaterPhasesSameTick(t *testing.T) {
	state := world.NewGameState()
	collisions := 0
	state.Blueprints["emitter"] = world.Blueprint{
		Name:        "emitter",
		PhysicsType: world.PhysicsStatic,
		Hooks: world.Hooks{
			Input: func(t *world.Thing, game world.Game) {
				if game.Tick() > 1 {
					return
				}
				game.Spawn(world.SpawnDescriptor{Blueprint: "spark", Position: world.Vec2{X: 100, Y: 100}})
			},
		},
	}
	state.Blueprints["spark"] = world.Blueprint{
		Name: "spark", Width: 10, Height: 10,
		PhysicsType: world.PhysicsDynamic,
		Hooks: world.Hooks{
			Collision: func(t, other *world.Thing, game world.Game) { collisions++ },
		},
	}
	emitter := &world.Thing{ID: "emitter-1", BlueprintName: "emitter", X: 0, Y: 0, Width: 10, Height: 10}
	target := &world.Thing{ID: "target", X: 102, Y: 102, Width: 10, Height: 10}
	state.Things = append(state.Things, emitter, target)
	engine, _ := newTestEngine(t, state)

	engine.Step(nil, nil)

	if collisions == 0 {
		t.Fatal("thing spawned in the input phase must reach the collision phase this tick")
	}
}

func TestScriptFaultIsIsolatedPerThing(t *testing.T) {
	state := world.NewGameState()
	updated := false
	state.Blueprints["bad"] = world.Blueprint{
		Name:        "bad",
		PhysicsType: world.PhysicsDynamic,
		Hooks: world.Hooks{
			Update: func(t *world.Thing, game world.Game) { panic("scripted meltdown") },
		},
	}
	state.Blueprints["good"] = world.Blueprint{
		Name:        "good",
		PhysicsType: world.PhysicsDynamic,
		Hooks: world.Hooks{
			Update: func(t *world.Thing, game world.Game) { updated = true },
		},
	}
	state.Things = append(state.Things,
		&world.Thing{ID: "bad-1", BlueprintName: "bad"},
		&world.Thing{ID: "good-1", BlueprintName: "good", X: 100},
	)
	engine, recorder := newTestEngine(t, state)

	engine.Step(nil, nil)

	if !updated {
		t.Fatal("a faulting script must not abort the phase for other things")
	}
	faults := recorder.byType(script.EventFault)
	if len(faults) != 1 {
		t.Fatalf("expected one fault event, got %d", len(faults))
	}
	if faults[0].Actor.ID != "bad-1" || faults[0].Severity != logging.SeverityError {
		t.Fatalf("fault event = %+v", faults[0])
	}
}

func TestPauseSkipsSimulationButRunsCamera(t *testing.T) {
	state := world.NewGameState()
	state.Paused = true
	mover := &world.Thing{ID: "mover", VX: 5, Width: 4, Height: 4}
	state.Things = append(state.Things, mover)

	cameraRan := false
	recorder := &eventRecorder{}
	engine := NewEngine(state, EngineConfig{
		Publisher: recorder,
		CameraUpdate: func(game world.Game) world.Vec2 {
			cameraRan = true
			return world.Vec2{X: 11, Y: 22}
		},
	})

	engine.Step(nil, nil)

	if mover.X != 0 {
		t.Fatalf("paused state must not integrate movement, x=%g", mover.X)
	}
	if !cameraRan {
		t.Fatal("camera phase must run while paused")
	}
	if state.Camera != (world.Vec2{X: 11, Y: 22}) {
		t.Fatalf("camera = %v, want the hook's position", state.Camera)
	}
}

type renderRecord struct {
	id string
}

type recordingSurface struct {
	saves    int
	restores int
}

func (s *recordingSurface) Save()                  { s.saves++ }
func (s *recordingSurface) Restore()               { s.restores++ }
func (s *recordingSurface) Translate(x, y float64) {}
func (s *recordingSurface) Rotate(radians float64) {}

func TestRenderOrderStableByZ(t *testing.T) {
	state := world.NewGameState()
	var order []renderRecord
	state.Blueprints["sprite"] = world.Blueprint{
		Name:        "sprite",
		PhysicsType: world.PhysicsAmbient,
		Hooks: world.Hooks{
			Render: func(t *world.Thing, surface world.DrawSurface, game world.Game) {
				order = append(order, renderRecord{id: t.ID})
			},
		},
	}
	state.Things = append(state.Things,
		&world.Thing{ID: "top", BlueprintName: "sprite", Z: 5},
		&world.Thing{ID: "back-a", BlueprintName: "sprite", Z: 1},
		&world.Thing{ID: "back-b", BlueprintName: "sprite", Z: 1},
	)
	engine, _ := newTestEngine(t, state)

	surface := &recordingSurface{}
	engine.Step(nil, surface)

	if len(order) != 3 {
		t.Fatalf("expected 3 render calls, got %d", len(order))
	}
	if order[0].id != "back-a" || order[1].id != "back-b" || order[2].id != "top" {
		t.Fatalf("render order = %v, want back-a, back-b, top", order)
	}
	if surface.saves != 3 || surface.restores != 3 {
		t.Fatalf("save/restore imbalance: %d saves, %d restores", surface.saves, surface.restores)
	}
}

func TestDuplicateThingsKeepGroupOffsets(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.Insert(&world.Thing{ID: "a", X: 10, Y: 20, Width: 4, Height: 4,
		Behaviors: []world.BehaviorRef{{ActionKey: "turn", Settings: map[string]any{"speed": 9.0}}}})
	engine.Insert(&world.Thing{ID: "b", X: 30, Y: 50, Width: 4, Height: 4})

	newIDs := engine.DuplicateThingsWithIds([]string{"a", "b", "ghost"}, world.Vec2{X: 100, Y: 100})

	if len(newIDs) != 2 {
		t.Fatalf("expected 2 clones, got %d", len(newIDs))
	}
	state := engine.State()
	cloneA := state.ThingByID(newIDs[0])
	cloneB := state.ThingByID(newIDs[1])
	if cloneA.X != 100 || cloneA.Y != 100 {
		t.Fatalf("anchor clone at (%g, %g), want (100, 100)", cloneA.X, cloneA.Y)
	}
	if cloneB.X != 120 || cloneB.Y != 130 {
		t.Fatalf("offset clone at (%g, %g), want (120, 130)", cloneB.X, cloneB.Y)
	}

	// Behavior settings must be deep-copied, not shared.
	cloneA.Behaviors[0].Settings["speed"] = 1.0
	original := state.ThingByID("a")
	if original.Behaviors[0].Settings["speed"] != 9.0 {
		t.Fatal("duplicate shares the source's settings map")
	}
}

func TestExplodeDebrisKeepsFlyingNearObstacles(t *testing.T) {
	state := world.NewGameState()
	wall := &world.Thing{ID: "wall", X: 0, Y: 0, Width: 40, Height: 40, PhysicsType: staticPhysics()}
	bomb := &world.Thing{
		ID: "bomb", X: 18, Y: 18, Width: 4, Height: 4,
		Behaviors: []world.BehaviorRef{{
			ActionKey:       "explode",
			Settings:        map[string]any{"speed": 3.0},
			AllowedTriggers: []world.Trigger{world.TriggerCollision},
		}},
	}
	state.Things = append(state.Things, wall, bomb)
	engine, _ := newTestEngine(t, state)

	for i := 0; i < 6; i++ {
		engine.Step(nil, nil)
	}

	// Debris is ambient: even fragments that crossed the wall or each
	// other must keep their outward velocity instead of getting an axis
	// cancelled against them.
	fragments := 0
	for _, thing := range engine.State().Things {
		if thing.ID == "wall" {
			continue
		}
		fragments++
		if thing.VX == 0 && thing.VY == 0 {
			t.Fatalf("fragment at (%g, %g) lost its velocity", thing.X, thing.Y)
		}
	}
	if fragments != 16 {
		t.Fatalf("fragments = %d, want a 4x4 grid", fragments)
	}
}

func TestThingBehaviorOverridesBlueprintByKey(t *testing.T) {
	state := world.NewGameState()
	state.Blueprints["spinner"] = world.Blueprint{
		Name:        "spinner",
		PhysicsType: world.PhysicsDynamic,
		Behaviors:   []world.BehaviorRef{{ActionKey: "turn", Settings: map[string]any{"speed": 2.0}}},
	}
	spinner := &world.Thing{
		ID: "s1", BlueprintName: "spinner",
		Behaviors: []world.BehaviorRef{{ActionKey: "turn", Settings: map[string]any{"speed": 5.0}}},
	}
	state.Things = append(state.Things, spinner)
	engine, _ := newTestEngine(t, state)

	engine.Step(nil, nil)

	if spinner.Angle != 5 {
		t.Fatalf("angle = %g, want thing-level override 5", spinner.Angle)
	}
}

func TestBehaviorRefAllowedTriggersRestrict(t *testing.T) {
	state := world.NewGameState()
	spinner := &world.Thing{
		ID: "s1",
		Behaviors: []world.BehaviorRef{{
			ActionKey:       "turn",
			AllowedTriggers: []world.Trigger{},
		}},
	}
	state.Things = append(state.Things, spinner)
	engine, _ := newTestEngine(t, state)

	engine.Step(nil, nil)

	if spinner.Angle != 0 {
		t.Fatalf("empty allowedTriggers must suppress the action, angle=%g", spinner.Angle)
	}
}

func TestUnknownActionKeyIsSoftSkipped(t *testing.T) {
	state := world.NewGameState()
	thing := &world.Thing{ID: "t1", Behaviors: []world.BehaviorRef{{ActionKey: "vanish"}}}
	state.Things = append(state.Things, thing)
	engine, recorder := newTestEngine(t, state)

	engine.Step(nil, nil)

	if len(recorder.byType(script.EventSoftSkip)) == 0 {
		t.Fatal("unknown action key must be logged as a soft skip")
	}
}

func TestKeysSnapshotPerTick(t *testing.T) {
	state := world.NewGameState()
	player := &world.Thing{ID: "p1", Behaviors: []world.BehaviorRef{{ActionKey: "moveWithArrows"}}}
	state.Things = append(state.Things, player)
	engine, _ := newTestEngine(t, state)

	engine.Step(map[string]bool{"ArrowRight": true}, nil)
	if player.VX != 3 {
		t.Fatalf("vx = %g, want 3", player.VX)
	}

	engine.Step(nil, nil)
	if player.VX != 0 {
		t.Fatalf("released keys must zero intent, vx = %g", player.VX)
	}
}

func TestStepAdvancesTick(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	engine.Step(nil, nil)
	engine.Step(nil, nil)
	if engine.Tick() != 2 {
		t.Fatalf("tick = %d, want 2", engine.Tick())
	}
}
