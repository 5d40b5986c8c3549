package sim

import (
	"context"
	"testing"

	"thingforge/server/internal/world"
	"thingforge/server/logging"
)

// eventRecorder captures published events synchronously for assertions.
type eventRecorder struct {
	events []logging.Event
}

func (r *eventRecorder) Publish(_ context.Context, event logging.Event) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) byType(eventType logging.EventType) []logging.Event {
	var matched []logging.Event
	for _, event := range r.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func TestDispatchAddThingAndSelect(t *testing.T) {
	store := NewStore(nil, nil)
	thing := &world.Thing{ID: "t1", X: 5, Y: 5}

	store.Dispatch(Action{Type: ActionAddThing, Thing: thing})
	store.Dispatch(Action{Type: ActionSetSelectedThingID, ThingID: "t1"})

	state := store.State()
	if state.ThingByID("t1") == nil {
		t.Fatal("dispatched thing missing from state")
	}
	if state.SelectedThingID != "t1" {
		t.Fatalf("selection = %q, want t1", state.SelectedThingID)
	}
}

func TestDispatchUnknownActionIsLoggedNoOp(t *testing.T) {
	recorder := &eventRecorder{}
	store := NewStore(nil, recorder)

	store.Dispatch(Action{Type: "teleportEverything"})

	if len(store.State().Things) != 0 {
		t.Fatal("unknown action mutated state")
	}
	rejected := recorder.byType(EventActionRejected)
	if len(rejected) != 1 {
		t.Fatalf("expected one rejection event, got %d", len(rejected))
	}
	if rejected[0].Severity != logging.SeverityWarn {
		t.Fatalf("rejection severity = %d, want warn", rejected[0].Severity)
	}
	if len(store.DrainPatches()) != 0 {
		t.Fatal("unknown action must not journal a patch")
	}
}

func TestDispatchRejectsUnusablePayloads(t *testing.T) {
	cases := []struct {
		name   string
		action Action
	}{
		{"add-nil-thing", Action{Type: ActionAddThing}},
		{"add-empty-id", Action{Type: ActionAddThing, Thing: &world.Thing{}}},
		{"update-missing", Action{Type: ActionUpdateThing, Thing: &world.Thing{ID: "ghost"}}},
		{"rename-missing", Action{Type: ActionRenameBlueprint, Rename: &RenamePayload{From: "ghost", To: "x"}}},
		{"camera-nil", Action{Type: ActionSetCameraPosition}},
		{"screen-negative", Action{Type: ActionSetScreenSize, Size: &world.Size{Width: -1, Height: 10}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := &eventRecorder{}
			store := NewStore(nil, recorder)

			store.Dispatch(tc.action)

			if len(recorder.byType(EventActionRejected)) != 1 {
				t.Fatal("expected a rejection event")
			}
			if len(store.DrainPatches()) != 0 {
				t.Fatal("rejected action must not journal a patch")
			}
		})
	}
}

func TestDispatchRemoveThingMissingIsSilent(t *testing.T) {
	recorder := &eventRecorder{}
	store := NewStore(nil, recorder)

	store.Dispatch(Action{Type: ActionRemoveThing, ThingID: "ghost"})

	if len(recorder.byType(EventActionRejected)) != 0 {
		t.Fatal("removing an absent thing is not an error")
	}
}

func TestDispatchUpdateThingReplaces(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(Action{Type: ActionAddThing, Thing: &world.Thing{ID: "t1", X: 1}})

	store.Dispatch(Action{Type: ActionUpdateThing, Thing: &world.Thing{ID: "t1", X: 99}})

	if got := store.State().ThingByID("t1").X; got != 99 {
		t.Fatalf("x = %g, want 99", got)
	}
}

func TestDispatchRenameBlueprintRekeys(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(Action{Type: ActionAddBlueprint, Blueprint: &world.Blueprint{Name: "goblin", Width: 8}})
	store.Dispatch(Action{Type: ActionAddThing, Thing: &world.Thing{ID: "g1", BlueprintName: "goblin"}})

	store.Dispatch(Action{Type: ActionRenameBlueprint, Rename: &RenamePayload{From: "goblin", To: "orc"}})

	state := store.State()
	if _, ok := state.Blueprints["goblin"]; ok {
		t.Fatal("old key survived the rename")
	}
	bp, ok := state.Blueprints["orc"]
	if !ok || bp.Name != "orc" || bp.Width != 8 {
		t.Fatalf("renamed blueprint = %+v", bp)
	}
	// Thing references are weak: they keep the old name and degrade to the
	// safe default until re-pointed.
	thing := state.ThingByID("g1")
	if thing.BlueprintName != "goblin" {
		t.Fatalf("rename must not rewrite thing references, got %q", thing.BlueprintName)
	}
	if got := state.BlueprintFor(thing); got.PhysicsType != world.PhysicsDynamic {
		t.Fatalf("dangling reference should yield the safe default, got %+v", got)
	}
}

func TestDispatchUpdateBlueprintReplacesExisting(t *testing.T) {
	rec := &eventRecorder{}
	store := NewStore(nil, rec)
	store.Dispatch(Action{Type: ActionAddBlueprint, Blueprint: &world.Blueprint{Name: "goblin", Width: 8}})

	store.Dispatch(Action{Type: ActionUpdateBlueprint, Blueprint: &world.Blueprint{Name: "goblin", Width: 16, Color: "green"}})
	bp := store.State().Blueprints["goblin"]
	if bp.Width != 16 || bp.Color != "green" {
		t.Fatalf("updated blueprint = %+v", bp)
	}

	store.DrainPatches()
	store.Dispatch(Action{Type: ActionUpdateBlueprint, Blueprint: &world.Blueprint{Name: "troll"}})
	if got := len(store.DrainPatches()); got != 0 {
		t.Fatalf("update of missing blueprint recorded %d patches", got)
	}
	if got := len(rec.byType(EventActionRejected)); got != 1 {
		t.Fatalf("rejected events = %d, want 1", got)
	}
}

func TestSubscribePathScoping(t *testing.T) {
	store := NewStore(nil, nil)

	var blueprintCalls, thingCalls, allCalls int
	_, _, unsubBlueprints := store.Subscribe([]string{"blueprints"}, func(*world.GameState) { blueprintCalls++ })
	_, _, unsubThing := store.Subscribe([]string{"things", "t1"}, func(*world.GameState) { thingCalls++ })
	_, _, unsubAll := store.Subscribe(nil, func(*world.GameState) { allCalls++ })
	defer unsubThing()
	defer unsubAll()

	store.Dispatch(Action{Type: ActionAddBlueprint, Blueprint: &world.Blueprint{Name: "goblin"}})
	if blueprintCalls != 1 || thingCalls != 0 {
		t.Fatalf("blueprint dispatch: blueprintCalls=%d thingCalls=%d", blueprintCalls, thingCalls)
	}

	store.Dispatch(Action{Type: ActionAddThing, Thing: &world.Thing{ID: "t1"}})
	store.Dispatch(Action{Type: ActionAddThing, Thing: &world.Thing{ID: "t2"}})
	if thingCalls != 1 {
		t.Fatalf("thing subscriber saw %d notifications, want 1 (only its id)", thingCalls)
	}
	if allCalls != 3 {
		t.Fatalf("empty-path subscriber saw %d notifications, want 3", allCalls)
	}

	unsubBlueprints()
	store.Dispatch(Action{Type: ActionAddBlueprint, Blueprint: &world.Blueprint{Name: "orc"}})
	if blueprintCalls != 1 {
		t.Fatal("unsubscribed callback still firing")
	}
}

func TestSubscribeReturnsCurrentValueAndDispatch(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(Action{Type: ActionSetBackgroundColor, Color: "#202020"})

	color, dispatch, unsub := store.Subscribe([]string{"backgroundColor"}, func(*world.GameState) {})
	defer unsub()

	if color != "#202020" {
		t.Fatalf("subscribe snapshot color = %v", color)
	}
	dispatch(Action{Type: ActionSetBackgroundColor, Color: "#ffffff"})
	if store.State().BackgroundColor != "#ffffff" {
		t.Fatal("returned dispatch handle must reach the reducer")
	}
}

func TestSubscribeValueResolvesNamedSlices(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(Action{Type: ActionAddBlueprint, Blueprint: &world.Blueprint{Name: "goblin", Width: 8}})
	store.Dispatch(Action{Type: ActionAddThing, Thing: &world.Thing{ID: "t1", X: 3}})
	store.Dispatch(Action{Type: ActionSetCameraPosition, Position: &world.Vec2{X: 5, Y: 6}})

	value, _, _ := store.Subscribe([]string{"blueprints", "goblin"}, func(*world.GameState) {})
	if bp, ok := value.(world.Blueprint); !ok || bp.Width != 8 {
		t.Fatalf("blueprint value = %v", value)
	}

	value, _, _ = store.Subscribe([]string{"things", "t1"}, func(*world.GameState) {})
	if thing, ok := value.(*world.Thing); !ok || thing.X != 3 {
		t.Fatalf("thing value = %v", value)
	}

	value, _, _ = store.Subscribe([]string{"camera"}, func(*world.GameState) {})
	if cam, ok := value.(world.Vec2); !ok || cam != (world.Vec2{X: 5, Y: 6}) {
		t.Fatalf("camera value = %v", value)
	}

	value, _, _ = store.Subscribe([]string{"things", "missing"}, func(*world.GameState) {})
	if value != (*world.Thing)(nil) {
		t.Fatalf("missing thing value = %v, want nil", value)
	}

	value, _, _ = store.Subscribe(nil, func(*world.GameState) {})
	if value != store.State() {
		t.Fatal("empty path must yield the whole state")
	}
}

func TestDispatchFromSubscriberIsRejected(t *testing.T) {
	rec := &eventRecorder{}
	store := NewStore(nil, rec)

	var dispatch func(Action)
	var unsub func()
	_, dispatch, unsub = store.Subscribe([]string{"paused"}, func(*world.GameState) {
		dispatch(Action{Type: ActionSetBackgroundColor, Color: "#bad"})
	})
	defer unsub()

	store.Dispatch(Action{Type: ActionSetPaused, Paused: true})

	if store.State().BackgroundColor == "#bad" {
		t.Fatal("re-entrant dispatch mutated state mid-notify")
	}
	if len(rec.byType(EventActionRejected)) != 1 {
		t.Fatal("re-entrant dispatch must be logged as rejected")
	}
}

func TestDrainPatchesClearsJournal(t *testing.T) {
	store := NewStore(nil, nil)
	store.Dispatch(Action{Type: ActionSetPaused, Paused: true})
	store.Dispatch(Action{Type: ActionSetCameraPosition, Position: &world.Vec2{X: 5, Y: 6}})

	patches := store.DrainPatches()
	if len(patches) != 2 {
		t.Fatalf("expected 2 patches, got %d", len(patches))
	}
	if patches[0].Kind != PatchPaused || patches[1].Kind != PatchCamera {
		t.Fatalf("patch kinds = %s, %s", patches[0].Kind, patches[1].Kind)
	}
	if store.DrainPatches() != nil {
		t.Fatal("second drain must be empty")
	}
}

func TestPathsIntersectPrefixRule(t *testing.T) {
	cases := []struct {
		a, b []string
		want bool
	}{
		{[]string{"things"}, []string{"things", "t1"}, true},
		{[]string{"things", "t1"}, []string{"things"}, true},
		{[]string{"things", "t1"}, []string{"things", "t2"}, false},
		{[]string{"camera"}, []string{"blueprints"}, false},
		{nil, []string{"camera"}, false},
	}
	for _, tc := range cases {
		if got := pathsIntersect(tc.a, tc.b); got != tc.want {
			t.Fatalf("pathsIntersect(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
