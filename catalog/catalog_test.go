package catalog

import (
	"strings"
	"testing"

	"thingforge/server/internal/world"
)

const sampleGame = `{
  "backgroundColor": "#101418",
  "camera": {"x": 40, "y": 60},
  "screen": {"x": 1024, "y": 768},
  "blueprints": [
    {
      "name": "wall",
      "width": 32,
      "height": 32,
      "physicsType": "static"
    },
    {
      "name": "goblin",
      "width": 16,
      "height": 16,
      "color": "green",
      "behaviors": [
        {"actionKey": "roam", "settings": {"speed": 1.5}}
      ]
    }
  ],
  "things": [
    {"id": "wall-1", "blueprint": "wall", "x": 100, "y": 0, "width": 32, "height": 32},
    {"blueprint": "goblin", "x": 10, "y": 10, "width": 16, "height": 16, "physicsType": "ambient"}
  ]
}`

func TestLoadBuildsValidatedState(t *testing.T) {
	file, err := Load(strings.NewReader(sampleGame))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	state := file.BuildState()

	if state.BackgroundColor != "#101418" {
		t.Fatalf("background = %q", state.BackgroundColor)
	}
	if state.Camera != (world.Vec2{X: 40, Y: 60}) {
		t.Fatalf("camera = %v", state.Camera)
	}
	if state.Screen != (world.Size{Width: 1024, Height: 768}) {
		t.Fatalf("screen = %v", state.Screen)
	}

	wall, ok := state.Blueprints["wall"]
	if !ok || wall.PhysicsType != world.PhysicsStatic {
		t.Fatalf("wall blueprint = %+v", wall)
	}
	goblin := state.Blueprints["goblin"]
	if goblin.PhysicsType != world.PhysicsDynamic {
		t.Fatalf("blank physics should default to dynamic, got %q", goblin.PhysicsType)
	}
	if len(goblin.Behaviors) != 1 || goblin.Behaviors[0].ActionKey != "roam" {
		t.Fatalf("goblin behaviors = %+v", goblin.Behaviors)
	}

	if len(state.Things) != 2 {
		t.Fatalf("expected 2 things, got %d", len(state.Things))
	}
	if state.Things[0].ID != "wall-1" {
		t.Fatalf("explicit id lost: %q", state.Things[0].ID)
	}
	if state.Things[1].ID == "" {
		t.Fatal("missing id must be assigned on load")
	}
	if state.Things[1].PhysicsType == nil || *state.Things[1].PhysicsType != world.PhysicsAmbient {
		t.Fatal("per-thing physics override lost")
	}
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"blueprints": [`},
		{"duplicate-blueprint", `{"blueprints": [{"name": "a"}, {"name": "a"}]}`},
		{"empty-blueprint-name", `{"blueprints": [{"name": ""}]}`},
		{"unknown-physics", `{"blueprints": [{"name": "a", "physicsType": "liquid"}]}`},
		{"duplicate-thing-id", `{"things": [{"id": "t"}, {"id": "t"}]}`},
		{"negative-size", `{"things": [{"width": -4}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tc.doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSnapshotStateRoundTrips(t *testing.T) {
	file, err := Load(strings.NewReader(sampleGame))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	state := file.BuildState()

	snapshot := SnapshotState(state)

	if snapshot.BackgroundColor != file.BackgroundColor {
		t.Fatalf("background = %q", snapshot.BackgroundColor)
	}
	if len(snapshot.Blueprints) != 2 || len(snapshot.Things) != 2 {
		t.Fatalf("snapshot sizes: %d blueprints, %d things", len(snapshot.Blueprints), len(snapshot.Things))
	}
	// Blueprints are emitted in sorted name order for stable diffs.
	if snapshot.Blueprints[0].Name != "goblin" || snapshot.Blueprints[1].Name != "wall" {
		t.Fatalf("blueprint order: %s, %s", snapshot.Blueprints[0].Name, snapshot.Blueprints[1].Name)
	}

	rebuilt := snapshot.BuildState()
	if len(rebuilt.Things) != 2 || len(rebuilt.Blueprints) != 2 {
		t.Fatal("snapshot does not rebuild the same scene")
	}
	if rebuilt.Things[1].PhysicsType == nil || *rebuilt.Things[1].PhysicsType != world.PhysicsAmbient {
		t.Fatal("physics override lost in round trip")
	}
}
