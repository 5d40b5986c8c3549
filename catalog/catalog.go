// Package catalog models the game file: the designer-authored JSON document
// holding blueprints, placed things, and scene settings. The structs double
// as the schema contract reflected by cmd/schema, so editor tooling and the
// loader validate against the same shape.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"thingforge/server/internal/world"
)

// Point is a JSON-friendly 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BehaviorDefinition attaches a registry action to a blueprint or thing.
type BehaviorDefinition struct {
	ActionKey       string         `json:"actionKey" jsonschema:"title=Action Key,description=Key into the behavior action registry.,minLength=1,required"`
	Settings        map[string]any `json:"settings,omitempty" jsonschema:"description=Overrides for the action's setting defaults."`
	AllowedTriggers []string       `json:"allowedTriggers,omitempty" jsonschema:"description=Restricts the triggers the action may fire on."`
}

// BlueprintDefinition is one reusable template in the game file.
type BlueprintDefinition struct {
	Name        string               `json:"name" jsonschema:"title=Blueprint Name,description=Unique key things reference.,minLength=1,required"`
	Width       float64              `json:"width" jsonschema:"minimum=0"`
	Height      float64              `json:"height" jsonschema:"minimum=0"`
	Shape       string               `json:"shape,omitempty"`
	PhysicsType string               `json:"physicsType,omitempty" jsonschema:"enum=static,enum=dynamic,enum=ambient"`
	Weight      float64              `json:"weight,omitempty"`
	Bounce      float64              `json:"bounce,omitempty"`
	Image       string               `json:"image,omitempty" jsonschema:"description=Asset path of the blueprint image."`
	Color       string               `json:"color,omitempty"`
	Behaviors   []BehaviorDefinition `json:"behaviors,omitempty"`
}

// ThingDefinition is one placed instance in the game file.
type ThingDefinition struct {
	ID          string               `json:"id,omitempty" jsonschema:"description=Assigned on load when absent."`
	Blueprint   string               `json:"blueprint,omitempty" jsonschema:"description=Name of the blueprint this thing instantiates."`
	X           float64              `json:"x"`
	Y           float64              `json:"y"`
	VX          float64              `json:"vx,omitempty"`
	VY          float64              `json:"vy,omitempty"`
	Angle       float64              `json:"angle,omitempty"`
	Width       float64              `json:"width" jsonschema:"minimum=0"`
	Height      float64              `json:"height" jsonschema:"minimum=0"`
	Z           float64              `json:"z,omitempty"`
	Color       string               `json:"color,omitempty"`
	PhysicsType string               `json:"physicsType,omitempty" jsonschema:"enum=static,enum=dynamic,enum=ambient,description=Overrides the blueprint physics class."`
	Data        any                  `json:"data,omitempty"`
	Behaviors   []BehaviorDefinition `json:"behaviors,omitempty"`
}

// GameFile is the root document persisted by the host and edited by the
// browser tools.
type GameFile struct {
	BackgroundColor string                `json:"backgroundColor,omitempty"`
	Camera          *Point                `json:"camera,omitempty"`
	Screen          *Point                `json:"screen,omitempty" jsonschema:"description=Viewport size, width in x and height in y."`
	Blueprints      []BlueprintDefinition `json:"blueprints,omitempty"`
	Things          []ThingDefinition     `json:"things,omitempty"`
}

// Load decodes and validates a game file.
func Load(r io.Reader) (*GameFile, error) {
	var file GameFile
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode game file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks the cross-entry invariants the JSON schema cannot
// express: unique blueprint names, unique thing ids, known physics classes,
// and finite non-negative geometry.
func (f *GameFile) Validate() error {
	names := make(map[string]bool, len(f.Blueprints))
	for i, bp := range f.Blueprints {
		if bp.Name == "" {
			return fmt.Errorf("blueprint %d: empty name", i)
		}
		if names[bp.Name] {
			return fmt.Errorf("blueprint %q: duplicate name", bp.Name)
		}
		names[bp.Name] = true
		if err := validatePhysics(bp.PhysicsType); err != nil {
			return fmt.Errorf("blueprint %q: %w", bp.Name, err)
		}
		if err := validateSize(bp.Width, bp.Height); err != nil {
			return fmt.Errorf("blueprint %q: %w", bp.Name, err)
		}
	}
	ids := make(map[string]bool, len(f.Things))
	for i, t := range f.Things {
		if t.ID != "" {
			if ids[t.ID] {
				return fmt.Errorf("thing %q: duplicate id", t.ID)
			}
			ids[t.ID] = true
		}
		if err := validatePhysics(t.PhysicsType); err != nil {
			return fmt.Errorf("thing %d: %w", i, err)
		}
		if err := validateSize(t.Width, t.Height); err != nil {
			return fmt.Errorf("thing %d: %w", i, err)
		}
	}
	return nil
}

func validatePhysics(kind string) error {
	switch world.PhysicsType(kind) {
	case "", world.PhysicsStatic, world.PhysicsDynamic, world.PhysicsAmbient:
		return nil
	}
	return fmt.Errorf("unknown physics type %q", kind)
}

func validateSize(width, height float64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("negative size %gx%g", width, height)
	}
	if math.IsNaN(width) || math.IsInf(width, 0) || math.IsNaN(height) || math.IsInf(height, 0) {
		return fmt.Errorf("non-finite size")
	}
	return nil
}

// BuildState converts the file into runtime state. Hooks stay nil; the
// host registers them on the blueprints it owns. Things without an id get
// one assigned.
func (f *GameFile) BuildState() *world.GameState {
	state := world.NewGameState()
	state.BackgroundColor = f.BackgroundColor
	if f.Camera != nil {
		state.Camera = world.Vec2{X: f.Camera.X, Y: f.Camera.Y}
	}
	if f.Screen != nil && f.Screen.X > 0 && f.Screen.Y > 0 {
		state.Screen = world.Size{Width: f.Screen.X, Height: f.Screen.Y}
	}
	for _, def := range f.Blueprints {
		state.Blueprints[def.Name] = world.Blueprint{
			Name:        def.Name,
			Width:       def.Width,
			Height:      def.Height,
			Shape:       def.Shape,
			PhysicsType: physicsOrDefault(def.PhysicsType),
			Weight:      def.Weight,
			Bounce:      def.Bounce,
			Image:       def.Image,
			Color:       def.Color,
			Behaviors:   buildBehaviors(def.Behaviors),
		}
	}
	for _, def := range f.Things {
		t := &world.Thing{
			ID:            def.ID,
			BlueprintName: def.Blueprint,
			X:             def.X,
			Y:             def.Y,
			VX:            def.VX,
			VY:            def.VY,
			Angle:         def.Angle,
			Width:         def.Width,
			Height:        def.Height,
			Z:             def.Z,
			Color:         def.Color,
			Data:          def.Data,
			Behaviors:     buildBehaviors(def.Behaviors),
		}
		if t.ID == "" {
			t.ID = world.NewThingID()
		}
		if def.PhysicsType != "" {
			physics := world.PhysicsType(def.PhysicsType)
			t.PhysicsType = &physics
		}
		state.Things = append(state.Things, t)
	}
	return state
}

// SnapshotState converts runtime state back into a persistable game file.
func SnapshotState(state *world.GameState) *GameFile {
	file := &GameFile{
		BackgroundColor: state.BackgroundColor,
		Camera:          &Point{X: state.Camera.X, Y: state.Camera.Y},
		Screen:          &Point{X: state.Screen.Width, Y: state.Screen.Height},
	}
	for _, name := range sortedBlueprintNames(state) {
		bp := state.Blueprints[name]
		file.Blueprints = append(file.Blueprints, BlueprintDefinition{
			Name:        bp.Name,
			Width:       bp.Width,
			Height:      bp.Height,
			Shape:       bp.Shape,
			PhysicsType: string(bp.PhysicsType),
			Weight:      bp.Weight,
			Bounce:      bp.Bounce,
			Image:       bp.Image,
			Color:       bp.Color,
			Behaviors:   snapshotBehaviors(bp.Behaviors),
		})
	}
	for _, t := range state.Things {
		def := ThingDefinition{
			ID:        t.ID,
			Blueprint: t.BlueprintName,
			X:         t.X,
			Y:         t.Y,
			VX:        t.VX,
			VY:        t.VY,
			Angle:     t.Angle,
			Width:     t.Width,
			Height:    t.Height,
			Z:         t.Z,
			Color:     t.Color,
			Data:      t.Data,
			Behaviors: snapshotBehaviors(t.Behaviors),
		}
		if t.PhysicsType != nil {
			def.PhysicsType = string(*t.PhysicsType)
		}
		file.Things = append(file.Things, def)
	}
	return file
}

func physicsOrDefault(kind string) world.PhysicsType {
	if kind == "" {
		return world.PhysicsDynamic
	}
	return world.PhysicsType(kind)
}

func buildBehaviors(defs []BehaviorDefinition) []world.BehaviorRef {
	if len(defs) == 0 {
		return nil
	}
	refs := make([]world.BehaviorRef, len(defs))
	for i, def := range defs {
		ref := world.BehaviorRef{ActionKey: def.ActionKey, Settings: def.Settings}
		if def.AllowedTriggers != nil {
			ref.AllowedTriggers = make([]world.Trigger, len(def.AllowedTriggers))
			for j, trigger := range def.AllowedTriggers {
				ref.AllowedTriggers[j] = world.Trigger(trigger)
			}
		}
		refs[i] = ref
	}
	return refs
}

func snapshotBehaviors(refs []world.BehaviorRef) []BehaviorDefinition {
	if len(refs) == 0 {
		return nil
	}
	defs := make([]BehaviorDefinition, len(refs))
	for i, ref := range refs {
		def := BehaviorDefinition{ActionKey: ref.ActionKey, Settings: ref.Settings}
		if ref.AllowedTriggers != nil {
			def.AllowedTriggers = make([]string, len(ref.AllowedTriggers))
			for j, trigger := range ref.AllowedTriggers {
				def.AllowedTriggers[j] = string(trigger)
			}
		}
		defs[i] = def
	}
	return defs
}

func sortedBlueprintNames(state *world.GameState) []string {
	names := make([]string, 0, len(state.Blueprints))
	for name := range state.Blueprints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
