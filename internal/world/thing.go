package world

import "github.com/google/uuid"

// PhysicsType classifies how a Thing participates in movement and collision.
type PhysicsType string

const (
	// PhysicsStatic never moves and blocks dynamic Things.
	PhysicsStatic PhysicsType = "static"
	// PhysicsDynamic moves under its own velocity and collides.
	PhysicsDynamic PhysicsType = "dynamic"
	// PhysicsAmbient never blocks and never collides.
	PhysicsAmbient PhysicsType = "ambient"
)

// Trigger names a tick phase at which behaviors and hooks may run.
type Trigger string

const (
	TriggerInput     Trigger = "input"
	TriggerUpdate    Trigger = "update"
	TriggerCollision Trigger = "collision"
)

// BehaviorRef attaches a registry action to a Blueprint or Thing. Settings
// override the action's schema defaults; AllowedTriggers, when non-nil,
// restricts the triggers the action may fire on beyond the registry entry.
type BehaviorRef struct {
	ActionKey       string         `json:"actionKey"`
	Settings        map[string]any `json:"settings,omitempty"`
	AllowedTriggers []Trigger      `json:"allowedTriggers,omitempty"`
}

// Clone returns a deep copy so instances never share settings maps.
func (r BehaviorRef) Clone() BehaviorRef {
	out := BehaviorRef{ActionKey: r.ActionKey}
	if r.Settings != nil {
		out.Settings = make(map[string]any, len(r.Settings))
		for k, v := range r.Settings {
			out.Settings[k] = v
		}
	}
	if r.AllowedTriggers != nil {
		out.AllowedTriggers = append([]Trigger(nil), r.AllowedTriggers...)
	}
	return out
}

// CloneBehaviorRefs deep-copies a behavior list.
func CloneBehaviorRefs(refs []BehaviorRef) []BehaviorRef {
	if refs == nil {
		return nil
	}
	out := make([]BehaviorRef, len(refs))
	for i, ref := range refs {
		out[i] = ref.Clone()
	}
	return out
}

// Thing is a simulated instance. BlueprintName is a weak reference resolved
// by name on every use; a dangling reference degrades to the safe default
// blueprint rather than failing.
type Thing struct {
	ID            string         `json:"id"`
	BlueprintName string         `json:"blueprintName,omitempty"`
	X             float64        `json:"x"`
	Y             float64        `json:"y"`
	VX            float64        `json:"vx"`
	VY            float64        `json:"vy"`
	Angle         float64        `json:"angle"`
	Width         float64        `json:"width"`
	Height        float64        `json:"height"`
	Z             float64        `json:"z"`
	Color         string         `json:"color,omitempty"`
	PhysicsType   *PhysicsType   `json:"physicsType,omitempty"`
	Data          any            `json:"data,omitempty"`
	Behaviors     []BehaviorRef  `json:"behaviors,omitempty"`
}

// NewThingID returns an opaque identifier unique for the game session.
func NewThingID() string {
	return uuid.NewString()
}

// Rect returns the Thing's axis-aligned bounding box.
func (t *Thing) Rect() Rect {
	return Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

// Center returns the Thing's midpoint.
func (t *Thing) Center() Vec2 {
	return t.Rect().Center()
}
