// Package behaviors holds the static catalog of reusable scripted actions a
// designer can attach to blueprints and things, plus the built-in library.
// The catalog is read-only after startup; action code must stay
// side-effect-free except through the Context it receives.
package behaviors

import (
	"sort"

	"thingforge/server/internal/world"
)

// SettingKind enumerates the value types a setting schema entry can take.
type SettingKind string

const (
	SettingNumber SettingKind = "number"
	SettingString SettingKind = "string"
	SettingEnum   SettingKind = "enum"
)

// Setting describes one schema entry: its kind, its default, and for enums
// the legal options.
type Setting struct {
	Kind    SettingKind `json:"kind"`
	Default any         `json:"default"`
	Options []string    `json:"options,omitempty"`
}

// Schema maps setting names to their specs.
type Schema map[string]Setting

// Values holds the resolved settings for one action invocation.
type Values map[string]any

// Number reads a numeric setting, tolerating ints from hand-built maps.
func (v Values) Number(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// String reads a string setting.
func (v Values) String(key string) string {
	if s, ok := v[key].(string); ok {
		return s
	}
	return ""
}

// ResolveSettings fills every key absent from overrides with its schema
// default. It is the single authority for the settings an action's code
// sees; unknown keys in overrides are ignored, not errors.
func ResolveSettings(schema Schema, overrides map[string]any) Values {
	resolved := make(Values, len(schema))
	for name, spec := range schema {
		if value, ok := overrides[name]; ok {
			resolved[name] = value
			continue
		}
		resolved[name] = spec.Default
	}
	return resolved
}

// Context carries everything one action invocation may touch: the acting
// Thing, the other party for collision triggers, the resolved settings, and
// the per-engine game context.
type Context struct {
	Thing    *world.Thing
	Other    *world.Thing
	Trigger  world.Trigger
	Game     world.Game
	Settings Values
}

// Definition is one registry entry: the triggers it may fire on, its
// settings schema, and the code run per invocation.
type Definition struct {
	Key             string
	AllowedTriggers []world.Trigger
	Settings        Schema
	Code            func(*Context)
}

// Allows reports whether the definition may fire on the given trigger.
func (d *Definition) Allows(trigger world.Trigger) bool {
	for _, t := range d.AllowedTriggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// Library is the process catalog mapping action keys to definitions.
type Library struct {
	defs map[string]*Definition
}

// NewLibrary returns a catalog preloaded with the built-in actions.
func NewLibrary() *Library {
	lib := &Library{defs: make(map[string]*Definition)}
	lib.Register(explodeDefinition())
	lib.Register(roamDefinition())
	lib.Register(turnDefinition())
	lib.Register(moveWithArrowsDefinition())
	lib.Register(aiDefinition())
	return lib
}

// Register adds a definition, replacing any previous entry under its key.
func (l *Library) Register(def *Definition) {
	if def == nil || def.Key == "" {
		return
	}
	l.defs[def.Key] = def
}

// Definition resolves an action key.
func (l *Library) Definition(key string) (*Definition, bool) {
	def, ok := l.defs[key]
	return def, ok
}

// Keys lists the registered action keys in sorted order.
func (l *Library) Keys() []string {
	keys := make([]string, 0, len(l.defs))
	for key := range l.defs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
