package behaviors

import "thingforge/server/internal/world"

// aiDefinition is a declared extension point: the prompt setting is carried
// through the catalog, but the runtime contract lives outside this engine,
// so the action is inert.
func aiDefinition() *Definition {
	return &Definition{
		Key:             "ai",
		AllowedTriggers: []world.Trigger{world.TriggerUpdate},
		Settings: Schema{
			"prompt": {Kind: SettingString, Default: ""},
		},
		Code: func(*Context) {},
	}
}
