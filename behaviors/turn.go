package behaviors

import "thingforge/server/internal/world"

// turnDefinition rotates the Thing by a fixed amount per tick. Right turns
// increase the angle (clockwise in screen coordinates), left turns decrease
// it.
func turnDefinition() *Definition {
	return &Definition{
		Key:             "turn",
		AllowedTriggers: []world.Trigger{world.TriggerUpdate},
		Settings: Schema{
			"speed": {Kind: SettingNumber, Default: 2.0},
			"direction": {
				Kind:    SettingEnum,
				Default: "right",
				Options: []string{"left", "right"},
			},
		},
		Code: runTurn,
	}
}

func runTurn(ctx *Context) {
	speed := ctx.Settings.Number("speed")
	if ctx.Settings.String("direction") == "left" {
		speed = -speed
	}
	ctx.Thing.Angle += speed
}
