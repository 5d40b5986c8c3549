package behaviors

import (
	"math"

	"thingforge/server/internal/world"
)

// moveWithArrowsDefinition steers the Thing from the tick's key snapshot.
// Combined horizontal/vertical intent is normalized to a unit vector before
// scaling, so diagonals are not faster.
func moveWithArrowsDefinition() *Definition {
	return &Definition{
		Key:             "moveWithArrows",
		AllowedTriggers: []world.Trigger{world.TriggerInput},
		Settings: Schema{
			"speed": {Kind: SettingNumber, Default: 3.0},
		},
		Code: runMoveWithArrows,
	}
}

func runMoveWithArrows(ctx *Context) {
	game := ctx.Game
	var dx, dy float64
	if game.KeyDown("ArrowLeft") || game.KeyDown("a") {
		dx--
	}
	if game.KeyDown("ArrowRight") || game.KeyDown("d") {
		dx++
	}
	if game.KeyDown("ArrowUp") || game.KeyDown("w") {
		dy--
	}
	if game.KeyDown("ArrowDown") || game.KeyDown("s") {
		dy++
	}

	length := math.Hypot(dx, dy)
	if length == 0 {
		ctx.Thing.VX, ctx.Thing.VY = 0, 0
		return
	}
	speed := ctx.Settings.Number("speed")
	ctx.Thing.VX = dx / length * speed
	ctx.Thing.VY = dy / length * speed
}
