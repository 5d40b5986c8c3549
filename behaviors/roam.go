package behaviors

import (
	"math"

	"thingforge/server/internal/world"
)

const roamRetargetAttempts = 8

// roamDefinition wanders a Thing between random targets inside the visible
// camera rectangle. The current target is memoized per Thing on the engine
// and kept until arrival.
func roamDefinition() *Definition {
	return &Definition{
		Key:             "roam",
		AllowedTriggers: []world.Trigger{world.TriggerUpdate},
		Settings: Schema{
			"speed":          {Kind: SettingNumber, Default: 2.0},
			"arriveDistance": {Kind: SettingNumber, Default: 8.0},
			"minDistance":    {Kind: SettingNumber, Default: 60.0},
		},
		Code: runRoam,
	}
}

func runRoam(ctx *Context) {
	t := ctx.Thing
	game := ctx.Game
	speed := ctx.Settings.Number("speed")
	arrive := ctx.Settings.Number("arriveDistance")
	center := t.Center()

	memoKey := world.MemoKey("roam", t.ID)
	target, ok := lookupTarget(game.Memo(), memoKey)
	if !ok || math.Hypot(target.X-center.X, target.Y-center.Y) <= arrive {
		target = pickRoamTarget(game, center, ctx.Settings.Number("minDistance"))
		game.Memo().Store(memoKey, target)
	}

	dx := target.X - center.X
	dy := target.Y - center.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		t.VX, t.VY = 0, 0
		return
	}
	t.VX = dx / dist * speed
	t.VY = dy / dist * speed
	t.Angle = math.Atan2(dy, dx) * 180 / math.Pi
}

func lookupTarget(memo *world.MemoStore, key string) (world.Vec2, bool) {
	v, ok := memo.Lookup(key)
	if !ok {
		return world.Vec2{}, false
	}
	target, ok := v.(world.Vec2)
	return target, ok
}

// pickRoamTarget draws uniformly from the visible rectangle, retrying a few
// times for a minimum travel distance and accepting the last candidate
// regardless.
func pickRoamTarget(game world.Game, from world.Vec2, minDistance float64) world.Vec2 {
	view := game.State().ViewRect()
	rng := game.Rand()
	var candidate world.Vec2
	for attempt := 0; attempt < roamRetargetAttempts; attempt++ {
		candidate = world.Vec2{
			X: view.X + rng.Float64()*view.Width,
			Y: view.Y + rng.Float64()*view.Height,
		}
		if math.Hypot(candidate.X-from.X, candidate.Y-from.Y) >= minDistance {
			return candidate
		}
	}
	return candidate
}
