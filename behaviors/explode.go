package behaviors

import (
	"math"

	"thingforge/server/internal/world"
)

// explodeDefinition rasterizes the acting Thing into fragments with an
// outward radial velocity, then destroys it. The fragment grid comes from
// the blueprint image's natural pixel size when one is registered,
// otherwise from the Thing's rounded width and height.
func explodeDefinition() *Definition {
	return &Definition{
		Key: "explode",
		AllowedTriggers: []world.Trigger{
			world.TriggerInput,
			world.TriggerUpdate,
			world.TriggerCollision,
		},
		Settings: Schema{
			"speed": {Kind: SettingNumber, Default: 4.0},
			"color": {Kind: SettingString, Default: ""},
		},
		Code: runExplode,
	}
}

func runExplode(ctx *Context) {
	t := ctx.Thing
	game := ctx.Game
	speed := ctx.Settings.Number("speed")
	if !isFinite(speed) || !isFinite(t.Width) || !isFinite(t.Height) {
		return
	}

	cols := int(math.Round(t.Width))
	rows := int(math.Round(t.Height))
	if img := game.ImageForThing(t); img != nil {
		cols, rows = img.NaturalSize()
	}
	if cols <= 0 || rows <= 0 {
		return
	}

	color := ctx.Settings.String("color")
	if color == "" {
		if bp, ok := game.Blueprint(t.BlueprintName); ok {
			color = bp.Color
		}
	}
	if color == "" {
		color = t.Color
	}

	fragW := t.Width / float64(cols)
	fragH := t.Height / float64(rows)
	// Debris flies through obstacles and siblings rather than piling up
	// against them.
	ambient := world.PhysicsAmbient
	center := t.Center()
	sin, cos := math.Sincos(t.Angle * math.Pi / 180)
	rng := game.Rand()

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			// Cell-center offset in the Thing's local frame, rotated into
			// world space by the current angle.
			lx := (float64(col)+0.5)*fragW - t.Width/2
			ly := (float64(row)+0.5)*fragH - t.Height/2
			worldX := center.X + lx*cos - ly*sin
			worldY := center.Y + lx*sin + ly*cos

			dx := worldX - center.X
			dy := worldY - center.Y
			dist := math.Hypot(dx, dy)
			var ux, uy float64
			if dist > 0 {
				ux, uy = dx/dist, dy/dist
			} else {
				theta := rng.Float64() * 2 * math.Pi
				ux, uy = math.Cos(theta), math.Sin(theta)
			}

			magnitude := speed * (0.9 + 0.2*rng.Float64())
			side := (rng.Float64()*2 - 1) * 0.15 * speed

			game.Insert(&world.Thing{
				ID:          world.NewThingID(),
				X:           worldX - fragW/2,
				Y:           worldY - fragH/2,
				VX:          ux*magnitude - uy*side,
				VY:          uy*magnitude + ux*side,
				Width:       fragW,
				Height:      fragH,
				Z:           t.Z,
				Color:       color,
				PhysicsType: &ambient,
			})
		}
	}

	game.Destroy(t)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
