package world

// AxisResolver customizes the blocked-axis velocity when two dynamic Things
// collide. The blueprint's weight and bounce are the intended inputs; the
// baseline rule is plain cancellation. Resolution against a static Thing
// always zeroes the blocked component and is not customizable.
type AxisResolver func(moving, blocking *Thing, velocity float64) float64

// CancelAxis is the baseline resolver: the blocked component is zeroed.
func CancelAxis(_, _ *Thing, _ float64) float64 {
	return 0
}

// MoveThing integrates one dynamic Thing's proposed velocity, one axis at a
// time. After each axis displacement the Thing is tested for AABB overlap
// against every non-ambient other; on overlap the displacement is reverted
// and that axis's velocity component resolved. Callers are responsible for
// only passing Things whose effective physics is dynamic.
func MoveThing(t *Thing, proposed Vec2, state *GameState, resolve AxisResolver) {
	if resolve == nil {
		resolve = CancelAxis
	}
	t.VX = proposed.X
	t.VY = proposed.Y

	if t.VX != 0 {
		oldX := t.X
		t.X += t.VX
		if blocker := firstBlocker(t, state); blocker != nil {
			t.X = oldX
			if state.EffectivePhysics(blocker) == PhysicsStatic {
				t.VX = 0
			} else {
				t.VX = resolve(t, blocker, t.VX)
			}
		}
	}

	if t.VY != 0 {
		oldY := t.Y
		t.Y += t.VY
		if blocker := firstBlocker(t, state); blocker != nil {
			t.Y = oldY
			if state.EffectivePhysics(blocker) == PhysicsStatic {
				t.VY = 0
			} else {
				t.VY = resolve(t, blocker, t.VY)
			}
		}
	}
}

// firstBlocker returns the first non-ambient Thing overlapping t, or nil.
func firstBlocker(t *Thing, state *GameState) *Thing {
	rect := t.Rect()
	for _, other := range state.Things {
		if other == t || other.ID == t.ID {
			continue
		}
		if state.EffectivePhysics(other) == PhysicsAmbient {
			continue
		}
		if RectsOverlap(rect, other.Rect()) {
			return other
		}
	}
	return nil
}

// OverlapPairs returns every strict pairwise AABB overlap among non-ambient
// Things, in list order.
func OverlapPairs(state *GameState) [][2]*Thing {
	solid := make([]*Thing, 0, len(state.Things))
	for _, t := range state.Things {
		if state.EffectivePhysics(t) != PhysicsAmbient {
			solid = append(solid, t)
		}
	}

	pairs := make([][2]*Thing, 0)
	for i := 0; i < len(solid); i++ {
		for j := i + 1; j < len(solid); j++ {
			if RectsOverlap(solid[i].Rect(), solid[j].Rect()) {
				pairs = append(pairs, [2]*Thing{solid[i], solid[j]})
			}
		}
	}
	return pairs
}
