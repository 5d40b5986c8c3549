package world

// GameState is the aggregate root of the running simulation. Thing order is
// significant: it drives script execution order and z-less draw order.
type GameState struct {
	Things           []*Thing             `json:"things"`
	Blueprints       map[string]Blueprint `json:"blueprints"`
	Camera           Vec2                 `json:"camera"`
	Screen           Size                 `json:"screen"`
	BackgroundColor  string               `json:"backgroundColor,omitempty"`
	SelectedThingID  string               `json:"selectedThingId,omitempty"`
	SelectedThingIDs []string             `json:"selectedThingIds,omitempty"`
	Paused           bool                 `json:"paused"`
	Keys             map[string]bool      `json:"-"`
}

// NewGameState returns an empty state with allocated containers.
func NewGameState() *GameState {
	return &GameState{
		Things:     make([]*Thing, 0),
		Blueprints: make(map[string]Blueprint),
		Screen:     Size{Width: 800, Height: 600},
		Keys:       make(map[string]bool),
	}
}

// Blueprint resolves a blueprint by name.
func (s *GameState) Blueprint(name string) (Blueprint, bool) {
	bp, ok := s.Blueprints[name]
	return bp, ok
}

// BlueprintFor resolves a Thing's blueprint, degrading to the safe default
// when the weak reference dangles. A lookup miss never fails.
func (s *GameState) BlueprintFor(t *Thing) Blueprint {
	if bp, ok := s.Blueprints[t.BlueprintName]; ok {
		return bp
	}
	return DefaultBlueprint(t.BlueprintName)
}

// ThingByID returns the Thing with the given id, or nil.
func (s *GameState) ThingByID(id string) *Thing {
	for _, t := range s.Things {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// EffectivePhysics returns the Thing's physics class: its own override when
// set, otherwise its blueprint's.
func (s *GameState) EffectivePhysics(t *Thing) PhysicsType {
	if t.PhysicsType != nil {
		return *t.PhysicsType
	}
	return s.BlueprintFor(t).PhysicsType
}

// StaticObstacles collects the bounding boxes of every static Thing.
func (s *GameState) StaticObstacles() []Rect {
	rects := make([]Rect, 0)
	for _, t := range s.Things {
		if s.EffectivePhysics(t) == PhysicsStatic {
			rects = append(rects, t.Rect())
		}
	}
	return rects
}

// KeyDown reports the snapshot captured at the start of the current tick.
func (s *GameState) KeyDown(name string) bool {
	return s.Keys[name]
}

// ViewRect is the visible camera/screen rectangle. The camera position is
// the viewport's top-left corner.
func (s *GameState) ViewRect() Rect {
	return Rect{X: s.Camera.X, Y: s.Camera.Y, Width: s.Screen.Width, Height: s.Screen.Height}
}

// Bounds returns the bounding box of all Things; ok is false for an empty
// scene.
func (s *GameState) Bounds() (Rect, bool) {
	if len(s.Things) == 0 {
		return Rect{}, false
	}
	first := s.Things[0].Rect()
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, t := range s.Things[1:] {
		r := t.Rect()
		if r.X < minX {
			minX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.X+r.Width > maxX {
			maxX = r.X + r.Width
		}
		if r.Y+r.Height > maxY {
			maxY = r.Y + r.Height
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
