package sim

// PatchKind identifies the type of diff entry recorded by the store.
type PatchKind string

const (
	// PatchThingAdded inserts a Thing.
	PatchThingAdded PatchKind = "thing_added"
	// PatchThingRemoved drops a Thing.
	PatchThingRemoved PatchKind = "thing_removed"
	// PatchThingUpdated replaces a Thing's editable fields.
	PatchThingUpdated PatchKind = "thing_updated"
	// PatchBlueprintAdded inserts or replaces a blueprint record.
	PatchBlueprintAdded PatchKind = "blueprint_added"
	// PatchBlueprintUpdated replaces an existing blueprint record.
	PatchBlueprintUpdated PatchKind = "blueprint_updated"
	// PatchBlueprintRemoved drops a blueprint record.
	PatchBlueprintRemoved PatchKind = "blueprint_removed"
	// PatchBlueprintRenamed re-keys a blueprint record.
	PatchBlueprintRenamed PatchKind = "blueprint_renamed"
	// PatchSelection updates the single or multi selection.
	PatchSelection PatchKind = "selection"
	// PatchBackgroundColor updates the canvas clear color.
	PatchBackgroundColor PatchKind = "background_color"
	// PatchPaused toggles the pause flag.
	PatchPaused PatchKind = "paused"
	// PatchCamera moves the camera.
	PatchCamera PatchKind = "camera"
	// PatchScreen resizes the viewport.
	PatchScreen PatchKind = "screen"
)

// Patch is one diff entry, broadcast to editor clients and used to route
// path-scoped subscriber notifications.
type Patch struct {
	Kind     PatchKind `json:"kind"`
	EntityID string    `json:"entityId,omitempty"`
	Payload  any       `json:"payload,omitempty"`
}

// RenamedPayload carries both keys of a blueprint rename.
type RenamedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Path maps a patch onto the state path it touched, for subscriber routing.
func (p Patch) Path() []string {
	switch p.Kind {
	case PatchThingAdded, PatchThingRemoved, PatchThingUpdated:
		if p.EntityID != "" {
			return []string{"things", p.EntityID}
		}
		return []string{"things"}
	case PatchBlueprintAdded, PatchBlueprintUpdated, PatchBlueprintRemoved, PatchBlueprintRenamed:
		if p.EntityID != "" {
			return []string{"blueprints", p.EntityID}
		}
		return []string{"blueprints"}
	case PatchSelection:
		return []string{"selection"}
	case PatchBackgroundColor:
		return []string{"backgroundColor"}
	case PatchPaused:
		return []string{"paused"}
	case PatchCamera:
		return []string{"camera"}
	case PatchScreen:
		return []string{"screen"}
	default:
		return nil
	}
}

// pathsIntersect reports whether one path is a prefix of the other, so a
// subscriber watching ["things"] sees ["things", id] changes and vice
// versa.
func pathsIntersect(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
