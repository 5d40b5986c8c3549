package sim

import "thingforge/server/internal/world"

// ActionType enumerates the dispatchable state mutations. The set is
// open-ended across editor versions; the store ignores types it does not
// recognize.
type ActionType string

const (
	ActionAddThing            ActionType = "addThing"
	ActionRemoveThing         ActionType = "removeThing"
	ActionUpdateThing         ActionType = "updateThing"
	ActionAddBlueprint        ActionType = "addBlueprint"
	ActionUpdateBlueprint     ActionType = "updateBlueprint"
	ActionRemoveBlueprint     ActionType = "removeBlueprint"
	ActionRenameBlueprint     ActionType = "renameBlueprint"
	ActionSetSelectedThingID  ActionType = "setSelectedThingId"
	ActionSetSelectedThingIDs ActionType = "setSelectedThingIds"
	ActionSetBackgroundColor  ActionType = "setBackgroundColor"
	ActionSetPaused           ActionType = "setPaused"
	ActionSetCameraPosition   ActionType = "setCameraPosition"
	ActionSetScreenSize       ActionType = "setScreenSize"
)

// Action carries one dispatchable mutation. Only the payload fields
// matching Type are read.
type Action struct {
	Type      ActionType
	Thing     *world.Thing
	ThingID   string
	ThingIDs  []string
	Blueprint *world.Blueprint
	Name      string
	Rename    *RenamePayload
	Color     string
	Paused    bool
	Position  *world.Vec2
	Size      *world.Size
}

// RenamePayload re-keys a blueprint. Things referencing the old name keep
// it and degrade to the safe default until re-pointed; the weak reference
// is deliberate.
type RenamePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}
