package main

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"thingforge/server/catalog"
	"thingforge/server/internal/sim"
	"thingforge/server/internal/world"
)

const writeWait = 10 * time.Second

// Hub bridges editor clients to one engine instance. All engine access is
// serialized through mu so editor dispatches and simulation ticks never
// interleave partially.
type Hub struct {
	mu          sync.Mutex
	engine      *sim.Engine
	keys        map[string]bool
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	onDirty     func()
	log         *logrus.Entry
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// wireMessage is the envelope editor clients send.
type wireMessage struct {
	Type   string          `json:"type"`
	Keys   map[string]bool `json:"keys,omitempty"`
	Action *wireAction     `json:"action,omitempty"`
}

// wireAction mirrors sim.Action with JSON field names.
type wireAction struct {
	Type      string             `json:"type"`
	Thing     *world.Thing       `json:"thing,omitempty"`
	ThingID   string             `json:"thingId,omitempty"`
	ThingIDs  []string           `json:"thingIds,omitempty"`
	Blueprint *world.Blueprint   `json:"blueprint,omitempty"`
	Name      string             `json:"name,omitempty"`
	Rename    *sim.RenamePayload `json:"rename,omitempty"`
	Color     string             `json:"color,omitempty"`
	Paused    bool               `json:"paused,omitempty"`
	Position  *world.Vec2        `json:"position,omitempty"`
	Size      *world.Size        `json:"size,omitempty"`
}

// patchesMessage carries the per-tick diff stream to editor clients.
type patchesMessage struct {
	Type    string      `json:"type"`
	Tick    uint64      `json:"tick"`
	Patches []sim.Patch `json:"patches"`
}

func newHub(engine *sim.Engine, onDirty func(), log *logrus.Entry) *Hub {
	if onDirty == nil {
		onDirty = func() {}
	}
	return &Hub{
		engine:      engine,
		keys:        make(map[string]bool),
		subscribers: make(map[uint64]*subscriber),
		onDirty:     onDirty,
		log:         log,
	}
}

// Subscribe registers an editor connection and returns its id.
func (h *Hub) Subscribe(conn *websocket.Conn) uint64 {
	id := h.nextID.Add(1)
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()
	return id
}

// Disconnect removes and closes an editor connection. Safe to call twice.
func (h *Hub) Disconnect(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// UpdateKeys replaces the held-key set sampled at the next tick.
func (h *Hub) UpdateKeys(keys map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = make(map[string]bool, len(keys))
	for name, down := range keys {
		if down {
			h.keys[name] = true
		}
	}
}

// Dispatch applies an editor action, marks the document dirty, and
// broadcasts the resulting patches immediately so editors see edits
// without waiting for the next tick.
func (h *Hub) Dispatch(action sim.Action) {
	h.mu.Lock()
	h.engine.Dispatch(action)
	patches := h.engine.DrainPatches()
	tick := h.engine.Tick()
	h.mu.Unlock()

	h.onDirty()
	h.broadcastPatches(tick, patches)
}

func (h *Hub) dispatchWire(wire *wireAction) {
	if wire == nil {
		return
	}
	h.Dispatch(sim.Action{
		Type:      sim.ActionType(wire.Type),
		Thing:     wire.Thing,
		ThingID:   wire.ThingID,
		ThingIDs:  wire.ThingIDs,
		Blueprint: wire.Blueprint,
		Name:      wire.Name,
		Rename:    wire.Rename,
		Color:     wire.Color,
		Paused:    wire.Paused,
		Position:  wire.Position,
		Size:      wire.Size,
	})
}

// advance runs one headless tick and returns its patches.
func (h *Hub) advance() (uint64, []sim.Patch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engine.Step(h.keys, nil)
	return h.engine.Tick(), h.engine.DrainPatches()
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}, tickRate int) {
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tick, patches := h.advance()
			h.broadcastPatches(tick, patches)
		}
	}
}

// broadcastPatches sends the diff stream to every subscriber. A failed
// write disconnects that subscriber.
func (h *Hub) broadcastPatches(tick uint64, patches []sim.Patch) {
	if len(patches) == 0 {
		return
	}
	data, err := json.Marshal(patchesMessage{Type: "patches", Tick: tick, Patches: patches})
	if err != nil {
		h.log.WithError(err).Error("failed to marshal patches message")
		return
	}

	h.mu.Lock()
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			h.log.WithError(err).WithField("subscriber", id).Warn("dropping editor connection")
			h.Disconnect(id)
		}
	}
}

// ReadLoop consumes messages from one editor connection until it closes.
func (h *Hub) ReadLoop(id uint64, conn *websocket.Conn) {
	defer h.Disconnect(id)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wireMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.WithError(err).WithField("subscriber", id).Warn("discarding malformed message")
			continue
		}
		switch msg.Type {
		case "keys":
			h.UpdateKeys(msg.Keys)
		case "dispatch":
			h.dispatchWire(msg.Action)
		default:
			h.log.WithField("type", msg.Type).WithField("subscriber", id).Warn("unknown message type")
		}
	}
}

// SnapshotFile converts the current state into a persistable game file.
func (h *Hub) SnapshotFile() *catalog.GameFile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return catalog.SnapshotState(h.engine.State())
}

// SnapshotJSON serializes the current state for the initial editor sync.
func (h *Hub) SnapshotJSON() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return json.Marshal(h.engine.State())
}
