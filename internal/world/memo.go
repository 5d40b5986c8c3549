package world

import "strings"

// MemoStore holds per-Thing behavior memos (roam targets, cooldown marks)
// for a single engine instance. Keys follow "<actionKey>/<thingID>" so a
// destroyed Thing's memos can be dropped in one pass. Keeping the store on
// the engine rather than at package scope preserves multi-instance
// isolation and deterministic tests.
type MemoStore struct {
	values map[string]any
}

// NewMemoStore returns an empty store.
func NewMemoStore() *MemoStore {
	return &MemoStore{values: make(map[string]any)}
}

// MemoKey builds the conventional key for one action's per-Thing memo.
func MemoKey(actionKey, thingID string) string {
	return actionKey + "/" + thingID
}

// Lookup returns the memo stored under key.
func (m *MemoStore) Lookup(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Store saves a memo under key, replacing any previous value.
func (m *MemoStore) Store(key string, value any) {
	m.values[key] = value
}

// Delete removes one memo.
func (m *MemoStore) Delete(key string) {
	delete(m.values, key)
}

// DropThing removes every memo recorded for the given Thing.
func (m *MemoStore) DropThing(thingID string) {
	suffix := "/" + thingID
	for key := range m.values {
		if strings.HasSuffix(key, suffix) {
			delete(m.values, key)
		}
	}
}
