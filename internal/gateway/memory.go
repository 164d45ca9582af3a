package gateway

import "errors"

// ErrSaveFailed is returned by a MemoryGateway with fail-injection enabled.
var ErrSaveFailed = errors.New("save failed")

// MemoryGateway is a map-backed Gateway for tests. FailSaves makes every
// Save return ErrSaveFailed without touching the stored blobs, which is how
// the persistence-failure path is exercised.
type MemoryGateway struct {
	slots     map[string][]byte
	FailSaves bool
	SaveCalls int
}

// NewMemoryGateway returns an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{slots: make(map[string][]byte)}
}

// Load returns the blob stored under the slot, if any.
func (g *MemoryGateway) Load(slot string) ([]byte, bool, error) {
	blob, ok := g.slots[slot]
	return blob, ok, nil
}

// Save stores a copy of the blob under the slot.
func (g *MemoryGateway) Save(slot string, blob []byte) error {
	g.SaveCalls++
	if g.FailSaves {
		return ErrSaveFailed
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	g.slots[slot] = cp
	return nil
}

// Close is a no-op for the memory gateway.
func (g *MemoryGateway) Close() error { return nil }

// Put seeds a slot directly, bypassing Save accounting. Test helper.
func (g *MemoryGateway) Put(slot string, blob []byte) {
	g.slots[slot] = blob
}
