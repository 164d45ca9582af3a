// Package gateway provides durable storage for the ledger's two collection
// blobs. A Gateway knows nothing about record shapes; it moves opaque bytes
// in and out of named slots, overwriting the whole slot on every save.
package gateway

// Slot names for the two persisted collections.
const (
	SlotCustomers = "customers"
	SlotHistory   = "history"
)

// Gateway is a key-value blob store with named slots.
type Gateway interface {
	// Load returns the blob stored in the slot. ok is false when the slot
	// has never been written; that is not an error.
	Load(slot string) (blob []byte, ok bool, err error)

	// Save overwrites the slot with the given blob.
	Save(slot string, blob []byte) error

	// Close releases any underlying resources.
	Close() error
}
