// Package store persists the active session state as a JSON snapshot.
package store

// SnapshotStore is the durability boundary for the session-state record.
// The engine treats the record as opaque JSON; one row per key.
type SnapshotStore interface {
	// SaveSnapshot upserts the snapshot for a key.
	SaveSnapshot(key string, stateJSON []byte) error

	// LoadSnapshot returns the snapshot for a key. ok is false when no
	// snapshot exists, which is not an error.
	LoadSnapshot(key string) (data []byte, ok bool, err error)

	// DeleteSnapshot removes the snapshot for a key.
	DeleteSnapshot(key string) error

	// Close releases the underlying database handle.
	Close() error
}
