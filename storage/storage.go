// Package storage persists programs and authorizations in a prefixed
// key-value store. The following prefixes are used:
//   - 'pr/' for programs, keyed by program id
//   - 'po/' for the program deploy order, keyed by sequence index
//   - 'au/' for authorizations, keyed by content hash
//
// Programs are reloaded in deploy order, which keeps the cross-program
// call graph loadable: a program only calls programs deployed before it.
package storage

import (
	"errors"
	"sync"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	programPrefix      = []byte("pr/")
	programOrderPrefix = []byte("po/")
	authPrefix         = []byte("au/")
)

// ErrNotFound is returned when the requested artifact is not stored.
var ErrNotFound = errors.New("not found")

// Storage is the interface that wraps the basic methods to interact with
// the storage.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}
