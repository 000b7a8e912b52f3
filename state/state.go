// Package state keeps the commitments of proven transitions in a Merkle
// tree, so a verifier can check that a transition was accepted without
// replaying it.
package state

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

const (
	// MaxLevels bounds the tree depth, and with it the number of
	// transitions one state can hold.
	MaxLevels = 64
	// MaxKeyLen is ceil(MaxLevels/8)
	MaxKeyLen = (MaxLevels + 7) / 8
)

// hashFunc is the hash function used in the state tree.
var hashFunc = arbo.HashFunctionPoseidon

// State is an append-only log of transition commitments. Each commitment
// is stored under its sequence index, and the tree root commits to the
// whole accepted history.
type State struct {
	mu    sync.Mutex
	db    db.Database
	tree  *arbo.Tree
	count uint64
}

// New creates or opens a State stored in the passed database. The
// namespace is used as a prefix for the keys in the database.
func New(database db.Database, namespace []byte) (*State, error) {
	pdb := prefixeddb.NewPrefixedDatabase(database, namespace)
	tree, err := arbo.NewTree(arbo.Config{
		Database: pdb, MaxLevels: MaxLevels,
		HashFunction: hashFunc,
	})
	if err != nil {
		return nil, err
	}
	nLeafs, err := tree.GetNLeafs()
	if err != nil {
		return nil, err
	}
	return &State{
		db:    pdb,
		tree:  tree,
		count: uint64(nLeafs),
	}, nil
}

// AddTransition appends a transition commitment under the next sequence
// index.
func (o *State) AddTransition(tcm *big.Int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := arbo.BigIntToBytes(MaxKeyLen, new(big.Int).SetUint64(o.count))
	value := arbo.BigIntToBytes(32, tcm)
	if err := o.tree.Add(key, value); err != nil {
		return fmt.Errorf("failed to add transition %d: %w", o.count, err)
	}
	o.count++
	return nil
}

// Transition returns the commitment stored under a sequence index.
func (o *State) Transition(index uint64) (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if index >= o.count {
		return nil, fmt.Errorf("transition %d does not exist, state holds %d", index, o.count)
	}
	_, value, err := o.tree.Get(arbo.BigIntToBytes(MaxKeyLen, new(big.Int).SetUint64(index)))
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(value), nil
}

// Count returns the number of transitions in the state.
func (o *State) Count() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// Root returns the state tree root.
func (o *State) Root() ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tree.Root()
}

// RootAsBigInt returns the state tree root as a field element.
func (o *State) RootAsBigInt() (*big.Int, error) {
	root, err := o.Root()
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(root), nil
}

// Close the database, no more operations can be done after this.
func (o *State) Close() error {
	return o.db.Close()
}
