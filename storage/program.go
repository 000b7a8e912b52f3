package storage

import (
	"encoding/binary"
	"fmt"

	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/zvmlabs/zvm-sandbox/types"
	"github.com/zvmlabs/zvm-sandbox/vm"
)

// PutProgram stores a program in its binary form and appends it to the
// deploy order.
func (s *Storage) PutProgram(p *vm.Program) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	if _, err := s.getArtifact(programPrefix, []byte(p.ID)); err == nil {
		return fmt.Errorf("program %s is already stored", p.ID)
	}
	data, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	order, err := s.listArtifacts(programOrderPrefix)
	if err != nil {
		return err
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(len(order)))
	if err := s.setArtifact(programOrderPrefix, seq[:], []byte(p.ID)); err != nil {
		return err
	}
	return s.setArtifact(programPrefix, []byte(p.ID), data)
}

// Program retrieves a stored program by id. It returns ErrNotFound if the
// program is not stored.
func (s *Storage) Program(id types.ProgramID) (*vm.Program, error) {
	data, err := s.getArtifact(programPrefix, []byte(id))
	if err != nil {
		return nil, err
	}
	p := &vm.Program{}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode program %s: %w", id, err)
	}
	return p, nil
}

// ListPrograms returns the stored program ids in deploy order.
func (s *Storage) ListPrograms() ([]types.ProgramID, error) {
	pr := prefixeddb.NewPrefixedReader(s.db, programOrderPrefix)
	var ids []types.ProgramID
	if err := pr.Iterate(nil, func(_, v []byte) bool {
		ids = append(ids, types.ProgramID(v))
		return true
	}); err != nil {
		return nil, err
	}
	return ids, nil
}

// LoadProcess builds a process holding every stored program, loaded in
// deploy order.
func (s *Storage) LoadProcess() (*vm.Process, error) {
	ids, err := s.ListPrograms()
	if err != nil {
		return nil, err
	}
	process := vm.NewProcess()
	for _, id := range ids {
		p, err := s.Program(id)
		if err != nil {
			return nil, err
		}
		if err := process.AddProgram(p); err != nil {
			return nil, fmt.Errorf("load program %s: %w", id, err)
		}
	}
	return process, nil
}
