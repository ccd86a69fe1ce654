// Package store implements the process-wide InscriptionStore singleton:
// the blessed/cursed counters, the next-sequence-number allocator, and
// the sequence_number → InscriptionID dynamic-field mapping (spec §3,
// §4.9). It is the only place sequence and inscription numbers are
// minted, so every write goes through its mutex-guarded Allocate.
package store

import (
	"encoding/binary"
	"sync"

	"github.com/rawblock/ord-engine/internal/ord/inscid"
	"github.com/rawblock/ord-engine/internal/ord/objectid"
)

// typeTag is the fixed type name used when deriving a child inscription
// object ID from the store singleton.
const typeTag = "Inscription"

// Store is the shared InscriptionStore singleton. Its counters and
// sequence-index map are writable only through Allocate/RecordSequence,
// mirroring the spec's "friend entry points" restriction (§5) — in this
// port that discipline is enforced by keeping the fields unexported
// rather than by a capability system.
type Store struct {
	mu sync.Mutex

	id objectid.ObjectID

	cursedCount  uint32
	blessedCount uint32
	nextSequence uint32

	seqIndex map[uint32]inscid.ID
}

// New creates a fresh store at genesis. The engine assumes genesis sits
// after block 824544 (spec §1), so no cursed inscription is ever minted
// by Allocate; cursedCount stays at zero for forward compatibility only.
func New() *Store {
	return &Store{
		id:       objectid.Derive(objectid.ObjectID{}, "InscriptionStore", []byte("genesis")),
		seqIndex: make(map[uint32]inscid.ID),
	}
}

// ID returns the store singleton's own object ID, the parent every
// inscription's ID is derived from.
func (s *Store) ID() objectid.ObjectID {
	return s.id
}

// Allocate assigns the next sequence number and inscription number for
// one newly built inscription. Because this engine never mints a
// cursed inscription, inscriptionNumber and sequenceNumber always
// advance together (spec §3 invariant: inscription_number ==
// sequence_number here).
func (s *Store) Allocate() (sequenceNumber, inscriptionNumber uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sequenceNumber = s.nextSequence
	s.nextSequence++
	inscriptionNumber = s.blessedCount
	s.blessedCount++
	return sequenceNumber, inscriptionNumber
}

// RecordSequence records the sequence_number → InscriptionID mapping
// for a newly created inscription (spec §4.9's create_obj side effect).
func (s *Store) RecordSequence(seq uint32, id inscid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqIndex[seq] = id
}

// LookupSequence resolves a previously recorded sequence number back to
// its InscriptionID.
func (s *Store) LookupSequence(seq uint32) (inscid.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.seqIndex[seq]
	return id, ok
}

// NextSequenceNumber reports the next sequence number that will be
// assigned — equivalently, the count of all inscriptions ever created
// (spec §8 invariant 1).
func (s *Store) NextSequenceNumber() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSequence
}

// BlessedCount reports how many blessed inscriptions have been minted.
func (s *Store) BlessedCount() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blessedCount
}

// CursedCount reports how many cursed inscriptions have been minted.
// Always zero in this engine's post-jubilee era (spec §9).
func (s *Store) CursedCount() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursedCount
}

// DeriveInscriptionID computes the deterministic object ID for an
// inscription created with the given InscriptionID (spec §4.9):
// object_id(parent = InscriptionStore_id, child_key = iid).
func (s *Store) DeriveInscriptionID(iid inscid.ID) objectid.ObjectID {
	key := make([]byte, 36)
	copy(key[:32], iid.Txid[:])
	binary.BigEndian.PutUint32(key[32:], iid.Index)
	return objectid.Derive(s.id, typeTag, key)
}
