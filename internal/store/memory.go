package store

import (
	"context"
	"fmt"

	"danledger/internal/ledger"
)

// MemoryStore is a map-backed Store for unit tests and embedded mode.
// Not safe for concurrent use; operations are serialized by the caller.
type MemoryStore struct {
	records map[ledger.Address]memoryRecord
}

type memoryRecord struct {
	kind ledger.Kind
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[ledger.Address]memoryRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, addr ledger.Address, kind ledger.Kind, data []byte) error {
	if _, exists := s.records[addr]; exists {
		return fmt.Errorf("create %s ledger at %s: %w", kind, addr, ledger.ErrAlreadyExists)
	}
	s.records[addr] = memoryRecord{kind: kind, data: cloneBytes(data)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, addr ledger.Address) ([]byte, error) {
	rec, exists := s.records[addr]
	if !exists {
		return nil, fmt.Errorf("load ledger at %s: %w", addr, ledger.ErrNotFound)
	}
	return cloneBytes(rec.data), nil
}

func (s *MemoryStore) Apply(ctx context.Context, writes ...Write) error {
	// Validate every target before mutating anything so a bad write set
	// leaves the store untouched.
	for _, w := range writes {
		if _, exists := s.records[w.Addr]; !exists {
			return fmt.Errorf("apply to %s: %w", w.Addr, ledger.ErrNotFound)
		}
	}
	for _, w := range writes {
		s.records[w.Addr] = memoryRecord{kind: w.Kind, data: cloneBytes(w.Data)}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
