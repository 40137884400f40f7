package store

import (
	"context"

	"danledger/internal/ledger"
)

// Write is a staged record write: the full new value of one ledger record.
type Write struct {
	Addr ledger.Address
	Kind ledger.Kind
	Data []byte
}

// Store is durable, uniquely-addressed storage for ledger records. The core
// never enumerates ledgers, so no listing is offered. Apply persists a set of
// writes all-or-nothing; the hosting platform guarantees exclusive access to
// the touched records for the duration of an operation.
type Store interface {
	// Create persists a new record, failing with ledger.ErrAlreadyExists if
	// the address is already occupied.
	Create(ctx context.Context, addr ledger.Address, kind ledger.Kind, data []byte) error

	// Load reads a record, failing with ledger.ErrNotFound if absent.
	Load(ctx context.Context, addr ledger.Address) ([]byte, error)

	// Apply persists staged writes to existing records in place,
	// all-or-nothing.
	Apply(ctx context.Context, writes ...Write) error
}
