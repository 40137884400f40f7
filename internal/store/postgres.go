package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"danledger/internal/ledger"
)

// PostgresStore persists ledger records in the ledgers table created by
// migrations/000001_ledgers.up.sql. Apply uses a single transaction with a
// multi-row upsert so a failed operation leaves no partial mutation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, addr ledger.Address, kind ledger.Kind, data []byte) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ledgers (address, kind, data) VALUES ($1, $2, $3)
		 ON CONFLICT (address) DO NOTHING`,
		addr[:], int16(kind), data,
	)
	if err != nil {
		return fmt.Errorf("create %s ledger at %s: %w", kind, addr, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create %s ledger at %s: %w", kind, addr, err)
	}
	if rows == 0 {
		return fmt.Errorf("create %s ledger at %s: %w", kind, addr, ledger.ErrAlreadyExists)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, addr ledger.Address) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM ledgers WHERE address = $1`, addr[:],
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("load ledger at %s: %w", addr, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger at %s: %w", addr, err)
	}
	return data, nil
}

func (s *PostgresStore) Apply(ctx context.Context, writes ...Write) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply: begin tx: %w", err)
	}

	// Multi-row upsert keyed by address; updated_at tracks the last mutation.
	query := `INSERT INTO ledgers (address, kind, data) VALUES `
	values := make([]string, 0, len(writes))
	args := make([]interface{}, 0, len(writes)*3)

	for i, w := range writes {
		base := i * 3
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		args = append(args, w.Addr[:], int16(w.Kind), w.Data)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (address) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("apply %d writes: %w", len(writes), err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}
	return nil
}
