package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"danledger/internal/ledger"
)

// Config loads and decodes the configuration ledger.
func (e *Engine) Config(ctx context.Context) (ledger.ConfigLedger, error) {
	data, err := e.store.Load(ctx, ledger.ConfigAddress())
	if err != nil {
		return ledger.ConfigLedger{}, fmt.Errorf("query config: %w", err)
	}
	return ledger.DecodeConfig(data)
}

// WorkerLedger loads a worker's allowance record.
func (e *Engine) WorkerLedger(ctx context.Context, worker uuid.UUID) (ledger.WorkerLedger, error) {
	data, err := e.store.Load(ctx, ledger.WorkerAddress(worker))
	if err != nil {
		return ledger.WorkerLedger{}, fmt.Errorf("query worker %s: %w", worker, err)
	}
	return ledger.DecodeWorker(data)
}

// DemanderLedger loads a demander's escrow record.
func (e *Engine) DemanderLedger(ctx context.Context, demander uuid.UUID) (ledger.DemanderLedger, error) {
	data, err := e.store.Load(ctx, ledger.DemanderAddress(demander))
	if err != nil {
		return ledger.DemanderLedger{}, fmt.Errorf("query demander %s: %w", demander, err)
	}
	return ledger.DecodeDemander(data)
}
