package auth

import (
	"fmt"

	"github.com/google/uuid"

	"danledger/internal/ledger"
)

// Signers is the set of identities that signed an operation request.
type Signers []uuid.UUID

// Has reports whether id is among the signers.
func (s Signers) Has(id uuid.UUID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Policy decides whether a caller may invoke an operation. Two policies exist
// across the system's evolution; both engines consume the interface and never
// hardcode either scheme. Initialize is always administrator-gated and is not
// part of the policy surface.
type Policy interface {
	// AuthorizeRegister gates worker/demander ledger creation for owner.
	AuthorizeRegister(signers Signers, owner uuid.UUID) error

	// AuthorizeDistribute gates moving escrow from demander to worker.
	AuthorizeDistribute(signers Signers, demander, worker uuid.UUID) error

	// AuthorizeWithdraw gates a worker redeeming tokens for currency.
	AuthorizeWithdraw(signers Signers, worker uuid.UUID) error
}

// DirectSignerPolicy requires each affected party to sign directly: the owner
// signs its own registration, both demander and worker sign a distribution,
// and the worker signs its withdrawal.
type DirectSignerPolicy struct{}

func (DirectSignerPolicy) AuthorizeRegister(signers Signers, owner uuid.UUID) error {
	if !signers.Has(owner) {
		return fmt.Errorf("register: owner %s did not sign: %w", owner, ledger.ErrUnauthorized)
	}
	return nil
}

func (DirectSignerPolicy) AuthorizeDistribute(signers Signers, demander, worker uuid.UUID) error {
	if !signers.Has(demander) {
		return fmt.Errorf("distribute: demander %s did not sign: %w", demander, ledger.ErrUnauthorized)
	}
	if !signers.Has(worker) {
		return fmt.Errorf("distribute: worker %s did not sign: %w", worker, ledger.ErrUnauthorized)
	}
	return nil
}

func (DirectSignerPolicy) AuthorizeWithdraw(signers Signers, worker uuid.UUID) error {
	if !signers.Has(worker) {
		return fmt.Errorf("withdraw: worker %s did not sign: %w", worker, ledger.ErrUnauthorized)
	}
	return nil
}

// CustodialAdminPolicy lets a single fixed administrator sign on behalf of all
// parties; worker and demander identities are plain references, not signers.
type CustodialAdminPolicy struct {
	Admin uuid.UUID
}

func (p CustodialAdminPolicy) authorize(op string, signers Signers) error {
	if !signers.Has(p.Admin) {
		return fmt.Errorf("%s: administrator did not sign: %w", op, ledger.ErrUnauthorized)
	}
	return nil
}

func (p CustodialAdminPolicy) AuthorizeRegister(signers Signers, owner uuid.UUID) error {
	return p.authorize("register", signers)
}

func (p CustodialAdminPolicy) AuthorizeDistribute(signers Signers, demander, worker uuid.UUID) error {
	return p.authorize("distribute", signers)
}

func (p CustodialAdminPolicy) AuthorizeWithdraw(signers Signers, worker uuid.UUID) error {
	return p.authorize("withdraw", signers)
}
