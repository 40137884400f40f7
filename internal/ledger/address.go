package ledger

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// Namespace seeds for deterministic ledger addressing. These are normative:
// any compatible implementation must derive identical addresses from them.
const (
	SeedVault    = "deanno"
	SeedConfig   = "init"
	SeedWorker   = "worker"
	SeedDemander = "demander"
)

// Kind discriminates the three ledger record layouts.
type Kind uint8

const (
	KindConfig Kind = iota + 1
	KindWorker
	KindDemander
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindWorker:
		return "worker"
	case KindDemander:
		return "demander"
	default:
		return "unknown"
	}
}

// Address is the 32-byte storage address of a ledger record:
// sha256(seed) for the configuration singleton, sha256(seed || identity)
// for per-identity ledgers.
type Address [32]byte

func derive(seed string, owner []byte) Address {
	h := sha256.New()
	h.Write([]byte(seed))
	h.Write(owner)
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

// ConfigAddress returns the address of the singleton configuration ledger.
func ConfigAddress() Address {
	return derive(SeedConfig, nil)
}

// WorkerAddress returns the worker ledger address for the given identity.
func WorkerAddress(owner uuid.UUID) Address {
	return derive(SeedWorker, owner[:])
}

// DemanderAddress returns the demander ledger address for the given identity.
func DemanderAddress(owner uuid.UUID) Address {
	return derive(SeedDemander, owner[:])
}

// Hex returns the lowercase hex form used in logs and storage keys.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}
