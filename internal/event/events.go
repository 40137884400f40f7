package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType discriminator for outbound event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeConfigInitialized
	EventTypeLedgerRegistered
	EventTypeDistributionExecuted
	EventTypeWithdrawalExecuted
)

func (et EventType) String() string {
	switch et {
	case EventTypeConfigInitialized:
		return "ConfigInitialized"
	case EventTypeLedgerRegistered:
		return "LedgerRegistered"
	case EventTypeDistributionExecuted:
		return "DistributionExecuted"
	case EventTypeWithdrawalExecuted:
		return "WithdrawalExecuted"
	default:
		return "Unknown"
	}
}

// Wire returns the snake_case token used in outbound subjects.
func (et EventType) Wire() string {
	switch et {
	case EventTypeConfigInitialized:
		return "config_initialized"
	case EventTypeLedgerRegistered:
		return "ledger_registered"
	case EventTypeDistributionExecuted:
		return "distribution_executed"
	case EventTypeWithdrawalExecuted:
		return "withdrawal_executed"
	default:
		return "unknown"
	}
}

func (et EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(et.String())
}

// Envelope wraps every outbound event.
type Envelope struct {
	// Monotonic sequence assigned by the engine
	Sequence int64 `json:"sequence"`

	// Stable dedup key derived from the payload
	IdempotencyKey string `json:"idempotency_key"`

	EventType EventType `json:"event_type"`

	Timestamp time.Time `json:"timestamp"`

	// SHA-256 over the mutated ledger records AFTER this event
	StateHash [32]byte `json:"state_hash"`

	// Previous event's state hash (chain integrity)
	PrevHash [32]byte `json:"prev_hash"`

	Payload interface{} `json:"payload"`
}

// ConfigInitialized records creation of the configuration ledger and mint.
type ConfigInitialized struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	TokenPrice      uint64 `json:"token_price"`
	WithdrawPercent uint64 `json:"withdraw_percent"`
}

func (e ConfigInitialized) IdempotencyKey() string {
	return "initialize:config"
}

func (e ConfigInitialized) EventType() EventType { return EventTypeConfigInitialized }

// LedgerRegistered records creation of a worker or demander ledger.
type LedgerRegistered struct {
	Kind         string    `json:"kind"` // "worker" or "demander"
	Owner        uuid.UUID `json:"owner"`
	InitialValue uint64    `json:"initial_value"`
}

func (e LedgerRegistered) IdempotencyKey() string {
	return fmt.Sprintf("register:%s:%s", e.Kind, e.Owner)
}

func (e LedgerRegistered) EventType() EventType { return EventTypeLedgerRegistered }

// DistributionExecuted records a completed distribution: escrow debited,
// tokens minted, allowance credited.
type DistributionExecuted struct {
	Demander    uuid.UUID `json:"demander"`
	Worker      uuid.UUID `json:"worker"`
	Amount      uint64    `json:"amount"`       // currency units
	MintedBase  uint64    `json:"minted_base"`  // DAN base units minted
	NewBalance  uint64    `json:"new_balance"`  // demander escrow after
	NewLimit    uint64    `json:"new_limit"`    // worker allowance after
	LimitCredit uint64    `json:"limit_credit"` // allowance accrued by this event
}

func (e DistributionExecuted) IdempotencyKey() string {
	return fmt.Sprintf("distribute:%s:%s:%d:%d", e.Demander, e.Worker, e.Amount, e.NewBalance)
}

func (e DistributionExecuted) EventType() EventType { return EventTypeDistributionExecuted }

// WithdrawalExecuted records a completed withdrawal: tokens returned to the
// vault, currency paid out, allowance debited.
type WithdrawalExecuted struct {
	Worker           uuid.UUID `json:"worker"`
	TokenAmount      uint64    `json:"token_amount"`       // DAN, human units
	WithdrawAmount   uint64    `json:"withdraw_amount"`    // currency units paid
	TokensInBase     uint64    `json:"tokens_in_base"`     // DAN base units to vault
	CurrencyOutBase  uint64    `json:"currency_out_base"`  // currency base units to worker
	NewWithdrawLimit uint64    `json:"new_withdraw_limit"` // allowance after
}

func (e WithdrawalExecuted) IdempotencyKey() string {
	return fmt.Sprintf("withdraw:%s:%d:%d", e.Worker, e.TokenAmount, e.NewWithdrawLimit)
}

func (e WithdrawalExecuted) EventType() EventType { return EventTypeWithdrawalExecuted }

// Payload is the interface all outbound payloads implement.
type Payload interface {
	IdempotencyKey() string
	EventType() EventType
}
