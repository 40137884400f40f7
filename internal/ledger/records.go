package ledger

import "fmt"

// Record sizes in bytes. Records are fixed-width little-endian u64 fields;
// the layout is part of the storage contract.
const (
	ConfigRecordSize   = 16
	WorkerRecordSize   = 8
	DemanderRecordSize = 8
)

// ConfigLedger is the singleton protocol configuration: the currency-per-token
// price and the percent of each distribution credited to the worker's
// withdrawal allowance. Created exactly once, never mutated afterward.
type ConfigLedger struct {
	TokenPrice      uint64
	WithdrawPercent uint64
}

func (c ConfigLedger) Encode() []byte {
	buf := make([]byte, 0, ConfigRecordSize)
	buf = appendUint64LE(buf, c.TokenPrice)
	buf = appendUint64LE(buf, c.WithdrawPercent)
	return buf
}

func DecodeConfig(data []byte) (ConfigLedger, error) {
	if len(data) != ConfigRecordSize {
		return ConfigLedger{}, fmt.Errorf("config record: want %d bytes, got %d", ConfigRecordSize, len(data))
	}
	return ConfigLedger{
		TokenPrice:      uint64LE(data[0:8]),
		WithdrawPercent: uint64LE(data[8:16]),
	}, nil
}

// WorkerLedger holds a worker's remaining withdrawal allowance, in
// currency-equivalent units. Credited by distribution, debited by withdrawal.
type WorkerLedger struct {
	WithdrawLimit uint64
}

func (w WorkerLedger) Encode() []byte {
	return appendUint64LE(make([]byte, 0, WorkerRecordSize), w.WithdrawLimit)
}

func DecodeWorker(data []byte) (WorkerLedger, error) {
	if len(data) != WorkerRecordSize {
		return WorkerLedger{}, fmt.Errorf("worker record: want %d bytes, got %d", WorkerRecordSize, len(data))
	}
	return WorkerLedger{WithdrawLimit: uint64LE(data)}, nil
}

// DemanderLedger holds a demander's escrowed currency balance. Debited by
// distribution; funding happens outside this core.
type DemanderLedger struct {
	Balance uint64
}

func (d DemanderLedger) Encode() []byte {
	return appendUint64LE(make([]byte, 0, DemanderRecordSize), d.Balance)
}

func DecodeDemander(data []byte) (DemanderLedger, error) {
	if len(data) != DemanderRecordSize {
		return DemanderLedger{}, fmt.Errorf("demander record: want %d bytes, got %d", DemanderRecordSize, len(data))
	}
	return DemanderLedger{Balance: uint64LE(data)}, nil
}

func appendUint64LE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

func uint64LE(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
