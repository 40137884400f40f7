package math

import (
	"fmt"
	"math/bits"

	"danledger/internal/ledger"
)

// Checked u64 arithmetic for ledger fields. Saturating operations are banned
// here: the engines' preconditions make legitimate underflow impossible, so
// any wrap is a logic error that must fail loudly.

// CheckedAdd returns a + b, failing on overflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("add %d + %d: %w", a, b, ledger.ErrOverflow)
	}
	return sum, nil
}

// CheckedSub returns a - b, failing on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, fmt.Errorf("sub %d - %d: %w", a, b, ledger.ErrOverflow)
	}
	return diff, nil
}

// CheckedMul returns a * b, failing on overflow.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("mul %d * %d: %w", a, b, ledger.ErrOverflow)
	}
	return lo, nil
}

// CheckedDiv returns a / b (truncating), failing explicitly on b == 0 so a
// corrupted divisor surfaces as a structured error rather than a runtime fault.
func CheckedDiv(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, fmt.Errorf("div %d / 0: %w", a, ledger.ErrDivisionByZero)
	}
	return a / b, nil
}

// Pow10 returns 10^decimals. 10^19 < 2^64 < 10^20, so decimals above 19
// cannot be represented.
func Pow10(decimals uint8) (uint64, error) {
	if decimals > 19 {
		return 0, fmt.Errorf("pow10 with %d decimals: %w", decimals, ledger.ErrOverflow)
	}
	p := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		p *= 10
	}
	return p, nil
}

// ToBaseUnits scales a human-facing integer amount into base units
// (amount * 10^decimals) with overflow checking. All decimal scaling routes
// through here; never chain an unchecked multiply into the scaled value.
func ToBaseUnits(amount uint64, decimals uint8) (uint64, error) {
	scale, err := Pow10(decimals)
	if err != nil {
		return 0, err
	}
	return CheckedMul(amount, scale)
}
