package math_test

import (
	"errors"
	"math"
	"testing"

	"danledger/internal/ledger"
	danmath "danledger/internal/math"
)

func TestCheckedAdd(t *testing.T) {
	sum, err := danmath.CheckedAdd(2, 3)
	if err != nil || sum != 5 {
		t.Errorf("CheckedAdd(2, 3) = %d, %v", sum, err)
	}

	if _, err := danmath.CheckedAdd(math.MaxUint64, 1); !errors.Is(err, ledger.ErrOverflow) {
		t.Errorf("CheckedAdd(max, 1) err = %v, want ErrOverflow", err)
	}
	if _, err := danmath.CheckedAdd(math.MaxUint64, 0); err != nil {
		t.Errorf("CheckedAdd(max, 0) err = %v", err)
	}
}

func TestCheckedSub(t *testing.T) {
	diff, err := danmath.CheckedSub(5, 3)
	if err != nil || diff != 2 {
		t.Errorf("CheckedSub(5, 3) = %d, %v", diff, err)
	}

	if _, err := danmath.CheckedSub(3, 5); !errors.Is(err, ledger.ErrOverflow) {
		t.Errorf("CheckedSub(3, 5) err = %v, want ErrOverflow", err)
	}
	if v, err := danmath.CheckedSub(5, 5); err != nil || v != 0 {
		t.Errorf("CheckedSub(5, 5) = %d, %v", v, err)
	}
}

func TestCheckedMul(t *testing.T) {
	prod, err := danmath.CheckedMul(1<<32, 1<<31)
	if err != nil || prod != 1<<63 {
		t.Errorf("CheckedMul(2^32, 2^31) = %d, %v", prod, err)
	}

	if _, err := danmath.CheckedMul(1<<32, 1<<32); !errors.Is(err, ledger.ErrOverflow) {
		t.Errorf("CheckedMul(2^32, 2^32) err = %v, want ErrOverflow", err)
	}
	if v, err := danmath.CheckedMul(math.MaxUint64, 0); err != nil || v != 0 {
		t.Errorf("CheckedMul(max, 0) = %d, %v", v, err)
	}
}

func TestCheckedDiv(t *testing.T) {
	q, err := danmath.CheckedDiv(7, 2)
	if err != nil || q != 3 {
		t.Errorf("CheckedDiv(7, 2) = %d, %v (expect truncation)", q, err)
	}

	if _, err := danmath.CheckedDiv(1, 0); !errors.Is(err, ledger.ErrDivisionByZero) {
		t.Errorf("CheckedDiv(1, 0) err = %v, want ErrDivisionByZero", err)
	}
}

func TestPow10(t *testing.T) {
	p, err := danmath.Pow10(9)
	if err != nil || p != 1_000_000_000 {
		t.Errorf("Pow10(9) = %d, %v", p, err)
	}

	p, err = danmath.Pow10(19)
	if err != nil || p != 10_000_000_000_000_000_000 {
		t.Errorf("Pow10(19) = %d, %v", p, err)
	}

	if _, err := danmath.Pow10(20); !errors.Is(err, ledger.ErrOverflow) {
		t.Errorf("Pow10(20) err = %v, want ErrOverflow", err)
	}
}

func TestToBaseUnits(t *testing.T) {
	v, err := danmath.ToBaseUnits(500, 9)
	if err != nil || v != 500_000_000_000 {
		t.Errorf("ToBaseUnits(500, 9) = %d, %v", v, err)
	}

	// 2^63 tokens at 9 decimals overflows u64.
	if _, err := danmath.ToBaseUnits(1<<63, 9); !errors.Is(err, ledger.ErrOverflow) {
		t.Errorf("ToBaseUnits(2^63, 9) err = %v, want ErrOverflow", err)
	}

	if v, err := danmath.ToBaseUnits(42, 0); err != nil || v != 42 {
		t.Errorf("ToBaseUnits(42, 0) = %d, %v", v, err)
	}
}
