package ledger

import "errors"

// Error kinds surfaced by ledger operations. Every operation failure wraps
// exactly one of these; callers match with errors.Is.
var (
	ErrAlreadyExists       = errors.New("ledger already exists")
	ErrNotFound            = errors.New("ledger not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOutOfWithdrawLimit  = errors.New("out of withdraw limit")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

// ErrorKind returns the stable wire name for an error's kind, for use in
// responses and metrics labels. Unrecognized errors report as "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrOutOfWithdrawLimit):
		return "out_of_withdraw_limit"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	default:
		return "internal"
	}
}
