package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Ledger errors
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"

	// Session errors
	ErrAlreadyActive     ErrorCode = "ALREADY_ACTIVE"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Rate limiting
	ErrCooldownActive ErrorCode = "COOLDOWN_ACTIVE"

	// Caller errors
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// System errors
	ErrStorageFailure ErrorCode = "STORAGE_FAILURE"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
)

// GameError represents a domain error returned by the economy core.
// Needed/Balance are set for INSUFFICIENT_FUNDS, Remaining for COOLDOWN_ACTIVE.
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any

	Needed    int64
	Balance   int64
	Remaining time.Duration
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InsufficientFunds reports a rejected debit.
func InsufficientFunds(needed, balance int64) *GameError {
	return &GameError{
		Code:    ErrInsufficientFunds,
		Message: fmt.Sprintf("insufficient funds: need %d, have %d", needed, balance),
		Needed:  needed,
		Balance: balance,
	}
}

// AlreadyActive reports a blocked session creation.
func AlreadyActive(playerID string) *GameError {
	return NewGameError(ErrAlreadyActive, fmt.Sprintf("player %s already has an active session", playerID))
}

// NotFound reports an unknown session, entity or account.
func NotFound(what, id string) *GameError {
	return NewGameError(ErrNotFound, fmt.Sprintf("%s %s not found", what, id))
}

// InvalidTransition reports a phase or ownership mismatch.
func InvalidTransition(format string, args ...interface{}) *GameError {
	return NewGameError(ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// InvalidArgument reports a caller error such as a non-positive amount.
func InvalidArgument(format string, args ...interface{}) *GameError {
	return NewGameError(ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// CooldownActive reports a rate-limited action.
func CooldownActive(remaining time.Duration) *GameError {
	return &GameError{
		Code:      ErrCooldownActive,
		Message:   fmt.Sprintf("cooldown active for another %dms", remaining.Milliseconds()),
		Remaining: remaining,
	}
}

// StorageFailure wraps a durable read or write that did not complete.
func StorageFailure(op string, err error) *GameError {
	return WrapError(ErrStorageFailure, op, err)
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if target == nil {
		return false
	}
	return errors.As(err, target)
}

// CodeOf returns the error code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrInternalError
}

// UserMessage renders the invariant that blocked an action in player-facing words.
func UserMessage(err error) string {
	var gameErr *GameError
	if !As(err, &gameErr) {
		return "Something went wrong, try again in a moment."
	}

	switch gameErr.Code {
	case ErrInsufficientFunds:
		return fmt.Sprintf("You need %d but only have %d.", gameErr.Needed, gameErr.Balance)
	case ErrAlreadyActive:
		return "You already have an active game, finish it first."
	case ErrCooldownActive:
		secs := int64((gameErr.Remaining + time.Second - 1) / time.Second)
		return fmt.Sprintf("Slow down! Try again in %ds.", secs)
	case ErrNotFound:
		return "Nothing to act on: " + gameErr.Message + "."
	case ErrStorageFailure:
		return "The bank is not responding right now. Try again."
	default:
		return gameErr.Message
	}
}
