package engine

import "errors"

// Sentinel errors classifying why a flow stopped. Callers match with
// errors.Is; the wrapping message carries the operator-facing detail.
var (
	// ErrPreflight covers unmet preconditions: missing terraform binary,
	// missing or unreadable inventory record.
	ErrPreflight = errors.New("preflight failed")

	// ErrAuth covers failed AWS credential resolution.
	ErrAuth = errors.New("authentication failed")

	// ErrLockConflict is returned when an outstanding state lock blocks the
	// flow and was not (or could not be) cleared.
	ErrLockConflict = errors.New("state lock conflict")

	// ErrConfirmationDeclined is returned when the operator's input did not
	// match the required confirmation literal. Nothing was modified.
	ErrConfirmationDeclined = errors.New("confirmation declined")
)
