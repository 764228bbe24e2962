package session

import "errors"

var (
	// ErrInvalidMinigame is returned for a minigame id missing from the catalog
	ErrInvalidMinigame = errors.New("invalid minigame")
	// ErrSessionNotFound is returned when start was never called for the pair
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnsupportedOperation is returned when decrementing tries on a minigame without a tries budget
	ErrUnsupportedOperation = errors.New("minigame has no tries budget")
	// ErrNoTriesLeft is returned when the tries budget is exhausted
	ErrNoTriesLeft = errors.New("no tries left")
	// ErrNotCompleted is returned when a reward is claimed before completion
	ErrNotCompleted = errors.New("minigame not completed yet")
	// ErrSessionCompleted is returned when a gameplay mutation targets a frozen session
	ErrSessionCompleted = errors.New("session already completed")
)

// Reason returns the stable taxonomy name of a domain error, or "" for
// anything else (persistence and transient failures).
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMinigame):
		return "InvalidMinigame"
	case errors.Is(err, ErrSessionNotFound):
		return "SessionNotFound"
	case errors.Is(err, ErrUnsupportedOperation):
		return "UnsupportedOperation"
	case errors.Is(err, ErrNoTriesLeft):
		return "NoTriesLeft"
	case errors.Is(err, ErrNotCompleted):
		return "NotCompleted"
	case errors.Is(err, ErrSessionCompleted):
		return "SessionCompleted"
	default:
		return ""
	}
}
