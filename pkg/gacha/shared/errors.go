package shared

import (
	"errors"
	"fmt"
)

// Error taxonomy of the engine. Every operation returns one of these (possibly
// wrapped) or a store error.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotOwned         = errors.New("not owned")
	ErrAlreadyOwned     = errors.New("already owned")
	ErrRateLimited      = errors.New("rate limited")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrDuplicate        = fmt.Errorf("%w: duplicate", ErrCapacityExceeded)
	ErrAlreadyInList    = errors.New("already in list")
	ErrTimeout          = errors.New("timed out")
	ErrCancelled        = fmt.Errorf("%w: cancelled", ErrTimeout)
	ErrTargetBusy       = errors.New("target busy")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrAmbiguous        = fmt.Errorf("%w: several personalities match, give the group", ErrInvalidArgument)
	ErrContended        = errors.New("too many concurrent updates")
)

// RateLimitedError carries the wait before the next allowed action
type RateLimitedError struct {
	Action  string // "roll" or "claim"
	Minutes int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s rate limited: wait %d minute(s)", e.Action, e.Minutes)
}

// Is makes errors.Is(err, ErrRateLimited) match
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// NotFoundf wraps ErrNotFound with the missing entity
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// UserMessage converts an engine error to the status shown to users.
// The second result is false for errors that are not part of the taxonomy
// (store failures); callers log those.
func UserMessage(err error) (string, bool) {
	var limited *RateLimitedError
	switch {
	case err == nil:
		return "Done.", true
	case errors.As(err, &limited):
		return fmt.Sprintf("You have to wait %d minute(s) before you can %s again.", limited.Minutes, limited.Action), true
	case errors.Is(err, ErrAmbiguous):
		return "Several personalities have this name, please give the group.", true
	case errors.Is(err, ErrNotFound):
		return "Nothing matches that name.", true
	case errors.Is(err, ErrNotOwned):
		return "You don't own this personality.", true
	case errors.Is(err, ErrAlreadyOwned):
		return "This personality is already owned.", true
	case errors.Is(err, ErrDuplicate):
		return "It is already there.", true
	case errors.Is(err, ErrCapacityExceeded):
		return "Your list is full.", true
	case errors.Is(err, ErrAlreadyInList):
		return "This personality is already in your list.", true
	case errors.Is(err, ErrTimeout):
		return "Cancelled.", true
	case errors.Is(err, ErrTargetBusy):
		return "This member is already busy with another trade.", true
	case errors.Is(err, ErrInvalidArgument):
		return "Invalid request.", true
	case errors.Is(err, ErrContended):
		return "Too many requests at once, try again.", true
	default:
		return "Something went wrong, please try again later.", false
	}
}
