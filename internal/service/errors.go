// Package service holds the soundboard's core operations: the ordering of a
// user's buttons, the button lifecycle (create, permanent delete with
// history, restore, asset replacement, rename), categories, sessions and
// the supporting stats and admin queries. Every operation takes the
// authenticated user explicitly and returns errors from the taxonomy below.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/croabboard/internal/repository"
)

var (
	// ErrValidation reports missing or malformed input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound reports a referenced entity that does not exist (or is
	// not visible to the caller).
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique-constraint violation or an invalid
	// state transition.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized reports bad credentials or an inactive session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInternal reports a storage or I/O failure.
	ErrInternal = errors.New("internal error")
	// ErrPartialFailure is matched by a PartialFailureError.
	ErrPartialFailure = errors.New("reposition rejected")
)

// PartialFailureError is returned by Reposition when some entries of the
// batch reference buttons the user has no ordering entry for. No entry of
// the batch was applied. It matches ErrPartialFailure and ErrNotFound.
type PartialFailureError struct {
	Missing []uint64
}

func (e *PartialFailureError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("no ordering entry for button(s) %s", strings.Join(ids, ", "))
}

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func (e *PartialFailureError) Unwrap() error { return ErrNotFound }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// internal wraps a low-level failure; op names the step that failed.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

// classify maps repository errors onto the service taxonomy. what names
// the entity for NotFound/Conflict messages. Errors already classified
// pass through unchanged.
func classify(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("%s not found", what)
	case errors.Is(err, repository.ErrConflict):
		return conflictf("%s conflicts with existing data", what)
	}
	return internal(what, err)
}
