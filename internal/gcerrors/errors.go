// Package gcerrors defines the error kinds shared across the core, mirroring
// spec.md §7 (Error Handling Design). Nothing here panics; every constructor
// returns a plain error value intended to cross a single package boundary.
package gcerrors

import (
	"errors"
	"fmt"
)

// ErrNotFound names the not-found error kind of spec.md §7. The Game Store
// does not return it: LoadGame reports a missing game as a nil record with
// a nil error.
var ErrNotFound = errors.New("gcerrors: not found")

// ErrNotPending is returned by Game Store operations that are only valid on
// PENDING records (spec.md §4.1 player-slot operations).
var ErrNotPending = errors.New("gcerrors: game is not pending")

// ErrSlotOccupied is returned when adding a player to an already-filled slot.
var ErrSlotOccupied = errors.New("gcerrors: slot already occupied")

// ErrGameFull is returned when every slot in a pending game is already filled.
var ErrGameFull = errors.New("gcerrors: no open slots")

// VersionConflictError is returned by a save whose expected version token
// did not match the stored one (spec.md §4.1 optimistic locking).
type VersionConflictError struct {
	GameID        string
	ActualVersion int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("gcerrors: version conflict on game %s (actual=%d)", e.GameID, e.ActualVersion)
}

// AsVersionConflict reports whether err is (or wraps) a VersionConflictError
// and returns it.
func AsVersionConflict(err error) (*VersionConflictError, bool) {
	var vc *VersionConflictError
	if errors.As(err, &vc) {
		return vc, true
	}
	return nil, false
}

// RejectionError is a non-exceptional failure of a player-facing operation
// (spec.md §4.1: "failures return a rejection, not an exception").
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return "gcerrors: rejected: " + e.Reason }

func Reject(reason string) error { return &RejectionError{Reason: reason} }
