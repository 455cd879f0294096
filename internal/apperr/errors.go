// Package apperr defines the business error taxonomy shared by all layers.
// Every operation returns either a success value or an error matching one of
// these sentinels via errors.Is; HTTP controllers map them to status codes.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a referenced report, user, category or
	// company does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrForbidden is returned when the actor lacks the capability required
	// for the requested action.
	ErrForbidden = errors.New("actor lacks required capability")

	// ErrInvalidTransition is returned for a status change not present in the
	// transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTerminalState is returned for any mutation attempt on a resolved or
	// rejected report.
	ErrTerminalState = errors.New("report is in a terminal state")

	// ErrMissingRejectionReason is returned when a rejection carries no reason.
	ErrMissingRejectionReason = errors.New("rejection reason is required")

	// ErrDelegationPrecondition is returned when delegate/revoke is attempted
	// outside the Assigned/InProgress states or by a non-owning technician.
	ErrDelegationPrecondition = errors.New("delegation precondition failed")

	// ErrEmptyContent is returned for a message post with no meaningful text.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrChannelNotAvailable is returned for posts or reads on a channel the
	// report's current state does not open.
	ErrChannelNotAvailable = errors.New("channel not available")

	// ErrConcurrentModification is returned when a simultaneous mutation of
	// the same report won the version check. Safe to retry with fresh state.
	ErrConcurrentModification = errors.New("report modified concurrently")

	// ErrUnavailable wraps infrastructure failures of the persistence layer.
	ErrUnavailable = errors.New("persistence unavailable")
)
