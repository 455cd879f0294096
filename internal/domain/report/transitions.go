package report

import (
	"fmt"

	"city_report_service/internal/apperr"
)

// transitionTable is the complete set of legal status moves and the capability
// each one requires. Anything absent here is rejected.
var transitionTable = map[Status]map[Status]Capability{
	StatusPendingApproval: {
		StatusAssigned: CapabilityApprove,
		StatusRejected: CapabilityReject,
	},
	StatusAssigned: {
		StatusInProgress: CapabilityChangeStatus,
		StatusSuspended:  CapabilityChangeStatus,
	},
	StatusInProgress: {
		StatusSuspended: CapabilityChangeStatus,
		StatusResolved:  CapabilityChangeStatus,
	},
	StatusSuspended: {
		StatusInProgress: CapabilityChangeStatus,
		StatusResolved:   CapabilityChangeStatus,
	},
}

// RequiredCapability returns the capability needed to move a report from one
// status to another, ErrTerminalState when the source status admits no exits,
// or ErrInvalidTransition for any other pair outside the table.
func RequiredCapability(from, to Status) (Capability, error) {
	if from.IsTerminal() {
		return "", fmt.Errorf("%s admits no transitions: %w", from, apperr.ErrTerminalState)
	}
	targets, ok := transitionTable[from]
	if !ok {
		return "", fmt.Errorf("unknown status %q: %w", from, apperr.ErrInvalidTransition)
	}
	capability, ok := targets[to]
	if !ok {
		return "", fmt.Errorf("%s -> %s: %w", from, to, apperr.ErrInvalidTransition)
	}
	return capability, nil
}
