// Package access computes the capability set an actor holds on a report.
// Resolution is a pure function of (actor id, active role, report); it never
// merges the capabilities of a user's other roles.
package access

import (
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"
)

// CapabilitySet is the set of workflow actions granted for one call.
type CapabilitySet map[report.Capability]struct{}

func (s CapabilitySet) Has(c report.Capability) bool {
	_, ok := s[c]
	return ok
}

func (s CapabilitySet) add(caps ...report.Capability) {
	for _, c := range caps {
		s[c] = struct{}{}
	}
}

// Resolve returns the capabilities the actor holds on the report under the
// declared active role. An empty set means read-only at most.
func Resolve(actorID int64, role user.Role, r *report.Report) CapabilitySet {
	caps := CapabilitySet{}

	switch role {
	case user.RoleCitizen:
		// Only the non-anonymous reporter may converse, and only once the
		// report is being worked or has been resolved.
		if r.ReporterID == actorID && !r.Anonymous {
			switch r.Status {
			case report.StatusAssigned, report.StatusInProgress, report.StatusResolved:
				caps.add(report.CapabilityPostCitizenMessage)
			}
		}

	case user.RoleMunicipalOfficer:
		if r.Status == report.StatusPendingApproval {
			caps.add(report.CapabilityApprove, report.CapabilityReject)
		}

	case user.RoleTechnician:
		if r.IsAssignee(actorID) {
			caps.add(report.CapabilityChangeStatus, report.CapabilityDelegate, report.CapabilityPostCitizenMessage)
			if r.HasDelegation() {
				caps.add(report.CapabilityPostInternalMessage)
			}
		}

	case user.RoleExternalMaintainer:
		if r.IsExternalMaintainer(actorID) {
			caps.add(report.CapabilityChangeStatus, report.CapabilityPostInternalMessage)
		}
	}

	return caps
}

// CanSetStatus reports whether the role may drive a report to the target
// status at all. External maintainers work the report but final resolution
// stays with the accountable technician.
func CanSetStatus(role user.Role, target report.Status) bool {
	if role == user.RoleExternalMaintainer && target == report.StatusResolved {
		return false
	}
	return true
}

// CanView reports whether the actor may read the report itself. Workflow
// participants always may; other citizens only see non-anonymous reports.
func CanView(actorID int64, role user.Role, r *report.Report) bool {
	switch role {
	case user.RoleMunicipalOfficer:
		return true
	case user.RoleTechnician:
		return r.IsAssignee(actorID)
	case user.RoleExternalMaintainer:
		return r.IsExternalMaintainer(actorID)
	case user.RoleCitizen:
		return r.ReporterID == actorID || !r.Anonymous
	default:
		return false
	}
}
