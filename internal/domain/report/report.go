package report

import (
	"database/sql"
	"time"
)

// Status is the lifecycle state of a report.
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusAssigned        Status = "ASSIGNED"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusSuspended       Status = "SUSPENDED"
	StatusResolved        Status = "RESOLVED"
	StatusRejected        Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusAssigned, StatusInProgress,
		StatusSuspended, StatusResolved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// Capability is a workflow action an actor may be granted on a report.
type Capability string

const (
	CapabilityApprove             Capability = "APPROVE"
	CapabilityReject              Capability = "REJECT"
	CapabilityChangeStatus        Capability = "CHANGE_STATUS"
	CapabilityDelegate            Capability = "DELEGATE"
	CapabilityPostCitizenMessage  Capability = "POST_CITIZEN_MESSAGE"
	CapabilityPostInternalMessage Capability = "POST_INTERNAL_MESSAGE"
)

// Report is a citizen-filed maintenance issue. Rows are never deleted; the
// lifecycle only moves through the transition table and every commit leaves an
// audit entry.
type Report struct {
	ID          int64
	CategoryID  int64
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	Anonymous   bool
	Photos      []string
	Status      Status
	ReporterID  int64

	// AssigneeID and TechnicalOfficeID are set on approval and immutable
	// afterwards.
	AssigneeID        sql.NullInt64
	TechnicalOfficeID sql.NullInt64

	// ExternalMaintainerID and CompanyID are either both set or both null.
	// Their presence is what defines the internal channel.
	ExternalMaintainerID sql.NullInt64
	CompanyID            sql.NullInt64

	RejectionReason sql.NullString

	// Version backs the optimistic concurrency check on every mutation.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDelegation reports whether an external maintainer is currently attached.
func (r *Report) HasDelegation() bool {
	return r.ExternalMaintainerID.Valid
}

// IsAssignee reports whether the given user is the owning technician.
func (r *Report) IsAssignee(userID int64) bool {
	return r.AssigneeID.Valid && r.AssigneeID.Int64 == userID
}

// IsExternalMaintainer reports whether the given user is the delegated
// maintainer.
func (r *Report) IsExternalMaintainer(userID int64) bool {
	return r.ExternalMaintainerID.Valid && r.ExternalMaintainerID.Int64 == userID
}

// AuditEntry records one committed lifecycle mutation. Append-only.
type AuditEntry struct {
	ID         int64
	ReportID   int64
	ActorID    int64
	FromStatus Status
	ToStatus   Status
	Detail     string
	CreatedAt  time.Time
}
