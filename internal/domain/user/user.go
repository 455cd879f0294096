package user

import "time"

// Role is the single role a user is operating under for a given call. Users
// holding several roles declare the active one on every request; capability
// resolution never merges role sets.
type Role string

const (
	RoleCitizen            Role = "CITIZEN"
	RoleMunicipalOfficer   Role = "MUNICIPAL_OFFICER"
	RoleTechnician         Role = "TECHNICIAN"
	RoleExternalMaintainer Role = "EXTERNAL_MAINTAINER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleMunicipalOfficer, RoleTechnician, RoleExternalMaintainer:
		return true
	default:
		return false
	}
}

// User is the directory view of an account: just enough to authorize actions
// and hydrate author summaries. Account management itself lives elsewhere.
type User struct {
	ID                int64
	DisplayName       string
	Role              Role
	TechnicalOfficeID int64 // technicians only, 0 otherwise
	CompanyID         int64 // external maintainers only, 0 otherwise
	CreatedAt         time.Time
}
