package user

import "context"

// Directory resolves users and performs the deterministic staff picks the
// workflow relies on. Backed by the shared users table; the engine only reads
// from it.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*User, error)

	// PickTechnician selects the technician of the given technical office with
	// the fewest non-terminal assigned reports, ties broken by lowest user id.
	PickTechnician(ctx context.Context, technicalOfficeID int64) (*User, error)

	// PickMaintainer selects an external maintainer from the company roster
	// using the same least-loaded, lowest-id rule.
	PickMaintainer(ctx context.Context, companyID int64) (*User, error)
}
