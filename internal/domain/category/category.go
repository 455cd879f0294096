package category

import "context"

// Category maps a report category to the technical office responsible for it.
// The mapping is maintained by the municipality and read-only for the engine.
type Category struct {
	ID                int64
	Name              string
	TechnicalOfficeID int64
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
}
