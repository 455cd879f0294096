package company

import "context"

// Company is an external maintenance company reports can be delegated to.
type Company struct {
	ID   int64
	Name string
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Company, error)
}
