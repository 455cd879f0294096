package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/category"
	"city_report_service/internal/domain/company"
)

// Lookup tables maintained outside the engine: report categories with their
// technical office, and external maintenance companies.

type PostgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	query := `SELECT id, name, technical_office_id FROM categories WHERE id = $1`
	cat := category.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&cat.ID, &cat.Name, &cat.TechnicalOfficeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("getting category %d: %v: %w", id, err, apperr.ErrUnavailable)
	}
	return &cat, nil
}

type PostgresCompanyRepository struct {
	db *sql.DB
}

func NewPostgresCompanyRepository(db *sql.DB) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{db: db}
}

func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id int64) (*company.Company, error) {
	query := `SELECT id, name FROM companies WHERE id = $1`
	comp := company.Company{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&comp.ID, &comp.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("getting company %d: %v: %w", id, err, apperr.ErrUnavailable)
	}
	return &comp, nil
}
