package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// LookupRepository serves the sedes and tipos_problema taxonomies.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository creates a lookup repository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// SiteNames returns every site name.
func (r *LookupRepository) SiteNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, `SELECT nombre FROM sedes ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list sedes: %w", err)
	}
	return names, nil
}

// ProblemTypes returns the whole taxonomy.
func (r *LookupRepository) ProblemTypes(ctx context.Context) ([]models.ProblemType, error) {
	types := []models.ProblemType{}
	err := r.db.SelectContext(ctx, &types, `
		SELECT id, descripcion, categoria, categoria_2, categoria_3
		FROM tipos_problema ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tipos_problema: %w", err)
	}
	return types, nil
}

// CategoriesFor returns the category slots of one purpose, or
// database.ErrNotFound for an unknown purpose.
func (r *LookupRepository) CategoriesFor(ctx context.Context, purpose string) ([]string, error) {
	var pt models.ProblemType
	err := r.db.GetContext(ctx, &pt, `
		SELECT id, descripcion, categoria, categoria_2, categoria_3
		FROM tipos_problema WHERE descripcion = ?`, purpose)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tipo %s: %w", purpose, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return pt.Categories(), nil
}
