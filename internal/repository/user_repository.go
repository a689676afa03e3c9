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

// UserRepository reads and writes the usuarios table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername returns one account or database.ErrNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	var u models.UserAccount
	err := r.db.GetContext(ctx, &u, `
		SELECT id, username, password, nombre, rol, email
		FROM usuarios WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailByDisplayName looks up the notification address for a display name,
// returning "" when the user is unknown or has no address.
func (r *UserRepository) EmailByDisplayName(ctx context.Context, name string) (string, error) {
	var email string
	err := r.db.QueryRowxContext(ctx, `SELECT email FROM usuarios WHERE nombre = ?`, name).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// List returns every account, support staff and admins alike.
func (r *UserRepository) List(ctx context.Context) ([]models.UserAccount, error) {
	users := []models.UserAccount{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, username, password, nombre, rol, email FROM usuarios ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a new account. The password column is stored as provided;
// this mirrors the legacy data and is a known defect, not an endorsement.
func (r *UserRepository) Create(ctx context.Context, u *models.UserAccount) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO usuarios (username, password, nombre, rol, email)
		VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Password, u.DisplayName, u.Role, u.Email,
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Username, err)
	}
	u.ID, err = res.LastInsertId()
	return err
}
