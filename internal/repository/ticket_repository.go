// Package repository holds the persistence operations over the legacy
// helpdesk tables. All dates cross this boundary as the legacy text formats;
// callers work with time.Time and convert via the models layer.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/ticketnumber"
)

// TicketRepository handles database operations for tickets.
type TicketRepository struct {
	db        *sqlx.DB
	generator ticketnumber.Generator
	now       func() time.Time
}

// NewTicketRepository creates a ticket repository using the given ID
// generator.
func NewTicketRepository(db *sqlx.DB, gen ticketnumber.Generator) *TicketRepository {
	return &TicketRepository{db: db, generator: gen, now: time.Now}
}

// SetClock overrides the time source, used by tests.
func (r *TicketRepository) SetClock(now func() time.Time) { r.now = now }

// Create allocates the next ticket ID, stamps status and submission date and
// inserts the row. The passed ticket is completed in place.
func (r *TicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	id, err := r.generator.Next(ctx, r.db)
	if err != nil {
		return fmt.Errorf("ticket id allocation: %w", err)
	}
	t.ID = id
	t.Status = models.StatusOpen
	t.DateSubmitted = r.now().Format(models.DateLayout)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tickets (id, issue, status, priority, date_submitted, usuario, sede, tipo, asignado, email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Issue, t.Status, t.Priority, t.DateSubmitted, t.Submitter, t.Site, t.Type, t.Assignee, t.Email,
	)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", t.ID, err)
	}
	return nil
}

// GetByID returns one ticket or database.ErrNotFound.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	err := r.db.GetContext(ctx, &t, `
		SELECT id, issue, status, priority, date_submitted, usuario, sede, tipo, asignado, email
		FROM tickets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Status          models.Status
	Priority        models.Priority
	Site            string
	Assignee        string
	Submitter       string
	ExcludeArchived bool
}

// List returns tickets most-recent-ID-first.
func (r *TicketRepository) List(ctx context.Context, f ListFilter) ([]models.Ticket, error) {
	query := `SELECT id, issue, status, priority, date_submitted, usuario, sede, tipo, asignado, email FROM tickets`
	var conds []string
	var args []interface{}
	if f.Status != "" {
		conds, args = append(conds, "status = ?"), append(args, f.Status)
	}
	if f.Priority != "" {
		conds, args = append(conds, "priority = ?"), append(args, f.Priority)
	}
	if f.Site != "" {
		conds, args = append(conds, "sede = ?"), append(args, f.Site)
	}
	if f.Assignee != "" {
		conds, args = append(conds, "asignado = ?"), append(args, f.Assignee)
	}
	if f.Submitter != "" {
		conds, args = append(conds, "usuario = ?"), append(args, f.Submitter)
	}
	if f.ExcludeArchived {
		conds, args = append(conds, "tipo != ?"), append(args, models.ArchivedType)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY id DESC"

	tickets := []models.Ticket{}
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateStatus sets the status column. The closing-comment precondition
// lives in the service layer; this is the bare column update.
func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	return r.UpdateStatusWith(ctx, r.db, id, status)
}

// UpdateStatusWith is UpdateStatus running on the given executor, so the
// close transition can pair the update with its closing comment atomically.
func (r *TicketRepository) UpdateStatusWith(ctx context.Context, ext sqlx.ExtContext, id string, status models.Status) error {
	return r.updateFieldWith(ctx, ext, id, "status", string(status))
}

// UpdateAssignee sets asignado; an empty name unassigns.
func (r *TicketRepository) UpdateAssignee(ctx context.Context, id, assignee string) error {
	return r.updateField(ctx, id, "asignado", assignee)
}

// UpdatePriority sets priority.
func (r *TicketRepository) UpdatePriority(ctx context.Context, id string, p models.Priority) error {
	return r.updateField(ctx, id, "priority", string(p))
}

// UpdateType sets tipo (composite value or the archived sentinel).
func (r *TicketRepository) UpdateType(ctx context.Context, id, composite string) error {
	return r.updateField(ctx, id, "tipo", composite)
}

func (r *TicketRepository) updateField(ctx context.Context, id, column, value string) error {
	return r.updateFieldWith(ctx, r.db, id, column, value)
}

func (r *TicketRepository) updateFieldWith(ctx context.Context, ext sqlx.ExtContext, id, column, value string) error {
	res, err := ext.ExecContext(ctx, fmt.Sprintf("UPDATE tickets SET %s = ? WHERE id = ?", column), value, id)
	if err != nil {
		return fmt.Errorf("update ticket %s %s: %w", id, column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ticket %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// Exists reports whether a ticket row exists.
func (r *TicketRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
