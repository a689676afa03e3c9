package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// HistoryRepository appends and reads the historial log. Rows are immutable;
// there is deliberately no update or delete method.
type HistoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewHistoryRepository creates a history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// SetClock overrides the time source, used by tests.
func (r *HistoryRepository) SetClock(now func() time.Time) { r.now = now }

// Append inserts one history row stamped with the current time and returns
// the completed entry.
func (r *HistoryRepository) Append(ctx context.Context, ticketID, author, comment string) (*models.HistoryEntry, error) {
	return r.AppendWith(ctx, r.db, ticketID, author, comment)
}

// AppendWith is Append running on the given executor, so callers can fold
// the insert into a surrounding transaction.
func (r *HistoryRepository) AppendWith(ctx context.Context, ext sqlx.ExtContext, ticketID, author, comment string) (*models.HistoryEntry, error) {
	entry := models.HistoryEntry{
		TicketID: ticketID,
		Date:     r.now().Format(models.DateTimeLayout),
		Author:   author,
		Comment:  comment,
	}
	res, err := ext.ExecContext(ctx,
		`INSERT INTO historial (ticket_id, fecha, usuario, comentario) VALUES (?, ?, ?, ?)`,
		entry.TicketID, entry.Date, entry.Author, entry.Comment,
	)
	if err != nil {
		return nil, fmt.Errorf("append history for %s: %w", ticketID, err)
	}
	entry.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByTicket returns a ticket's history in insertion order.
func (r *HistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, ticket_id, fecha, usuario, comentario
		FROM historial WHERE ticket_id = ? ORDER BY id ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", ticketID, err)
	}
	return entries, nil
}

// CountByTicket returns the number of history rows for a ticket.
func (r *HistoryRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var n int
	err := r.db.QueryRowxContext(ctx, `SELECT COUNT(*) FROM historial WHERE ticket_id = ?`, ticketID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
