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
)

// AttachmentRepository stores and reads ticket attachments. Rows are written
// once; no exposed operation updates or purges them.
type AttachmentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAttachmentRepository creates an attachment repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db, now: time.Now}
}

// SetClock overrides the time source, used by tests.
func (r *AttachmentRepository) SetClock(now func() time.Time) { r.now = now }

// Exists reports whether the ticket already has an attachment with this
// filename. Callers check before Insert; a duplicate is a no-op, not an error.
func (r *AttachmentRepository) Exists(ctx context.Context, ticketID, filename string) (bool, error) {
	var n int
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM adjuntos WHERE ticket_id = ? AND nombre_archivo = ?`,
		ticketID, filename,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert stores one attachment stamped with the current time and returns the
// completed record.
func (r *AttachmentRepository) Insert(ctx context.Context, a *models.Attachment) error {
	a.Date = r.now().Format(models.DateTimeLayout)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO adjuntos (ticket_id, nombre_archivo, tipo_mime, contenido, fecha, usuario)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.TicketID, a.Filename, a.MimeType, a.Content, a.Date, a.Uploader,
	)
	if err != nil {
		return fmt.Errorf("insert attachment %s/%s: %w", a.TicketID, a.Filename, err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetLatest returns the newest attachment matching (ticket, filename), the
// row history comments resolve their markers against.
func (r *AttachmentRepository) GetLatest(ctx context.Context, ticketID, filename string) (*models.Attachment, error) {
	var a models.Attachment
	err := r.db.GetContext(ctx, &a, `
		SELECT id, ticket_id, nombre_archivo, tipo_mime, contenido, fecha, usuario
		FROM adjuntos WHERE ticket_id = ? AND nombre_archivo = ?
		ORDER BY id DESC LIMIT 1`, ticketID, filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %s/%s: %w", ticketID, filename, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListNames returns the filenames attached to a ticket, oldest first.
func (r *AttachmentRepository) ListNames(ctx context.Context, ticketID string) ([]string, error) {
	names := []string{}
	err := r.db.SelectContext(ctx, &names,
		`SELECT nombre_archivo FROM adjuntos WHERE ticket_id = ? ORDER BY id ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("attachments for %s: %w", ticketID, err)
	}
	return names, nil
}
