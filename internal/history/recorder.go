// Package history provides ticket history recording and formatting helpers.
package history

import (
	"context"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Appender is the subset of the history repository the recorder needs.
type Appender interface {
	Append(ctx context.Context, ticketID, author, comment string) (*models.HistoryEntry, error)
}

// Recorder appends history rows for ticket events.
type Recorder struct {
	repo Appender
}

// NewRecorder creates a recorder. Returns nil if repo is nil; a nil recorder
// drops events silently, which keeps optional wiring simple.
func NewRecorder(repo Appender) *Recorder {
	if repo == nil {
		return nil
	}
	return &Recorder{repo: repo}
}

// Record appends one entry for a ticket.
func (r *Recorder) Record(ctx context.Context, ticketID, author, message string) (*models.HistoryEntry, error) {
	if r == nil || r.repo == nil {
		return nil, nil
	}
	return r.repo.Append(ctx, ticketID, author, message)
}

// RecordAttachment appends the structured marker referencing a stored file.
func (r *Recorder) RecordAttachment(ctx context.Context, ticketID, author, filename string) (*models.HistoryEntry, error) {
	return r.Record(ctx, ticketID, author, models.AttachmentMarker(filename))
}
