// Package ticket implements the ticket lifecycle: creation, status
// transitions, assignment, comments, attachments and archiving.
package ticket

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/microcosm-cc/bluemonday"

	"github.com/helpdesk-io/helpdesk-ce/internal/history"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

// Service is the lifecycle store the UI layer drives. All methods issue
// short auto-committing statements; the close transition is the only
// multi-statement transaction.
type Service struct {
	db          *sqlx.DB
	tickets     *repository.TicketRepository
	histories   *repository.HistoryRepository
	attachments *repository.AttachmentRepository
	recorder    *history.Recorder
	images      *service.ImageService
	sanitizer   *bluemonday.Policy
}

// NewService wires the lifecycle service. images may be nil, in which case
// attachments are stored verbatim.
func NewService(
	db *sqlx.DB,
	tickets *repository.TicketRepository,
	histories *repository.HistoryRepository,
	attachments *repository.AttachmentRepository,
	images *service.ImageService,
) *Service {
	return &Service{
		db:          db,
		tickets:     tickets,
		histories:   histories,
		attachments: attachments,
		recorder:    history.NewRecorder(histories),
		images:      images,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// CreateTicketInput carries the submission form fields.
type CreateTicketInput struct {
	Issue     string
	Priority  models.Priority
	Submitter string
	Site      string
	Type      string // "<purpose> - <category>"
	Email     string
}

// CreateTicket allocates an ID, stamps status Abierto and today's date and
// persists the ticket. Creation itself writes no history row.
func (s *Service) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.Ticket, error) {
	issue := strings.TrimSpace(s.sanitizer.Sanitize(in.Issue))
	if issue == "" {
		return nil, fmt.Errorf("ticket issue must not be empty")
	}
	if !models.ValidPriority(in.Priority) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPriority, in.Priority)
	}

	t := &models.Ticket{
		Issue:     issue,
		Priority:  in.Priority,
		Submitter: in.Submitter,
		Site:      in.Site,
		Type:      in.Type,
		Email:     in.Email,
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ChangeStatus moves a ticket to newStatus. Any state may follow any other,
// with one precondition: entering Cerrado requires a non-empty closing
// comment, recorded in the same transaction as the status update. An empty
// comment rejects the transition and leaves the ticket untouched.
func (s *Service) ChangeStatus(ctx context.Context, id string, newStatus models.Status, author, closingComment string) error {
	if !models.ValidStatus(newStatus) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, newStatus)
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return err
	}

	// Non-close moves are unconstrained and leave no history row; every
	// historial entry counts as a response in the metric queries, so only
	// real comments and attachment markers go there.
	if newStatus != models.StatusClosed {
		return s.tickets.UpdateStatus(ctx, id, newStatus)
	}

	comment := strings.TrimSpace(s.sanitizer.Sanitize(closingComment))
	if comment == "" {
		return ErrInvalidTransition
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("close %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.histories.AppendWith(ctx, tx, id, author, comment); err != nil {
		return err
	}
	if err := s.tickets.UpdateStatusWith(ctx, tx, id, models.StatusClosed); err != nil {
		return err
	}
	return tx.Commit()
}

// Assign sets the assignee; an empty name unassigns.
func (s *Service) Assign(ctx context.Context, id, assignee string) error {
	return s.tickets.UpdateAssignee(ctx, id, assignee)
}

// SetPriority changes the priority level.
func (s *Service) SetPriority(ctx context.Context, id string, p models.Priority) error {
	if !models.ValidPriority(p) {
		return fmt.Errorf("%w: %q", ErrUnknownPriority, p)
	}
	return s.tickets.UpdatePriority(ctx, id, p)
}

// SetType changes the composite type. The archived sentinel is reserved for
// Archive.
func (s *Service) SetType(ctx context.Context, id, composite string) error {
	if composite == models.ArchivedType {
		return fmt.Errorf("type %q is reserved; use Archive", models.ArchivedType)
	}
	return s.tickets.UpdateType(ctx, id, composite)
}

// Archive stamps the archived sentinel into the type field. Only valid for
// Cerrado tickets; anything else is a logged no-op, not a failure. Archiving
// an already-archived ticket is likewise a no-op.
func (s *Service) Archive(ctx context.Context, id string) error {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Archived() {
		return nil
	}
	if t.Status != models.StatusClosed {
		log.Printf("ticket: archive of %s skipped, status is %q not %q", id, t.Status, models.StatusClosed)
		return nil
	}
	return s.tickets.UpdateType(ctx, id, models.ArchivedType)
}

// AppendComment appends one free-text history entry.
func (s *Service) AppendComment(ctx context.Context, id, author, text string) (*models.HistoryEntry, error) {
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(s.sanitizer.Sanitize(text))
	if comment == "" {
		return nil, fmt.Errorf("comment must not be empty")
	}
	return s.recorder.Record(ctx, id, author, comment)
}

// AttachFile stores a file against a ticket and appends the structured
// history marker referencing it. A duplicate (ticket, filename) pair is an
// idempotent no-op returning (nil, nil): no second row, no second marker.
// Image content passes through the resample step first; if processing fails
// the original bytes are stored unmodified.
func (s *Service) AttachFile(ctx context.Context, id, filename, mimeType string, content []byte, uploader string) (*models.Attachment, error) {
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, err
	}
	exists, err := s.attachments.Exists(ctx, id, filename)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	if s.images != nil && service.IsImage(mimeType) {
		if processed, newMime := s.images.Process(content, mimeType); newMime != "" {
			content, mimeType = processed, newMime
		}
	}

	att := &models.Attachment{
		TicketID: id,
		Filename: filename,
		MimeType: mimeType,
		Content:  content,
		Uploader: uploader,
	}
	if err := s.attachments.Insert(ctx, att); err != nil {
		return nil, err
	}
	if _, err := s.recorder.RecordAttachment(ctx, id, uploader, filename); err != nil {
		log.Printf("ticket: could not record attachment marker for %s/%s: %v", id, filename, err)
	}
	return att, nil
}

// GetTicket returns one ticket.
func (s *Service) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// ListTickets returns tickets most-recent-ID-first.
func (s *Service) ListTickets(ctx context.Context, f repository.ListFilter) ([]models.Ticket, error) {
	return s.tickets.List(ctx, f)
}

// GetHistory returns a ticket's historial in insertion order.
func (s *Service) GetHistory(ctx context.Context, id string) ([]models.HistoryEntry, error) {
	return s.histories.ListByTicket(ctx, id)
}

// GetAttachment resolves a history marker to the stored file.
func (s *Service) GetAttachment(ctx context.Context, id, filename string) (*models.Attachment, error) {
	return s.attachments.GetLatest(ctx, id, filename)
}
