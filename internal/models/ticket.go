package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a ticket. Values are stored verbatim in the
// legacy database, so they stay in Spanish.
type Status string

const (
	StatusOpen       Status = "Abierto"
	StatusInProgress Status = "En progreso"
	StatusClosed     Status = "Cerrado"
)

// ArchivedType is the sentinel written into the tipo column when a closed
// ticket is archived. Legacy encoding: archiving overloads the type field
// rather than the status enum.
const ArchivedType = "archivado"

// Priority is the urgency level of a ticket.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
	PriorityLow    Priority = "Baja"
)

// Legacy date formats. Tickets carry a calendar date, history rows a
// minute-resolution timestamp. Both are stored as text and the metric queries
// reassemble them with substr(), so the exact shapes are load-bearing.
const (
	DateLayout     = "02-01-2006"
	DateTimeLayout = "02-01-2006 15:04"
)

// Ticket represents a support ticket.
type Ticket struct {
	ID            string   `json:"id" db:"id"` // e.g. TICKET-1001
	Issue         string   `json:"issue" db:"issue"`
	Status        Status   `json:"status" db:"status"`
	Priority      Priority `json:"priority" db:"priority"`
	DateSubmitted string   `json:"date_submitted" db:"date_submitted"` // DD-MM-YYYY
	Submitter     string   `json:"usuario" db:"usuario"`
	Site          string   `json:"sede" db:"sede"`
	Type          string   `json:"tipo" db:"tipo"` // "<purpose> - <category>" or the archived sentinel
	Assignee      string   `json:"asignado" db:"asignado"`
	Email         string   `json:"email" db:"email"`
}

// Archived reports whether the ticket carries the archived sentinel.
func (t *Ticket) Archived() bool {
	return t.Type == ArchivedType
}

// SubmittedAt parses the legacy date column.
func (t *Ticket) SubmittedAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout, t.DateSubmitted, time.Local)
}

// ValidStatus reports whether s is one of the three workflow states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ComposeType builds the composite type string stored on a ticket.
func ComposeType(purpose, category string) string {
	return fmt.Sprintf("%s - %s", purpose, category)
}

// SplitType splits a composite type into purpose and category. The category
// is empty when the value has no separator (including the archived sentinel).
func SplitType(composite string) (purpose, category string) {
	idx := strings.Index(composite, " - ")
	if idx < 0 {
		return composite, ""
	}
	return composite[:idx], composite[idx+3:]
}
