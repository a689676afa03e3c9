package models

import (
	"strings"
	"time"
)

// HistoryEntry is one immutable row of a ticket's historial. Entries are
// append-only; there is no update or delete path anywhere in the system.
type HistoryEntry struct {
	ID       int64  `json:"id" db:"id"`
	TicketID string `json:"ticket_id" db:"ticket_id"`
	Date     string `json:"fecha" db:"fecha"` // DD-MM-YYYY HH:MM
	Author   string `json:"usuario" db:"usuario"`
	Comment  string `json:"comentario" db:"comentario"`
}

// RecordedAt parses the legacy timestamp column.
func (h *HistoryEntry) RecordedAt() (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, h.Date, time.Local)
}

// Attachment marker convention: a history comment of the form
// "[Archivo adjunto BD](<filename>)" references a stored attachment rather
// than holding free text.
const (
	attachmentMarkerPrefix = "[Archivo adjunto BD]("
	attachmentMarkerSuffix = ")"
)

// AttachmentMarker builds the structured comment referencing a stored file.
func AttachmentMarker(filename string) string {
	return attachmentMarkerPrefix + filename + attachmentMarkerSuffix
}

// ParseAttachmentMarker extracts the filename from a structured attachment
// comment. ok is false for ordinary free-text comments.
func ParseAttachmentMarker(comment string) (filename string, ok bool) {
	if !strings.HasPrefix(comment, attachmentMarkerPrefix) || !strings.HasSuffix(comment, attachmentMarkerSuffix) {
		return "", false
	}
	name := comment[len(attachmentMarkerPrefix) : len(comment)-len(attachmentMarkerSuffix)]
	if name == "" {
		return "", false
	}
	return name, true
}
