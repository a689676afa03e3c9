package models

// Attachment is a binary blob stored against a ticket. Rows are written once
// and never updated; uniqueness per (ticket, filename) is enforced by the
// service with a check-before-insert, duplicates being a silent no-op.
type Attachment struct {
	ID       int64  `json:"id" db:"id"`
	TicketID string `json:"ticket_id" db:"ticket_id"`
	Filename string `json:"nombre_archivo" db:"nombre_archivo"`
	MimeType string `json:"tipo_mime" db:"tipo_mime"`
	Content  []byte `json:"-" db:"contenido"`
	Date     string `json:"fecha" db:"fecha"` // DD-MM-YYYY HH:MM
	Uploader string `json:"usuario" db:"usuario"`
}
