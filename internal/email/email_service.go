// Package email sends ticket notification mail over SMTP. The lifecycle
// store never calls it; the surface layer does, after mutations succeed.
package email

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// Service sends plain-text notification mail. The enabled flag replaces the
// module-level toggle the legacy app used; disabled sends are logged no-ops.
type Service struct {
	cfg config.EmailConfig
}

// NewService creates an email service from config.
func NewService(cfg config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// Enabled reports whether sends actually go out.
func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Send delivers one message. Returns nil without sending when disabled or
// when the recipient is empty.
func (s *Service) Send(subject, body, to string) error {
	if to == "" {
		return nil
	}
	if !s.cfg.Enabled {
		log.Printf("email: disabled, skipped %q to %s", subject, to)
		return nil
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// NotifyCreated mails the submitter a creation receipt.
func (s *Service) NotifyCreated(t *models.Ticket) error {
	subject := fmt.Sprintf("Ticket creado: %s", t.ID)
	body := fmt.Sprintf(
		"Su ticket ha sido creado correctamente:\n\nID: %s\nAsunto: %s\nEstado: %s\nPrioridad: %s\nSede: %s\nTipo: %s\n\nGracias por contactarnos. El equipo de soporte lo contactará pronto.",
		t.ID, t.Issue, t.Status, t.Priority, t.Site, t.Type,
	)
	return s.Send(subject, body, t.Email)
}

// NotifyStatusChange mails the submitter after a transition.
func (s *Service) NotifyStatusChange(t *models.Ticket, newStatus models.Status) error {
	subject := fmt.Sprintf("Cambio de estado: %s → %s", t.ID, newStatus)
	body := fmt.Sprintf(
		"Su ticket:\n\nID: %s\nAsunto: %s\n\nha cambiado de estado a '%s'",
		t.ID, t.Issue, newStatus,
	)
	return s.Send(subject, body, t.Email)
}

// NotifyComment mails the submitter when a comment lands on their ticket.
// Attachment markers are announced as attachments, not raw markers.
func (s *Service) NotifyComment(t *models.Ticket, entry *models.HistoryEntry) error {
	comment := entry.Comment
	if name, ok := models.ParseAttachmentMarker(comment); ok {
		comment = "Archivo adjunto: " + name
	}
	subject := fmt.Sprintf("Actualización ticket %s: %s", t.ID, t.Status)
	body := fmt.Sprintf(
		"Se ha agregado un nuevo comentario al ticket %s:\n\nAsunto: %s\nEstado: %s\nUsuario que comenta: %s\n\nComentario:\n%s\n",
		t.ID, t.Issue, t.Status, entry.Author, comment,
	)
	return s.Send(subject, body, t.Email)
}

// NotifySupport mails the support inbox about a new ticket.
func (s *Service) NotifySupport(t *models.Ticket) error {
	if s.cfg.SupportInbox == "" {
		return nil
	}
	subject := fmt.Sprintf("Nuevo ticket %s (%s)", t.ID, t.Priority)
	body := fmt.Sprintf(
		"Nuevo ticket reportado:\n\nID: %s\nAsunto: %s\nUsuario: %s\nSede: %s\nTipo: %s\nPrioridad: %s",
		t.ID, t.Issue, t.Submitter, t.Site, t.Type, t.Priority,
	)
	return s.Send(subject, body, strings.TrimSpace(s.cfg.SupportInbox))
}
