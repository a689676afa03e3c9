package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xeonx/timeago"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/services/ticket"
)

// ticketView decorates a ticket with the derived age fields the board shows.
type ticketView struct {
	models.Ticket
	Age          string `json:"age,omitempty"`
	BusinessDays int    `json:"business_days_elapsed"`
}

func (h *Handler) view(t models.Ticket) ticketView {
	v := ticketView{Ticket: t}
	if submitted, err := t.SubmittedAt(); err == nil {
		v.Age = timeago.English.Format(submitted)
		v.BusinessDays = h.metrics.BusinessDaysElapsed(submitted)
	}
	return v
}

func (h *Handler) listTickets(c *gin.Context) {
	f := repository.ListFilter{
		Status:          models.Status(c.Query("status")),
		Priority:        models.Priority(c.Query("priority")),
		Site:            c.Query("sede"),
		Assignee:        c.Query("asignado"),
		Submitter:       c.Query("usuario"),
		ExcludeArchived: c.Query("include_archived") != "true",
	}
	tickets, err := h.tickets.ListTickets(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	views := make([]ticketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, h.view(t))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": views})
}

type createTicketRequest struct {
	Issue     string `json:"issue" binding:"required"`
	Priority  string `json:"priority" binding:"required"`
	Submitter string `json:"usuario" binding:"required"`
	Site      string `json:"sede"`
	Type      string `json:"tipo"`
	Email     string `json:"email"`
}

func (h *Handler) createTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tickets.CreateTicket(c.Request.Context(), ticket.CreateTicketInput{
		Issue:     req.Issue,
		Priority:  models.Priority(req.Priority),
		Submitter: req.Submitter,
		Site:      req.Site,
		Type:      req.Type,
		Email:     req.Email,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.notify(func() error { return h.mailer.NotifyCreated(t) })
	h.notify(func() error { return h.mailer.NotifySupport(t) })
	c.JSON(http.StatusCreated, h.view(*t))
}

func (h *Handler) getTicket(c *gin.Context) {
	t, err := h.tickets.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(*t))
}

type changeStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Author  string `json:"author"`
	Comment string `json:"comment"`
}

func (h *Handler) changeStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	newStatus := models.Status(req.Status)
	if err := h.tickets.ChangeStatus(c.Request.Context(), id, newStatus, req.Author, req.Comment); err != nil {
		h.fail(c, err)
		return
	}
	if t, err := h.tickets.GetTicket(c.Request.Context(), id); err == nil {
		h.notify(func() error { return h.mailer.NotifyStatusChange(t, newStatus) })
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": newStatus})
}

type assignRequest struct {
	Assignee string `json:"asignado"`
}

func (h *Handler) assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tickets.Assign(c.Request.Context(), c.Param("id"), req.Assignee); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "asignado": req.Assignee})
}

type priorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

func (h *Handler) setPriority(c *gin.Context) {
	var req priorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tickets.SetPriority(c.Request.Context(), c.Param("id"), models.Priority(req.Priority)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "priority": req.Priority})
}

type typeRequest struct {
	Type string `json:"tipo" binding:"required"`
}

func (h *Handler) setType(c *gin.Context) {
	var req typeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tickets.SetType(c.Request.Context(), c.Param("id"), req.Type); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "tipo": req.Type})
}

func (h *Handler) archive(c *gin.Context) {
	if err := h.tickets.Archive(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

func (h *Handler) getHistory(c *gin.Context) {
	entries, err := h.tickets.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

type commentRequest struct {
	Author  string `json:"author" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

func (h *Handler) appendComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	entry, err := h.tickets.AppendComment(c.Request.Context(), id, req.Author, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	if t, err := h.tickets.GetTicket(c.Request.Context(), id); err == nil {
		h.notify(func() error { return h.mailer.NotifyComment(t, entry) })
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) attachFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uploader := c.PostForm("uploader")
	mimeType := header.Header.Get("Content-Type")

	att, err := h.tickets.AttachFile(c.Request.Context(), c.Param("id"), header.Filename, mimeType, content, uploader)
	if err != nil {
		h.fail(c, err)
		return
	}
	if att == nil {
		// Duplicate filename for this ticket: idempotent no-op.
		c.JSON(http.StatusOK, gin.H{"duplicate": true, "filename": header.Filename})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":             att.ID,
		"ticket_id":      att.TicketID,
		"nombre_archivo": att.Filename,
		"tipo_mime":      att.MimeType,
		"fecha":          att.Date,
	})
}

func (h *Handler) downloadAttachment(c *gin.Context) {
	att, err := h.tickets.GetAttachment(c.Request.Context(), c.Param("id"), c.Param("filename"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+att.Filename+`"`)
	c.Data(http.StatusOK, att.MimeType, att.Content)
}

func (h *Handler) getMetrics(c *gin.Context) {
	out := gin.H{}
	if hours, ok, err := h.metrics.AverageFirstResponseHours(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	} else if ok {
		out["average_first_response_hours"] = hours
	}
	if hours, ok, err := h.metrics.AverageResolutionHours(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	} else if ok {
		out["average_resolution_hours"] = hours
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) listSites(c *gin.Context) {
	names, err := h.lookups.SiteNames(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sedes": names})
}

func (h *Handler) listProblemTypes(c *gin.Context) {
	types, err := h.lookups.ProblemTypes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tipos": types})
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.lookups.CategoriesFor(c.Request.Context(), c.Param("purpose"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categorias": cats})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usuarios": users})
}

// fail maps the error taxonomy to status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case database.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ticket.ErrInvalidTransition),
		errors.Is(err, ticket.ErrUnknownStatus),
		errors.Is(err, ticket.ErrUnknownPriority):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// notify runs a mail send, logging failures: notification problems never
// fail the mutation they follow.
func (h *Handler) notify(send func() error) {
	if h.mailer == nil {
		return
	}
	if err := send(); err != nil {
		log.Printf("api: notification failed: %v", err)
	}
}
