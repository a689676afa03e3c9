// Package api exposes the lifecycle store as a thin JSON surface for the
// UI layer. Handlers translate requests to service calls and map the error
// taxonomy to status codes; no business rule lives here.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/email"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/services/metrics"
	"github.com/helpdesk-io/helpdesk-ce/internal/services/ticket"
)

// Handler bundles the collaborators the routes need.
type Handler struct {
	tickets *ticket.Service
	metrics *metrics.Service
	lookups *repository.LookupRepository
	users   *repository.UserRepository
	mailer  *email.Service
}

// NewHandler creates the API handler. mailer may be nil to disable
// notifications entirely.
func NewHandler(
	tickets *ticket.Service,
	metricsSvc *metrics.Service,
	lookups *repository.LookupRepository,
	users *repository.UserRepository,
	mailer *email.Service,
) *Handler {
	return &Handler{
		tickets: tickets,
		metrics: metricsSvc,
		lookups: lookups,
		users:   users,
		mailer:  mailer,
	}
}

// Register mounts all routes under /api.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/tickets", h.listTickets)
	api.POST("/tickets", h.createTicket)
	api.GET("/tickets/:id", h.getTicket)
	api.PUT("/tickets/:id/status", h.changeStatus)
	api.PUT("/tickets/:id/assignee", h.assign)
	api.PUT("/tickets/:id/priority", h.setPriority)
	api.PUT("/tickets/:id/type", h.setType)
	api.POST("/tickets/:id/archive", h.archive)

	api.GET("/tickets/:id/history", h.getHistory)
	api.POST("/tickets/:id/comments", h.appendComment)
	api.POST("/tickets/:id/attachments", h.attachFile)
	api.GET("/tickets/:id/attachments/:filename", h.downloadAttachment)

	api.GET("/metrics", h.getMetrics)

	api.GET("/lookups/sedes", h.listSites)
	api.GET("/lookups/tipos", h.listProblemTypes)
	api.GET("/lookups/tipos/:purpose/categorias", h.listCategories)
	api.GET("/users", h.listUsers)
}

// NewRouter builds a gin engine with the API mounted, used by serve and by
// the handler tests.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r)
	return r
}
