package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/database/schema"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/services/metrics"
	"github.com/helpdesk-io/helpdesk-ce/internal/services/ticket"
	"github.com/helpdesk-io/helpdesk-ce/internal/ticketnumber"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.ConnectMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Migrate(db))
	require.NoError(t, schema.SeedSites(db, "Sede Norte"))
	require.NoError(t, schema.SeedProblemType(db, "Hardware", "Impresora", "", ""))

	gen := ticketnumber.NewMaxScan(ticketnumber.DefaultConfig())
	tickets := ticket.NewService(
		db,
		repository.NewTicketRepository(db, gen),
		repository.NewHistoryRepository(db),
		repository.NewAttachmentRepository(db),
		nil,
	)
	handler := NewHandler(
		tickets,
		metrics.NewService(db),
		repository.NewLookupRepository(db),
		repository.NewUserRepository(db),
		nil, // notifications off in tests
	)
	return NewRouter(handler)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createTestTicket(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/tickets", gin.H{
		"issue":    "la impresora no imprime",
		"priority": "Media",
		"usuario":  "maria",
		"sede":     "Sede Norte",
		"tipo":     "Hardware - Impresora",
		"email":    "maria@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestCreateAndListTickets(t *testing.T) {
	r := newTestRouter(t)
	id := createTestTicket(t, r)
	assert.Equal(t, "TICKET-1001", id)

	w := doJSON(t, r, http.MethodGet, "/api/tickets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tickets []struct {
			ID           string `json:"id"`
			Status       string `json:"status"`
			BusinessDays int    `json:"business_days_elapsed"`
		} `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Tickets, 1)
	assert.Equal(t, string(models.StatusOpen), resp.Tickets[0].Status)
	assert.GreaterOrEqual(t, resp.Tickets[0].BusinessDays, 0)
}

func TestCreateTicketRejectsMissingFields(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/tickets", gin.H{"issue": "sin usuario"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTicketNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/tickets/TICKET-404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloseWithoutCommentRejected(t *testing.T) {
	r := newTestRouter(t)
	id := createTestTicket(t, r)

	w := doJSON(t, r, http.MethodPut, "/api/tickets/"+id+"/status", gin.H{
		"status": "Cerrado",
		"author": "soporte1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Ticket remains open.
	w = doJSON(t, r, http.MethodGet, "/api/tickets/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.StatusOpen))
}

func TestCloseCommentAndHistoryFlow(t *testing.T) {
	r := newTestRouter(t)
	id := createTestTicket(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/tickets/"+id+"/comments", gin.H{
		"author":  "soporte1",
		"comment": "investigating",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/tickets/"+id+"/status", gin.H{
		"status":  "Cerrado",
		"author":  "soporte1",
		"comment": "resolved: replaced cable",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tickets/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		History []models.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.History, 2)
	assert.Equal(t, "investigating", resp.History[0].Comment)
	assert.Equal(t, "resolved: replaced cable", resp.History[1].Comment)
}

func TestArchiveEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createTestTicket(t, r)

	doJSON(t, r, http.MethodPut, "/api/tickets/"+id+"/status", gin.H{
		"status": "Cerrado", "author": "s", "comment": "done",
	})
	w := doJSON(t, r, http.MethodPost, "/api/tickets/"+id+"/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tickets/"+id, nil)
	assert.Contains(t, w.Body.String(), models.ArchivedType)

	// Archived tickets drop out of the default listing.
	w = doJSON(t, r, http.MethodGet, "/api/tickets", nil)
	assert.NotContains(t, w.Body.String(), id)
}

func attachFile(t *testing.T, r *gin.Engine, id, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("uploader", "maria"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tickets/%s/attachments", id), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAttachmentUploadAndDuplicate(t *testing.T) {
	r := newTestRouter(t)
	id := createTestTicket(t, r)

	w := attachFile(t, r, id, "manual.pdf", []byte("pdf bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = attachFile(t, r, id, "manual.pdf", []byte("pdf bytes"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate")

	// Download round trip.
	req := httptest.NewRequest(http.MethodGet, "/api/tickets/"+id+"/attachments/manual.pdf", nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "pdf bytes", got.Body.String())
}

func TestMetricsEmptyDatabase(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// Without comments there is no average, so the keys are absent.
	assert.Equal(t, "{}", w.Body.String())
}

func TestLookupEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/lookups/sedes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sede Norte")

	w = doJSON(t, r, http.MethodGet, "/api/lookups/tipos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hardware")

	w = doJSON(t, r, http.MethodGet, "/api/lookups/tipos/Hardware/categorias", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Impresora")

	w = doJSON(t, r, http.MethodGet, "/api/lookups/tipos/Nada/categorias", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
