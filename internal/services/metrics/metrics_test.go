package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/database/schema"
)

func newTestService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db, err := database.ConnectMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Migrate(db))
	return NewService(db), db
}

func insertTicket(t *testing.T, db *sqlx.DB, id, status, submitted string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO tickets (id, issue, status, priority, date_submitted, usuario)
		VALUES (?, 'issue', ?, 'Media', ?, 'user')`, id, status, submitted)
	require.NoError(t, err)
}

func insertHistory(t *testing.T, db *sqlx.DB, ticketID, fecha, comment string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO historial (ticket_id, fecha, usuario, comentario)
		VALUES (?, ?, 'soporte', ?)`, ticketID, fecha, comment)
	require.NoError(t, err)
}

func TestAverageFirstResponseHours(t *testing.T) {
	svc, db := newTestService(t)

	// Two days to first comment on one ticket, one day on the other: 36h avg.
	insertTicket(t, db, "TICKET-1001", "Abierto", "01-02-2024")
	insertHistory(t, db, "TICKET-1001", "03-02-2024 10:00", "primer contacto")
	insertHistory(t, db, "TICKET-1001", "05-02-2024 10:00", "seguimiento")

	insertTicket(t, db, "TICKET-1002", "Abierto", "10-02-2024")
	insertHistory(t, db, "TICKET-1002", "11-02-2024 09:00", "revisando")

	hours, ok, err := svc.AverageFirstResponseHours(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 36.0, hours, 0.01)
}

func TestAverageFirstResponseHoursNoComments(t *testing.T) {
	svc, db := newTestService(t)
	insertTicket(t, db, "TICKET-1001", "Abierto", "01-02-2024")

	_, ok, err := svc.AverageFirstResponseHours(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "no comments means no value, not zero")
}

func TestAverageResolutionHoursOnlyClosedTickets(t *testing.T) {
	svc, db := newTestService(t)

	// Closed with latest comment 3 days after submission: 72h.
	insertTicket(t, db, "TICKET-1001", "Cerrado", "01-02-2024")
	insertHistory(t, db, "TICKET-1001", "02-02-2024 10:00", "avance")
	insertHistory(t, db, "TICKET-1001", "04-02-2024 16:00", "resuelto")

	// Open ticket with comments must not count.
	insertTicket(t, db, "TICKET-1002", "Abierto", "01-02-2024")
	insertHistory(t, db, "TICKET-1002", "09-02-2024 10:00", "sigue abierto")

	hours, ok, err := svc.AverageResolutionHours(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 72.0, hours, 0.01)
}

func TestAverageResolutionHoursNoClosedTickets(t *testing.T) {
	svc, db := newTestService(t)
	insertTicket(t, db, "TICKET-1001", "Abierto", "01-02-2024")
	insertHistory(t, db, "TICKET-1001", "02-02-2024 10:00", "avance")

	_, ok, err := svc.AverageResolutionHours(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBusinessDaysElapsed(t *testing.T) {
	svc, _ := newTestService(t)
	// Friday 2024-03-08.
	svc.SetClock(func() time.Time {
		return time.Date(2024, 3, 8, 12, 0, 0, 0, time.Local)
	})

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)
	assert.Equal(t, 5, svc.BusinessDaysElapsed(monday), "Mon through Fri inclusive")

	friday := time.Date(2024, 3, 8, 0, 0, 0, 0, time.Local)
	assert.Equal(t, 1, svc.BusinessDaysElapsed(friday), "same weekday counts itself")

	saturday := time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local)
	assert.Equal(t, 5, svc.BusinessDaysElapsed(saturday), "weekend start adds nothing")

	prevMonday := time.Date(2024, 2, 26, 0, 0, 0, 0, time.Local)
	assert.Equal(t, 10, svc.BusinessDaysElapsed(prevMonday), "two working weeks")
}
