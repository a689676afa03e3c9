package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/ticketnumber"
)

// stub generator returning a fixed ID without touching the database.
type stubGen struct{ id string }

func (s stubGen) Name() string { return "Stub" }
func (s stubGen) Next(ctx context.Context, db sqlx.QueryerContext) (string, error) {
	return s.id, nil
}

func TestTicketRepositoryCreateSQLShape(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlite3")

	repo := NewTicketRepository(db, stubGen{id: "TICKET-1042"})
	repo.SetClock(fixedClock("15-01-2024 09:30"))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).
		WithArgs(
			"TICKET-1042", "printer jam", string(models.StatusOpen), string(models.PriorityMedium),
			"15-01-2024", "maria", "Sede Norte", "Hardware - Impresora", "", "maria@example.com",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ticket := &models.Ticket{
		Issue:     "printer jam",
		Priority:  models.PriorityMedium,
		Submitter: "maria",
		Site:      "Sede Norte",
		Type:      "Hardware - Impresora",
		Email:     "maria@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), ticket))

	assert.Equal(t, "TICKET-1042", ticket.ID)
	assert.Equal(t, models.StatusOpen, ticket.Status)
	assert.Equal(t, "15-01-2024", ticket.DateSubmitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositoryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketRepository(db, ticketnumber.NewMaxScan(ticketnumber.DefaultConfig()))
	repo.SetClock(fixedClock("15-01-2024 09:30"))

	ticket := &models.Ticket{
		Issue:     "no network on floor 2",
		Priority:  models.PriorityHigh,
		Submitter: "jorge",
		Site:      "Sede Centro",
		Type:      "Red - Cableado",
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	assert.Equal(t, "TICKET-1001", ticket.ID)

	got, err := repo.GetByID(context.Background(), "TICKET-1001")
	require.NoError(t, err)
	assert.Equal(t, ticket.Issue, got.Issue)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.Equal(t, "15-01-2024", got.DateSubmitted)
}

func TestTicketRepositoryGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketRepository(db, ticketnumber.NewMaxScan(ticketnumber.DefaultConfig()))

	_, err := repo.GetByID(context.Background(), "TICKET-9999")
	require.Error(t, err)
	assert.True(t, database.IsNotFound(err))
}

func TestTicketRepositoryUpdatesAndNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketRepository(db, ticketnumber.NewMaxScan(ticketnumber.DefaultConfig()))
	ctx := context.Background()

	ticket := &models.Ticket{Issue: "slow laptop", Priority: models.PriorityLow, Submitter: "ana"}
	require.NoError(t, repo.Create(ctx, ticket))

	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, models.StatusInProgress))
	require.NoError(t, repo.UpdateAssignee(ctx, ticket.ID, "soporte1"))
	require.NoError(t, repo.UpdatePriority(ctx, ticket.ID, models.PriorityHigh))
	require.NoError(t, repo.UpdateType(ctx, ticket.ID, "Hardware - Portátil"))

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, "soporte1", got.Assignee)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, "Hardware - Portátil", got.Type)

	err = repo.UpdateStatus(ctx, "TICKET-404", models.StatusClosed)
	assert.True(t, database.IsNotFound(err))
}

func TestTicketRepositoryListOrderAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketRepository(db, ticketnumber.NewMaxScan(ticketnumber.DefaultConfig()))
	ctx := context.Background()

	for _, site := range []string{"Norte", "Sur", "Norte"} {
		ticket := &models.Ticket{
			Issue:     "issue",
			Priority:  models.PriorityMedium,
			Submitter: "user",
			Site:      site,
		}
		require.NoError(t, repo.Create(ctx, ticket))
	}
	// Archive the middle one through its type field.
	require.NoError(t, repo.UpdateType(ctx, "TICKET-1002", models.ArchivedType))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "TICKET-1003", all[0].ID, "most recent ID first")

	active, err := repo.List(ctx, ListFilter{ExcludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	norte, err := repo.List(ctx, ListFilter{Site: "Norte"})
	require.NoError(t, err)
	assert.Len(t, norte, 2)
}
