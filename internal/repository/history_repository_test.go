package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAndListOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewHistoryRepository(db)
	repo.SetClock(fixedClock("20-02-2024 14:05"))
	ctx := context.Background()

	first, err := repo.Append(ctx, "TICKET-1001", "soporte1", "revisando el equipo")
	require.NoError(t, err)
	assert.Equal(t, "20-02-2024 14:05", first.Date)
	assert.Positive(t, first.ID)

	second, err := repo.Append(ctx, "TICKET-1001", "soporte1", "equipo reiniciado")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	// Another ticket's entry must not leak into the listing.
	_, err = repo.Append(ctx, "TICKET-1002", "soporte2", "otro ticket")
	require.NoError(t, err)

	entries, err := repo.ListByTicket(ctx, "TICKET-1001")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "revisando el equipo", entries[0].Comment)
	assert.Equal(t, "equipo reiniciado", entries[1].Comment)

	n, err := repo.CountByTicket(ctx, "TICKET-1001")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHistoryListEmptyTicket(t *testing.T) {
	db := newTestDB(t)
	repo := NewHistoryRepository(db)

	entries, err := repo.ListByTicket(context.Background(), "TICKET-1001")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
