package repository

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/database/schema"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.ConnectMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Migrate(db))
	return db
}

// fixedClock pins repository timestamps so legacy date strings are stable.
func fixedClock(value string) func() time.Time {
	t, err := time.ParseInLocation("02-01-2006 15:04", value, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
