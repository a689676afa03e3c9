// Package metrics computes the derived reporting numbers: response and
// resolution averages over the legacy text dates, and business-day ticket
// age.
package metrics

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rickar/cal/v2"
)

// Service runs the read-only aggregate queries.
type Service struct {
	db       *sqlx.DB
	calendar *cal.BusinessCalendar
	now      func() time.Time
}

// NewService creates a metrics service. The business calendar counts plain
// Mon-Fri weekdays; no holiday calendar is configured, matching how ticket
// age has always been reported.
func NewService(db *sqlx.DB) *Service {
	return &Service{
		db:       db,
		calendar: cal.NewBusinessCalendar(),
		now:      time.Now,
	}
}

// SetClock overrides the time source, used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// The date columns hold DD-MM-YYYY text, so the queries reassemble an ISO
// string with substr() before julianday() can diff them. Changing the stored
// format breaks these queries; the format is pinned in the models package.

const firstResponseQuery = `
SELECT
    (julianday(
        MIN(substr(h.fecha, 7, 4) || '-' || substr(h.fecha, 4, 2) || '-' || substr(h.fecha, 1, 2))
    ) -
    julianday(
        substr(t.date_submitted, 7, 4) || '-' || substr(t.date_submitted, 4, 2) || '-' || substr(t.date_submitted, 1, 2)
    )) * 24.0 AS horas
FROM tickets t
JOIN historial h ON t.id = h.ticket_id
WHERE h.comentario IS NOT NULL
GROUP BY t.id`

const resolutionQuery = `
SELECT
    (julianday(
        MAX(substr(h.fecha, 7, 4) || '-' || substr(h.fecha, 4, 2) || '-' || substr(h.fecha, 1, 2))
    ) -
    julianday(
        substr(t.date_submitted, 7, 4) || '-' || substr(t.date_submitted, 4, 2) || '-' || substr(t.date_submitted, 1, 2)
    )) * 24.0 AS horas
FROM tickets t
JOIN historial h ON t.id = h.ticket_id
WHERE h.comentario IS NOT NULL
  AND t.status = 'Cerrado'
GROUP BY t.id`

// AverageFirstResponseHours averages, per ticket with at least one comment,
// the hours between submission and the earliest history entry. ok is false
// when no ticket qualifies; that is not an error and not a zero.
func (s *Service) AverageFirstResponseHours(ctx context.Context) (float64, bool, error) {
	return s.averageHours(ctx, firstResponseQuery)
}

// AverageResolutionHours averages, per Cerrado ticket with comments, the
// hours between submission and the latest history entry.
func (s *Service) AverageResolutionHours(ctx context.Context) (float64, bool, error) {
	return s.averageHours(ctx, resolutionQuery)
}

func (s *Service) averageHours(ctx context.Context, query string) (float64, bool, error) {
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	var sum float64
	var n int
	for rows.Next() {
		var hours sql.NullFloat64
		if err := rows.Scan(&hours); err != nil {
			return 0, false, err
		}
		if !hours.Valid {
			continue
		}
		sum += hours.Float64
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return round2(sum / float64(n)), true, nil
}

// BusinessDaysElapsed counts the Mon-Fri days from submission through today
// inclusive. A same-day weekday ticket has age 1; weekend submissions start
// at 0 until Monday. This is a calendar walk, not business-hours accounting.
func (s *Service) BusinessDaysElapsed(submitted time.Time) int {
	today := s.now()
	days := 0
	for d := submitted; !d.After(today) || sameDay(d, today); d = d.AddDate(0, 0, 1) {
		if s.calendar.IsWorkday(d) {
			days++
		}
		if sameDay(d, today) {
			break
		}
	}
	return days
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
