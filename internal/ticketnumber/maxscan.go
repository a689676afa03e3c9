package ticketnumber

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MaxScan allocates the next ID by scanning the highest existing numeric
// suffix and incrementing it.
//
// Known limitation, kept on purpose: the scan and the subsequent insert are
// not serialized, so two concurrent creators can compute the same suffix.
// The deployed system behaves this way and downstream data (gaps, manual
// inserts) depends on the scan semantics, so it is documented here rather
// than silently replaced with a counter table.
type MaxScan struct {
	cfg Config
}

// NewMaxScan creates a max-scan generator.
func NewMaxScan(cfg Config) *MaxScan {
	if cfg.Prefix == "" {
		cfg = DefaultConfig()
	}
	return &MaxScan{cfg: cfg}
}

func (g *MaxScan) Name() string { return "MaxScan" }

// Next returns Prefix + (max existing suffix + 1), starting from Base when no
// ticket matches the prefix. Malformed suffixes are ignored by the CAST.
func (g *MaxScan) Next(ctx context.Context, db sqlx.QueryerContext) (string, error) {
	query := `SELECT COALESCE(MAX(CAST(substr(id, ?) AS INTEGER)), ?) FROM tickets WHERE id LIKE ?`
	var last int64
	row := db.QueryRowxContext(ctx, query, len(g.cfg.Prefix)+1, g.cfg.Base, g.cfg.Prefix+"%")
	if err := row.Scan(&last); err != nil {
		return "", fmt.Errorf("ticket number scan: %w", err)
	}
	return fmt.Sprintf("%s%d", g.cfg.Prefix, last+1), nil
}
