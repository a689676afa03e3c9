// Package ticketnumber allocates ticket identifiers.
package ticketnumber

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Generator defines the contract for ticket ID generators.
type Generator interface {
	Name() string
	Next(ctx context.Context, db sqlx.QueryerContext) (string, error)
}

// Config needed by generators.
type Config struct {
	// Prefix precedes the numeric suffix, e.g. "TICKET-".
	Prefix string
	// Base is the counter value an empty table starts from; the first
	// allocated suffix is Base+1.
	Base int64
}

// DefaultConfig matches the numbering scheme of the existing data.
func DefaultConfig() Config {
	return Config{Prefix: "TICKET-", Base: 1000}
}
