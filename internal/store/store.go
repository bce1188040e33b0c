// Package store persists the subscriber registry. Two backends share one
// interface: SQLite for single-file deployments, Postgres when DATABASE_URL
// points somewhere.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

// Subscriber is one registry row. Inactive rows are kept so re-subscribing
// preserves the original subscribed_at.
type Subscriber struct {
	UserID       int64
	Username     string
	FirstName    string
	SubscribedAt time.Time
	Active       bool
}

// Store is the persistence API the distribution and command layers use.
type Store interface {
	// Connect opens the backend and ensures the schema exists.
	Connect(ctx context.Context) error
	// Add inserts or reactivates a subscriber. Identity fields are
	// refreshed on conflict; subscribed_at is preserved.
	Add(ctx context.Context, sub Subscriber) error
	// Remove marks a subscriber inactive. Unknown IDs are a no-op.
	Remove(ctx context.Context, userID int64) error
	// Active returns the IDs of all active subscribers.
	Active(ctx context.Context) ([]int64, error)
	// Count returns the number of active subscribers.
	Count(ctx context.Context) (int, error)
	// All returns every row, active or not, for operator inspection.
	All(ctx context.Context) ([]Subscriber, error)
	Close() error
}

// Config selects and configures a backend.
//
// Driver values:
//   - "sqlite": database file at Path
//   - "postgres": connection string in URL
//
// Empty Driver picks postgres when URL is set, sqlite otherwise.
type Config struct {
	Driver string
	Path   string // sqlite file path
	URL    string // postgres connection string
}

// Open builds the configured store. The returned store is not yet
// connected; call Connect before use.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		if strings.TrimSpace(cfg.URL) != "" {
			driver = "postgres"
		} else {
			driver = "sqlite"
		}
	}

	switch driver {
	case "sqlite", "sqlite3":
		return newSQLite(cfg.Path, log)
	case "postgres", "postgresql":
		return newPostgres(cfg.URL, log)
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}
}
