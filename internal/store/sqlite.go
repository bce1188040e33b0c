package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subscribers (
    user_id       INTEGER PRIMARY KEY,
    username      TEXT,
    first_name    TEXT,
    subscribed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    active        BOOLEAN DEFAULT TRUE
)`

type sqliteStore struct {
	path string
	log  logx.Logger
	db   *sql.DB
	sb   sq.StatementBuilderType
}

func newSQLite(path string, log logx.Logger) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	return &sqliteStore{
		path: path,
		log:  log,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func (s *sqliteStore) Connect(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.log.Info("subscriber store ready", logx.String("driver", "sqlite"), logx.String("path", s.path))
	return nil
}

func (s *sqliteStore) Add(ctx context.Context, sub Subscriber) error {
	at := sub.SubscribedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	query, args, err := s.sb.
		Insert("subscribers").
		Columns("user_id", "username", "first_name", "subscribed_at", "active").
		Values(sub.UserID, sub.Username, sub.FirstName, at, true).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			active = TRUE`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *sqliteStore) Remove(ctx context.Context, userID int64) error {
	query, args, err := s.sb.
		Update("subscribers").
		Set("active", false).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *sqliteStore) Active(ctx context.Context) ([]int64, error) {
	query, args, err := s.sb.
		Select("user_id").
		From("subscribers").
		Where(sq.Eq{"active": true}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	query, args, err := s.sb.
		Select("COUNT(*)").
		From("subscribers").
		Where(sq.Eq{"active": true}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *sqliteStore) All(ctx context.Context) ([]Subscriber, error) {
	query, args, err := s.sb.
		Select("user_id", "username", "first_name", "subscribed_at", "active").
		From("subscribers").
		OrderBy("subscribed_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var (
			sub      Subscriber
			username sql.NullString
			first    sql.NullString
		)
		if err := rows.Scan(&sub.UserID, &username, &first, &sub.SubscribedAt, &sub.Active); err != nil {
			return nil, err
		}
		sub.Username = username.String
		sub.FirstName = first.String
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
