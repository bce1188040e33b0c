package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	logx "github.com/limzerui/teleNewsBot/pkg/logx"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS subscribers (
    user_id       BIGINT PRIMARY KEY,
    username      TEXT,
    first_name    TEXT,
    subscribed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    active        BOOLEAN DEFAULT TRUE
)`

type postgresStore struct {
	url string
	log logx.Logger
	db  *sql.DB
	sb  sq.StatementBuilderType
}

func newPostgres(url string, log logx.Logger) (Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("postgres url is required")
	}
	return &postgresStore{
		url: url,
		log: log,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *postgresStore) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", s.url)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.log.Info("subscriber store ready", logx.String("driver", "postgres"))
	return nil
}

func (s *postgresStore) Add(ctx context.Context, sub Subscriber) error {
	at := sub.SubscribedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	query, args, err := s.sb.
		Insert("subscribers").
		Columns("user_id", "username", "first_name", "subscribed_at", "active").
		Values(sub.UserID, sub.Username, sub.FirstName, at, true).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			active = TRUE`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *postgresStore) Remove(ctx context.Context, userID int64) error {
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

func (s *postgresStore) Active(ctx context.Context) ([]int64, error) {
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

func (s *postgresStore) Count(ctx context.Context) (int, error) {
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

func (s *postgresStore) All(ctx context.Context) ([]Subscriber, error) {
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

func (s *postgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
