package demohost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/showhidden/internal/capability"
)

// ErrChannelNotFound is returned when no channel has the requested ID.
var ErrChannelNotFound = errors.New("channel not found")

// Channel is one row of the simulated host's channel table. Permissions is
// the viewer's raw bitmask for the channel.
type Channel struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Topic       string             `yaml:"topic"`
	Kind        string             `yaml:"kind"`
	Position    int                `yaml:"position"`
	OptIn       bool               `yaml:"opt_in"`
	Permissions capability.Bitmask `yaml:"permissions"`
}

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	topic       TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL DEFAULT 'text',
	position    INTEGER NOT NULL DEFAULT 0,
	opt_in      INTEGER NOT NULL DEFAULT 0,
	permissions INTEGER NOT NULL DEFAULT 0
);`

// Store is the host's channel data store. It lives in memory only and is
// gone when closed.
type Store struct {
	sqlDB *sql.DB
}

// OpenStore opens an empty in-memory store.
func OpenStore() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutChannel inserts or replaces one channel.
func (s *Store) PutChannel(ctx context.Context, ch Channel) error {
	id := strings.TrimSpace(ch.ID)
	if id == "" {
		return fmt.Errorf("channel id is required")
	}
	kind := ch.Kind
	if kind == "" {
		kind = "text"
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO channels (id, name, topic, kind, position, opt_in, permissions)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	topic = excluded.topic,
	kind = excluded.kind,
	position = excluded.position,
	opt_in = excluded.opt_in,
	permissions = excluded.permissions`,
		id, ch.Name, ch.Topic, kind, ch.Position, ch.OptIn, int64(ch.Permissions))
	if err != nil {
		return fmt.Errorf("put channel %s: %w", id, err)
	}
	return nil
}

// GetChannel loads one channel by ID.
func (s *Store) GetChannel(ctx context.Context, id string) (Channel, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, topic, kind, position, opt_in, permissions
FROM channels WHERE id = ?`, id)
	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Channel{}, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
	}
	if err != nil {
		return Channel{}, fmt.Errorf("get channel %s: %w", id, err)
	}
	return ch, nil
}

// ListChannels returns every channel ordered by position, then by the
// order the channels were first stored in.
func (s *Store) ListChannels(ctx context.Context) ([]Channel, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, topic, kind, position, opt_in, permissions
FROM channels ORDER BY position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (Channel, error) {
	var ch Channel
	var perms int64
	if err := row.Scan(&ch.ID, &ch.Name, &ch.Topic, &ch.Kind, &ch.Position, &ch.OptIn, &perms); err != nil {
		return Channel{}, err
	}
	ch.Permissions = capability.Bitmask(perms)
	return ch, nil
}
