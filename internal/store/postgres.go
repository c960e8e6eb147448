package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/agentworkforce/notionsync/internal/crawl"
	"github.com/agentworkforce/notionsync/internal/oauth"
)

const (
	postgresTokenTable    = "notionsync_tokens"
	postgresSnapshotTable = "notionsync_snapshots"
	postgresOpTimeout     = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// postgresConn lazily opens and migrates one table; shared by both stores so
// each can be constructed cheaply and fail on first use.
type postgresConn struct {
	dsn       string
	createDDL string
	openDB    sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func (c *postgresConn) ready() (*sql.DB, error) {
	c.initOnce.Do(func() {
		db, err := c.openDB("postgres", c.dsn)
		if err != nil {
			c.initErr = fmt.Errorf("open postgres: %w", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOpTimeout)
		defer cancel()
		if _, err := db.ExecContext(ctx, c.createDDL); err != nil {
			_ = db.Close()
			c.initErr = fmt.Errorf("ensure table: %w", err)
			return
		}
		c.db = db
	})
	return c.db, c.initErr
}

func (c *postgresConn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// PostgresTokens persists grants as JSON documents keyed by user id.
type PostgresTokens struct {
	conn *postgresConn
}

var _ crawl.TokenStore = (*PostgresTokens)(nil)

func NewPostgresTokens(dsn string) (*PostgresTokens, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id    TEXT PRIMARY KEY,
			grant_doc  JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, postgresTokenTable)
	return &PostgresTokens{conn: &postgresConn{dsn: dsn, createDDL: ddl, openDB: sql.Open}}, nil
}

func (s *PostgresTokens) Save(ctx context.Context, userID string, grant oauth.Grant) error {
	db, err := s.conn.ready()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, grant_doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET grant_doc = EXCLUDED.grant_doc, updated_at = NOW()`, postgresTokenTable)
	_, err = db.ExecContext(ctx, query, userID, string(payload))
	return err
}

func (s *PostgresTokens) Get(ctx context.Context, userID string) (oauth.Grant, error) {
	db, err := s.conn.ready()
	if err != nil {
		return oauth.Grant{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()
	query := fmt.Sprintf("SELECT grant_doc FROM %s WHERE user_id = $1", postgresTokenTable)
	var payload string
	err = db.QueryRowContext(ctx, query, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return oauth.Grant{}, ErrNotFound
	}
	if err != nil {
		return oauth.Grant{}, err
	}
	var grant oauth.Grant
	if err := json.Unmarshal([]byte(payload), &grant); err != nil {
		return oauth.Grant{}, err
	}
	return grant, nil
}

func (s *PostgresTokens) Delete(ctx context.Context, userID string) error {
	db, err := s.conn.ready()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", postgresTokenTable)
	_, err = db.ExecContext(ctx, query, userID)
	return err
}

func (s *PostgresTokens) Close() error {
	return s.conn.Close()
}

// PostgresSnapshots persists the latest snapshot per user as one JSON
// document; Store replaces the previous row via upsert.
type PostgresSnapshots struct {
	conn *postgresConn
}

var _ crawl.SnapshotStore = (*PostgresSnapshots)(nil)

func NewPostgresSnapshots(dsn string) (*PostgresSnapshots, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id      TEXT PRIMARY KEY,
			snapshot_doc JSONB NOT NULL,
			synced_at    TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, postgresSnapshotTable)
	return &PostgresSnapshots{conn: &postgresConn{dsn: dsn, createDDL: ddl, openDB: sql.Open}}, nil
}

func (s *PostgresSnapshots) Store(ctx context.Context, userID string, snapshot crawl.Snapshot) error {
	db, err := s.conn.ready()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, snapshot_doc, synced_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET snapshot_doc = EXCLUDED.snapshot_doc, synced_at = EXCLUDED.synced_at, updated_at = NOW()`,
		postgresSnapshotTable)
	_, err = db.ExecContext(ctx, query, userID, string(payload), snapshot.SyncedAt)
	return err
}

func (s *PostgresSnapshots) Get(ctx context.Context, userID string) (crawl.Snapshot, error) {
	db, err := s.conn.ready()
	if err != nil {
		return crawl.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()
	query := fmt.Sprintf("SELECT snapshot_doc FROM %s WHERE user_id = $1", postgresSnapshotTable)
	var payload string
	err = db.QueryRowContext(ctx, query, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return crawl.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return crawl.Snapshot{}, err
	}
	var snapshot crawl.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return crawl.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *PostgresSnapshots) Remove(ctx context.Context, userID string) error {
	db, err := s.conn.ready()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", postgresSnapshotTable)
	_, err = db.ExecContext(ctx, query, userID)
	return err
}

func (s *PostgresSnapshots) Close() error {
	return s.conn.Close()
}
