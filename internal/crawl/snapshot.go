package crawl

import (
	"context"
	"errors"
	"time"

	"github.com/agentworkforce/notionsync/internal/notion"
	"github.com/agentworkforce/notionsync/internal/oauth"
)

var (
	ErrNoGrant      = errors.New("no grant for user")
	ErrGrantExpired = errors.New("grant expired")
)

type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncPartial SyncStatus = "partial"
	SyncFailed  SyncStatus = "failed"
)

// DatabaseExport pairs a database schema with its fully materialized rows.
type DatabaseExport struct {
	Database notion.Database `json:"database"`
	Rows     []notion.Row    `json:"rows"`
}

// Snapshot is the immutable result of one workspace crawl. A new crawl
// replaces the previous snapshot for the same user wholesale.
type Snapshot struct {
	UserID        string           `json:"user_id"`
	WorkspaceID   string           `json:"workspace_id"`
	WorkspaceName string           `json:"workspace_name"`
	WorkspaceIcon string           `json:"workspace_icon,omitempty"`
	Databases     []DatabaseExport `json:"databases"`
	Pages         []notion.Page    `json:"pages"`
	SyncedAt      time.Time        `json:"synced_at"`
	SyncStatus    SyncStatus       `json:"sync_status"`
}

// TokenStore is the grant persistence collaborator, keyed by user id. It
// must be safe under concurrent access from multiple crawls.
type TokenStore interface {
	Save(ctx context.Context, userID string, grant oauth.Grant) error
	Get(ctx context.Context, userID string) (oauth.Grant, error)
	Delete(ctx context.Context, userID string) error
}

// SnapshotStore is the snapshot persistence collaborator.
type SnapshotStore interface {
	Store(ctx context.Context, userID string, snapshot Snapshot) error
	Get(ctx context.Context, userID string) (Snapshot, error)
	Remove(ctx context.Context, userID string) error
}
