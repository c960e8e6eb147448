// Package store provides the token and snapshot persistence collaborators:
// in-memory implementations for single-process deployments and tests, and
// postgres implementations selected by DSN at startup.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/agentworkforce/notionsync/internal/crawl"
	"github.com/agentworkforce/notionsync/internal/oauth"
)

var ErrNotFound = errors.New("not found")

// MemoryTokens keeps grants in process memory, keyed by user id. Safe for
// concurrent crawls across users.
type MemoryTokens struct {
	mu     sync.RWMutex
	grants map[string]oauth.Grant
}

var _ crawl.TokenStore = (*MemoryTokens)(nil)

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{grants: map[string]oauth.Grant{}}
}

func (m *MemoryTokens) Save(ctx context.Context, userID string, grant oauth.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[userID] = grant
	return nil
}

func (m *MemoryTokens) Get(ctx context.Context, userID string) (oauth.Grant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	grant, ok := m.grants[userID]
	if !ok {
		return oauth.Grant{}, ErrNotFound
	}
	return grant, nil
}

func (m *MemoryTokens) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, userID)
	return nil
}

// MemorySnapshots keeps the latest snapshot per user; Store replaces the
// previous snapshot wholesale.
type MemorySnapshots struct {
	mu        sync.RWMutex
	snapshots map[string]crawl.Snapshot
}

var _ crawl.SnapshotStore = (*MemorySnapshots)(nil)

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{snapshots: map[string]crawl.Snapshot{}}
}

func (m *MemorySnapshots) Store(ctx context.Context, userID string, snapshot crawl.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[userID] = snapshot
	return nil
}

func (m *MemorySnapshots) Get(ctx context.Context, userID string) (crawl.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.snapshots[userID]
	if !ok {
		return crawl.Snapshot{}, ErrNotFound
	}
	return snapshot, nil
}

func (m *MemorySnapshots) Remove(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, userID)
	return nil
}
