package crawl

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentworkforce/notionsync/internal/notion"
)

// WorkspaceAPI is the slice of the remote client the crawler drives.
// *notion.Client satisfies it.
type WorkspaceAPI interface {
	ListDatabases(ctx context.Context, token string) ([]notion.Database, error)
	SearchPages(ctx context.Context, token string) ([]notion.Page, error)
	QueryDatabaseAll(ctx context.Context, token, databaseID string, query *notion.DatabaseQuery) ([]notion.Row, error)
	BlockChildren(ctx context.Context, token, blockID string) ([]notion.Block, error)
}

var _ WorkspaceAPI = (*notion.Client)(nil)

type CrawlerOptions struct {
	API       WorkspaceAPI
	Tokens    TokenStore
	Snapshots SnapshotStore
	// Concurrency bounds in-flight per-database and per-page sub-tasks.
	Concurrency int
	Broker      *Broker
	Logger      *log.Logger
}

// Crawler materializes a user's whole workspace into a snapshot. Sub-tasks
// fan out concurrently; the first failure cancels the siblings and fails the
// crawl without touching the snapshot store.
type Crawler struct {
	api         WorkspaceAPI
	tokens      TokenStore
	snapshots   SnapshotStore
	concurrency int
	broker      *Broker
	logger      *log.Logger
	now         func() time.Time
}

func NewCrawler(opts CrawlerOptions) *Crawler {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Crawler{
		api:         opts.API,
		tokens:      opts.Tokens,
		snapshots:   opts.Snapshots,
		concurrency: concurrency,
		broker:      opts.Broker,
		logger:      logger,
		now:         time.Now,
	}
}

func (c *Crawler) publish(event Event) {
	if c.broker != nil {
		c.broker.Publish(event)
	}
}

// Crawl fetches the user's grant, fails fast if it is absent or expired,
// then concurrently queries every database's rows and every page's top-level
// blocks before assembling them into a fresh snapshot. The snapshot is
// persisted and returned only when every sub-task succeeded.
func (c *Crawler) Crawl(ctx context.Context, userID string) (Snapshot, error) {
	grant, err := c.tokens.Get(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrNoGrant, err)
	}
	if grant.Expired(c.now()) {
		return Snapshot{}, ErrGrantExpired
	}
	c.publish(Event{UserID: userID, Stage: StageStarted})

	token := grant.AccessToken
	databases, err := c.api.ListDatabases(ctx, token)
	if err != nil {
		c.publish(Event{UserID: userID, Stage: StageFailed, Error: err.Error()})
		return Snapshot{}, fmt.Errorf("list databases: %w", err)
	}
	c.publish(Event{UserID: userID, Stage: StageDatabases})

	pages, err := c.api.SearchPages(ctx, token)
	if err != nil {
		c.publish(Event{UserID: userID, Stage: StageFailed, Error: err.Error()})
		return Snapshot{}, fmt.Errorf("search pages: %w", err)
	}
	c.publish(Event{UserID: userID, Stage: StagePages})

	exports := make([]DatabaseExport, len(databases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range databases {
		i := i
		g.Go(func() error {
			rows, err := c.api.QueryDatabaseAll(gctx, token, databases[i].ID, nil)
			if err != nil {
				return fmt.Errorf("query database %s: %w", databases[i].ID, err)
			}
			exports[i] = DatabaseExport{Database: databases[i], Rows: rows}
			c.publish(Event{UserID: userID, Stage: StageDatabase, ObjectID: databases[i].ID})
			return nil
		})
	}
	for i := range pages {
		i := i
		g.Go(func() error {
			blocks, err := c.api.BlockChildren(gctx, token, pages[i].ID)
			if err != nil {
				return fmt.Errorf("fetch blocks for page %s: %w", pages[i].ID, err)
			}
			pages[i].Blocks = blocks
			c.publish(Event{UserID: userID, Stage: StagePage, ObjectID: pages[i].ID})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.publish(Event{UserID: userID, Stage: StageFailed, Error: err.Error()})
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		UserID:        userID,
		WorkspaceID:   grant.WorkspaceID,
		WorkspaceName: grant.WorkspaceName,
		WorkspaceIcon: grant.WorkspaceIcon,
		Databases:     exports,
		Pages:         pages,
		SyncedAt:      c.now().UTC(),
		SyncStatus:    SyncSuccess,
	}
	if err := c.snapshots.Store(ctx, userID, snapshot); err != nil {
		c.publish(Event{UserID: userID, Stage: StageFailed, Error: err.Error()})
		return Snapshot{}, fmt.Errorf("store snapshot: %w", err)
	}
	c.logger.Printf("crawl complete for user %s: %d databases, %d pages", userID, len(exports), len(pages))
	c.publish(Event{UserID: userID, Stage: StageDone})
	return snapshot, nil
}
