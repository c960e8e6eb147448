package crawl

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentworkforce/notionsync/internal/notion"
	"github.com/agentworkforce/notionsync/internal/oauth"
)

type fakeAPI struct {
	mu sync.Mutex

	databases []notion.Database
	pages     []notion.Page
	rows      map[string][]notion.Row
	blocks    map[string][]notion.Block

	listErr   error
	searchErr error
	queryErr  map[string]error
	blocksErr map[string]error

	listCalls   int
	searchCalls int
	queryCalls  int
	blockCalls  int
}

func (f *fakeAPI) ListDatabases(ctx context.Context, token string) ([]notion.Database, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	return f.databases, f.listErr
}

func (f *fakeAPI) SearchPages(ctx context.Context, token string) ([]notion.Page, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	return f.pages, f.searchErr
}

func (f *fakeAPI) QueryDatabaseAll(ctx context.Context, token, databaseID string, query *notion.DatabaseQuery) ([]notion.Row, error) {
	f.mu.Lock()
	f.queryCalls++
	f.mu.Unlock()
	if err := f.queryErr[databaseID]; err != nil {
		return nil, err
	}
	return f.rows[databaseID], nil
}

func (f *fakeAPI) BlockChildren(ctx context.Context, token, blockID string) ([]notion.Block, error) {
	f.mu.Lock()
	f.blockCalls++
	f.mu.Unlock()
	if err := f.blocksErr[blockID]; err != nil {
		return nil, err
	}
	return f.blocks[blockID], nil
}

type fakeTokens struct {
	grants map[string]oauth.Grant
}

func (f *fakeTokens) Save(ctx context.Context, userID string, grant oauth.Grant) error {
	f.grants[userID] = grant
	return nil
}

func (f *fakeTokens) Get(ctx context.Context, userID string) (oauth.Grant, error) {
	grant, ok := f.grants[userID]
	if !ok {
		return oauth.Grant{}, errors.New("not found")
	}
	return grant, nil
}

func (f *fakeTokens) Delete(ctx context.Context, userID string) error {
	delete(f.grants, userID)
	return nil
}

type fakeSnapshots struct {
	mu         sync.Mutex
	storeCalls int
	storeErr   error
	stored     map[string]Snapshot
}

func (f *fakeSnapshots) Store(ctx context.Context, userID string, snapshot Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeCalls++
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.stored == nil {
		f.stored = map[string]Snapshot{}
	}
	f.stored[userID] = snapshot
	return nil
}

func (f *fakeSnapshots) Get(ctx context.Context, userID string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.stored[userID]
	if !ok {
		return Snapshot{}, errors.New("not found")
	}
	return snapshot, nil
}

func (f *fakeSnapshots) Remove(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, userID)
	return nil
}

func grantFor(userID string) oauth.Grant {
	return oauth.Grant{
		AccessToken:   "tok-" + userID,
		BotID:         userID,
		WorkspaceID:   "ws-1",
		WorkspaceName: "Acme",
	}
}

func TestCrawlAssemblesSnapshot(t *testing.T) {
	api := &fakeAPI{
		databases: []notion.Database{{ID: "db-1"}, {ID: "db-2"}},
		pages:     []notion.Page{{ID: "pg-1"}},
		rows: map[string][]notion.Row{
			"db-1": {{ID: "row-1"}, {ID: "row-2"}},
			"db-2": {{ID: "row-3"}},
		},
		blocks: map[string][]notion.Block{
			"pg-1": {{ID: "blk-1", Type: notion.BlockParagraph}},
		},
	}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grantFor("u1")}}
	snapshots := &fakeSnapshots{}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: snapshots})

	snapshot, err := crawler.Crawl(context.Background(), "u1")
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}
	if snapshot.WorkspaceID != "ws-1" || snapshot.WorkspaceName != "Acme" {
		t.Fatalf("workspace identity not carried over: %+v", snapshot)
	}
	if snapshot.SyncStatus != SyncSuccess {
		t.Fatalf("expected success status, got %q", snapshot.SyncStatus)
	}
	if len(snapshot.Databases) != 2 || len(snapshot.Databases[0].Rows) != 2 {
		t.Fatalf("database exports wrong: %+v", snapshot.Databases)
	}
	if len(snapshot.Pages) != 1 || len(snapshot.Pages[0].Blocks) != 1 {
		t.Fatalf("page blocks not attached: %+v", snapshot.Pages)
	}
	if snapshot.SyncedAt.IsZero() || snapshot.SyncedAt.Location() != time.UTC {
		t.Fatalf("synced_at not normalized: %v", snapshot.SyncedAt)
	}
	if snapshots.storeCalls != 1 {
		t.Fatalf("expected exactly one store call, got %d", snapshots.storeCalls)
	}
	stored, err := snapshots.Get(context.Background(), "u1")
	if err != nil || stored.UserID != "u1" {
		t.Fatalf("stored snapshot missing: %v %+v", err, stored)
	}
}

func TestCrawlFailsWithoutGrant(t *testing.T) {
	api := &fakeAPI{}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{}}
	snapshots := &fakeSnapshots{}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: snapshots})

	_, err := crawler.Crawl(context.Background(), "ghost")
	if !errors.Is(err, ErrNoGrant) {
		t.Fatalf("expected ErrNoGrant, got %v", err)
	}
	if api.listCalls != 0 || api.searchCalls != 0 {
		t.Fatalf("no API traffic expected without a grant")
	}
}

func TestCrawlFailsOnExpiredGrant(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	grant := grantFor("u1")
	grant.ExpiresAt = &expired
	api := &fakeAPI{}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grant}}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: &fakeSnapshots{}})

	_, err := crawler.Crawl(context.Background(), "u1")
	if !errors.Is(err, ErrGrantExpired) {
		t.Fatalf("expected ErrGrantExpired, got %v", err)
	}
	if api.listCalls != 0 {
		t.Fatalf("no API traffic expected for expired grant")
	}
}

func TestCrawlOneDatabaseFailureFailsTheWholeCrawl(t *testing.T) {
	api := &fakeAPI{
		databases: []notion.Database{{ID: "db-1"}, {ID: "db-2"}, {ID: "db-3"}},
		rows: map[string][]notion.Row{
			"db-1": {{ID: "row-1"}},
			"db-3": {{ID: "row-2"}},
		},
		queryErr: map[string]error{"db-2": errors.New("query refused")},
	}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grantFor("u1")}}
	snapshots := &fakeSnapshots{}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: snapshots, Concurrency: 2})

	_, err := crawler.Crawl(context.Background(), "u1")
	if err == nil || !strings.Contains(err.Error(), "db-2") {
		t.Fatalf("expected db-2 failure to surface, got %v", err)
	}
	if snapshots.storeCalls != 0 {
		t.Fatalf("failed crawl must not persist a snapshot, got %d store calls", snapshots.storeCalls)
	}
}

func TestCrawlPageFailureFailsTheWholeCrawl(t *testing.T) {
	api := &fakeAPI{
		pages:     []notion.Page{{ID: "pg-1"}, {ID: "pg-2"}},
		blocks:    map[string][]notion.Block{"pg-1": {}},
		blocksErr: map[string]error{"pg-2": errors.New("blocks unavailable")},
	}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grantFor("u1")}}
	snapshots := &fakeSnapshots{}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: snapshots})

	_, err := crawler.Crawl(context.Background(), "u1")
	if err == nil || !strings.Contains(err.Error(), "pg-2") {
		t.Fatalf("expected pg-2 failure to surface, got %v", err)
	}
	if snapshots.storeCalls != 0 {
		t.Fatalf("failed crawl must not persist a snapshot")
	}
}

func TestCrawlListFailureStopsEarly(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("search endpoint down")}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grantFor("u1")}}
	snapshots := &fakeSnapshots{}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: snapshots})

	_, err := crawler.Crawl(context.Background(), "u1")
	if err == nil {
		t.Fatalf("expected list failure to surface")
	}
	if api.queryCalls != 0 || api.blockCalls != 0 {
		t.Fatalf("no fan-out expected after listing failed")
	}
	if snapshots.storeCalls != 0 {
		t.Fatalf("failed crawl must not persist a snapshot")
	}
}

func TestCrawlStoreFailureSurfaces(t *testing.T) {
	api := &fakeAPI{databases: []notion.Database{{ID: "db-1"}}, rows: map[string][]notion.Row{"db-1": {}}}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grantFor("u1")}}
	snapshots := &fakeSnapshots{storeErr: errors.New("disk full")}
	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: snapshots})

	_, err := crawler.Crawl(context.Background(), "u1")
	if err == nil || !strings.Contains(err.Error(), "store snapshot") {
		t.Fatalf("expected store failure to surface, got %v", err)
	}
}

func TestCrawlPublishesProgressEvents(t *testing.T) {
	api := &fakeAPI{
		databases: []notion.Database{{ID: "db-1"}},
		rows:      map[string][]notion.Row{"db-1": {}},
	}
	tokens := &fakeTokens{grants: map[string]oauth.Grant{"u1": grantFor("u1")}}
	broker := NewBroker()
	events, cancel := broker.Subscribe()
	defer cancel()

	crawler := NewCrawler(CrawlerOptions{API: api, Tokens: tokens, Snapshots: &fakeSnapshots{}, Broker: broker})
	if _, err := crawler.Crawl(context.Background(), "u1"); err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	stages := map[string]bool{}
	for {
		select {
		case event := <-events:
			stages[event.Stage] = true
			if event.Stage == StageDone {
				for _, want := range []string{StageStarted, StageDatabases, StageDatabase, StagePages, StageDone} {
					if !stages[want] {
						t.Fatalf("stage %q never published: %v", want, stages)
					}
				}
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("done event never arrived, saw %v", stages)
		}
	}
}
