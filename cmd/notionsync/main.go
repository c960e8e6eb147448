package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agentworkforce/notionsync/internal/config"
	"github.com/agentworkforce/notionsync/internal/crawl"
	"github.com/agentworkforce/notionsync/internal/httpapi"
	"github.com/agentworkforce/notionsync/internal/notion"
	"github.com/agentworkforce/notionsync/internal/oauth"
	"github.com/agentworkforce/notionsync/internal/store"
)

func main() {
	addr := os.Getenv("NOTIONSYNC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	credentials, closeCredentials, err := buildCredentialsFromEnv()
	if err != nil {
		log.Fatalf("failed to load client credentials: %v", err)
	}
	defer closeCredentials()

	tokens, snapshots, err := buildStoresFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize stores: %v", err)
	}

	client := notion.NewClient(notion.ClientOptions{
		BaseURL:    os.Getenv("NOTIONSYNC_API_BASE_URL"),
		APIVersion: os.Getenv("NOTIONSYNC_API_VERSION"),
		UserAgent:  "notionsync/1.0",
		PageSize:   intEnv("NOTIONSYNC_PAGE_SIZE", 0),
		MaxRetries: intEnv("NOTIONSYNC_MAX_RETRIES", 0),
	})
	manager := oauth.NewManager(oauth.ManagerOptions{
		Credentials:  credentials,
		AuthorizeURL: os.Getenv("NOTIONSYNC_AUTHORIZE_URL"),
		TokenURL:     os.Getenv("NOTIONSYNC_TOKEN_URL"),
		Owner:        strings.TrimSpace(os.Getenv("NOTIONSYNC_OWNER")),
	})
	broker := crawl.NewBroker()
	crawler := crawl.NewCrawler(crawl.CrawlerOptions{
		API:         client,
		Tokens:      tokens,
		Snapshots:   snapshots,
		Concurrency: intEnv("NOTIONSYNC_CRAWL_CONCURRENCY", 0),
		Broker:      broker,
	})

	server := httpapi.NewServer(httpapi.Dependencies{
		OAuth:     manager,
		States:    oauth.NewStateRegistry(durationEnv("NOTIONSYNC_STATE_TTL", 0)),
		Tokens:    tokens,
		Snapshots: snapshots,
		Crawler:   crawler,
		Querier:   client,
		Broker:    broker,
	}, httpapi.Config{
		JWTSecret:      os.Getenv("NOTIONSYNC_JWT_SECRET"),
		SessionTTL:     durationEnv("NOTIONSYNC_SESSION_TTL", 0),
		RedirectURI:    strings.TrimSpace(os.Getenv("NOTIONSYNC_REDIRECT_URI")),
		AllowedOrigins: splitEnv("NOTIONSYNC_ALLOWED_ORIGINS"),
		MaxBodyBytes:   int64Env("NOTIONSYNC_MAX_BODY_BYTES", 0),
	})

	log.Printf("notionsync listening on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildCredentialsFromEnv() (oauth.CredentialsFunc, func(), error) {
	if path := strings.TrimSpace(os.Getenv("NOTIONSYNC_CREDENTIALS_FILE")); path != "" {
		watcher, err := config.NewCredentialsWatcher(path, log.Default())
		if err != nil {
			return nil, nil, err
		}
		provider := func() (string, string) {
			creds := watcher.Current()
			return creds.ClientID, creds.ClientSecret
		}
		return provider, func() { _ = watcher.Close() }, nil
	}
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return nil, nil, err
	}
	provider := func() (string, string) {
		return creds.ClientID, creds.ClientSecret
	}
	return provider, func() {}, nil
}

func buildStoresFromEnv() (crawl.TokenStore, crawl.SnapshotStore, error) {
	dsn := strings.TrimSpace(os.Getenv("NOTIONSYNC_DATABASE_DSN"))
	if dsn == "" {
		return store.NewMemoryTokens(), store.NewMemorySnapshots(), nil
	}
	tokens, err := store.NewPostgresTokens(dsn)
	if err != nil {
		return nil, nil, err
	}
	snapshots, err := store.NewPostgresSnapshots(dsn)
	if err != nil {
		return nil, nil, err
	}
	return tokens, snapshots, nil
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func int64Env(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}

func splitEnv(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
