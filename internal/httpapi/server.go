// Package httpapi is the thin HTTP surface over the OAuth manager, the
// crawler and the stores: authorization redirect and callback, crawl
// trigger, snapshot retrieval, database query passthrough and a progress
// event stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/agentworkforce/notionsync/internal/crawl"
	"github.com/agentworkforce/notionsync/internal/notion"
	"github.com/agentworkforce/notionsync/internal/oauth"
	"github.com/agentworkforce/notionsync/internal/store"
)

// DatabaseQuerier runs one page of a database query. *notion.Client
// satisfies it.
type DatabaseQuerier interface {
	QueryDatabase(ctx context.Context, token, databaseID string, query *notion.DatabaseQuery) (notion.Envelope[notion.Row], error)
}

type Config struct {
	JWTSecret      string
	SessionTTL     time.Duration
	RedirectURI    string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Dependencies struct {
	OAuth     *oauth.Manager
	States    *oauth.StateRegistry
	Tokens    crawl.TokenStore
	Snapshots crawl.SnapshotStore
	Crawler   *crawl.Crawler
	Querier   DatabaseQuerier
	Broker    *crawl.Broker
	Logger    *log.Logger
}

type Server struct {
	deps     Dependencies
	cfg      Config
	sessions *SessionService
	router   chi.Router
	logger   *log.Logger
}

func NewServer(deps Dependencies, cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		deps:     deps,
		cfg:      cfg,
		sessions: NewSessionService(cfg.JWTSecret, cfg.SessionTTL),
		logger:   logger,
	}

	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/v1/auth/authorize", s.handleAuthorize)
	r.Get("/v1/auth/callback", s.handleCallback)

	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/sync", s.handleSync)
		r.Get("/sync/events", s.handleSyncEvents)
		r.Get("/snapshot", s.handleGetSnapshot)
		r.Delete("/token", s.handleDisconnect)
		r.Post("/databases/{databaseID}/query", s.handleQueryDatabase)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	redirectURI := s.cfg.RedirectURI
	if redirectURI == "" {
		writeError(w, http.StatusInternalServerError, "misconfigured", "redirect URI is not configured")
		return
	}
	state := s.deps.States.Issue()
	http.Redirect(w, r, s.deps.OAuth.AuthorizeURL(redirectURI, state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if remoteErr := query.Get("error"); remoteErr != "" {
		writeError(w, http.StatusBadRequest, "authorization_denied", remoteErr)
		return
	}
	// The state check gates everything: no exchange happens for a state we
	// did not issue for a pending attempt.
	if err := s.deps.States.Verify(query.Get("state")); err != nil {
		writeError(w, http.StatusForbidden, "state_mismatch", "authorization state mismatch")
		return
	}
	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing_code", "authorization code missing")
		return
	}

	grant, err := s.deps.OAuth.ExchangeCode(r.Context(), code, s.cfg.RedirectURI)
	if err != nil {
		var exchangeErr *oauth.ExchangeError
		if errors.As(err, &exchangeErr) {
			writeError(w, http.StatusBadGateway, exchangeErr.Code, exchangeErr.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "exchange_failed", err.Error())
		return
	}

	userID := grant.BotID
	if err := s.deps.Tokens.Save(r.Context(), userID, grant); err != nil {
		writeError(w, http.StatusInternalServerError, "token_save_failed", err.Error())
		return
	}
	session, err := s.sessions.Issue(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":        userID,
		"workspace_id":   grant.WorkspaceID,
		"workspace_name": grant.WorkspaceName,
		"session_token":  session,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	snapshot, err := s.deps.Crawler.Crawl(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, crawl.ErrNoGrant):
			writeError(w, http.StatusUnauthorized, "no_grant", "workspace is not connected")
		case errors.Is(err, crawl.ErrGrantExpired):
			writeError(w, http.StatusUnauthorized, "grant_expired", "workspace authorization expired")
		default:
			writeError(w, http.StatusBadGateway, "crawl_failed", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     snapshot.UserID,
		"sync_status": snapshot.SyncStatus,
		"synced_at":   snapshot.SyncedAt,
		"databases":   len(snapshot.Databases),
		"pages":       len(snapshot.Pages),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	snapshot, err := s.deps.Snapshots.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no snapshot for user")
			return
		}
		writeError(w, http.StatusInternalServerError, "snapshot_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.deps.Tokens.Delete(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "delete_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handleQueryDatabase(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	databaseID := chi.URLParam(r, "databaseID")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds limit")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := ValidateQueryRequest(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	var query notion.DatabaseQuery
	if err := json.Unmarshal(body, &query); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	grant, err := s.deps.Tokens.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no_grant", "workspace is not connected")
		return
	}
	if grant.Expired(time.Now()) {
		writeError(w, http.StatusUnauthorized, "grant_expired", "workspace authorization expired")
		return
	}

	envelope, err := s.deps.Querier.QueryDatabase(r.Context(), grant.AccessToken, databaseID, &query)
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}

func writeRemoteError(w http.ResponseWriter, err error) {
	var apiErr *notion.APIError
	if errors.As(err, &apiErr) {
		writeError(w, http.StatusBadGateway, apiErr.Code, apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "remote_failed", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
