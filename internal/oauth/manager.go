package oauth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrStateMismatch   = errors.New("authorization state mismatch")
	ErrMissingCode     = errors.New("authorization code missing")
	ErrInvalidResponse = errors.New("invalid token endpoint response")
)

const (
	defaultAuthorizeURL = "https://api.notion.com/v1/oauth/authorize"
	defaultTokenURL     = "https://api.notion.com/v1/oauth/token"
)

// ExchangeError is the token endpoint's structured rejection, surfaced
// verbatim rather than flattened into a generic failure.
type ExchangeError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("code exchange rejected with %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// CredentialsFunc supplies the current client id and secret. Injecting a
// function instead of fixed strings lets rotated credentials take effect
// without rebuilding the manager.
type CredentialsFunc func() (clientID, clientSecret string)

type ManagerOptions struct {
	ClientID     string
	ClientSecret string
	// Credentials, when set, takes precedence over ClientID/ClientSecret.
	Credentials  CredentialsFunc
	AuthorizeURL string
	TokenURL     string
	// Owner, when set, is forwarded as the authorization URL's owner
	// parameter ("user" requests end-user consent).
	Owner      string
	HTTPClient *http.Client
}

// Manager owns the OAuth round-trip: building authorization URLs and
// exchanging callback codes for grants. Credentials are injected per
// instance so multiple client configurations can coexist.
type Manager struct {
	credentials  CredentialsFunc
	authorizeURL string
	tokenURL     string
	owner        string
	httpClient   *http.Client
	now          func() time.Time
}

func NewManager(opts ManagerOptions) *Manager {
	authorizeURL := strings.TrimSpace(opts.AuthorizeURL)
	if authorizeURL == "" {
		authorizeURL = defaultAuthorizeURL
	}
	tokenURL := strings.TrimSpace(opts.TokenURL)
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	credentials := opts.Credentials
	if credentials == nil {
		clientID := strings.TrimSpace(opts.ClientID)
		clientSecret := strings.TrimSpace(opts.ClientSecret)
		credentials = func() (string, string) {
			return clientID, clientSecret
		}
	}
	return &Manager{
		credentials:  credentials,
		authorizeURL: authorizeURL,
		tokenURL:     tokenURL,
		owner:        strings.TrimSpace(opts.Owner),
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// AuthorizeURL builds the redirect-out URL. State and owner are included
// only when present.
func (m *Manager) AuthorizeURL(redirectURI, state string) string {
	clientID, _ := m.credentials()
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	if state != "" {
		params.Set("state", state)
	}
	if m.owner != "" {
		params.Set("owner", m.owner)
	}
	return m.authorizeURL + "?" + params.Encode()
}

type tokenRequest struct {
	GrantType   string `json:"grant_type"`
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type tokenResponse struct {
	AccessToken   string `json:"access_token"`
	BotID         string `json:"bot_id"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	WorkspaceIcon string `json:"workspace_icon"`
	ExpiresIn     *int64 `json:"expires_in,omitempty"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// ExchangeCode trades the callback code for a grant. The request is
// authenticated with Basic auth over the client credentials. A structured
// rejection surfaces as *ExchangeError; a response that cannot be read or
// decoded surfaces as ErrInvalidResponse.
func (m *Manager) ExchangeCode(ctx context.Context, code, redirectURI string) (Grant, error) {
	if strings.TrimSpace(code) == "" {
		return Grant{}, ErrMissingCode
	}
	bodyBytes, err := json.Marshal(tokenRequest{
		GrantType:   "authorization_code",
		Code:        code,
		RedirectURI: redirectURI,
	})
	if err != nil {
		return Grant{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Grant{}, err
	}
	clientID, clientSecret := m.credentials()
	basic := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Grant{}, ctx.Err()
		}
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remoteErr tokenErrorResponse
		if decodeErr := json.Unmarshal(respBody, &remoteErr); decodeErr == nil && remoteErr.Error != "" {
			message := remoteErr.ErrorDescription
			if message == "" {
				message = remoteErr.Message
			}
			return Grant{}, &ExchangeError{
				StatusCode: resp.StatusCode,
				Code:       remoteErr.Error,
				Message:    message,
			}
		}
		return Grant{}, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if token.AccessToken == "" {
		return Grant{}, fmt.Errorf("%w: missing access_token", ErrInvalidResponse)
	}

	grant := Grant{
		AccessToken:   token.AccessToken,
		BotID:         token.BotID,
		WorkspaceID:   token.WorkspaceID,
		WorkspaceName: token.WorkspaceName,
		WorkspaceIcon: token.WorkspaceIcon,
	}
	if token.ExpiresIn != nil {
		expiresAt := m.now().Add(time.Duration(*token.ExpiresIn) * time.Second)
		grant.ExpiresAt = &expiresAt
	}
	return grant, nil
}
