package oauth

import "time"

// Grant is the credential bundle obtained from a successful code exchange.
// It is immutable after creation; re-authorization produces a new grant.
type Grant struct {
	AccessToken   string     `json:"access_token"`
	BotID         string     `json:"bot_id"`
	WorkspaceID   string     `json:"workspace_id"`
	WorkspaceName string     `json:"workspace_name"`
	WorkspaceIcon string     `json:"workspace_icon,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the grant has passed its expiry. A grant without
// an expiry never expires.
func (g Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}
