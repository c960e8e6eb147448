package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const sessionAudience = "notionsync"

var errInvalidSession = errors.New("invalid session token")

// SessionService issues and verifies the HMAC session tokens that bind a
// browser session to the user id minted at callback time.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) *SessionService {
	return &SessionService{secret: []byte(secret), ttl: ttl}
}

func (s *SessionService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"aud": sessionAudience,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the token and returns the user id it was issued for.
func (s *SessionService) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidSession
		}
		return s.secret, nil
	}, jwt.WithAudience(sessionAudience), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", errInvalidSession
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errInvalidSession
	}
	return subject, nil
}

// requireSession authenticates the bearer session token and checks it was
// issued for the user id in the route.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				// Websocket clients cannot set headers from the browser.
				authHeader = "Bearer " + token
			}
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		userID, err := s.sessions.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session token")
			return
		}
		if routeUser := chi.URLParam(r, "userID"); routeUser != "" && routeUser != userID {
			writeError(w, http.StatusForbidden, "forbidden", "session does not match user")
			return
		}
		next.ServeHTTP(w, r)
	})
}
