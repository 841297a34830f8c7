// Package auth resolves the acting user of a request from its session cookie.
// Issuing sessions (login flows) lives outside this service; SignIn exists
// for the development sign-in route and tests.
package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	DefaultSessionName = "circlehub-session"

	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userName   = "user_name"
	userAvatar = "user_avatar"
	userRole   = "user_role"
)

// SessionUser is what we cache in the session and inject into r.Context().
type SessionUser struct {
	ID        string
	Name      string
	AvatarURL string
	Role      string
}

// Actor converts the session user into the actor recorded on writes.
func (u SessionUser) Actor() models.Actor {
	return models.Actor{UserID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and whether one is signed in.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// SessionManager wraps the cookie store.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager creates a cookie-backed session manager. In production
// (secure=true) cookies are Secure with SameSite=None; over plain http in
// development they use SameSite=Lax.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide at least 32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))
	return &SessionManager{store: store, name: name, log: logger}, nil
}

// GenerateKey returns a random hex session key for development setups that
// did not configure one. Sessions signed with it do not survive a restart.
func GenerateKey() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}

// LoadSessionUser injects the user into the request context if signed in.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			// Tampered or stale cookie; treat as signed out.
			m.log.Debug("session decode failed", zap.Error(err))
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:        getString(sess, userIDKey),
				Name:      getString(sess, userName),
				AvatarURL: getString(sess, userAvatar),
				Role:      getString(sess, userRole),
			}
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn stores u in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userAvatar] = u.AvatarURL
	sess.Values[userRole] = u.Role
	return sess.Save(r, w)
}

// RequireSignedIn rejects requests without a session user with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects signed-out requests with 401 and signed-in users
// without one of the allowed roles with 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
