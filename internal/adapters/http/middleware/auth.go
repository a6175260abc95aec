package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"

	"gymbooking/internal/application/identity"
	"gymbooking/internal/domain/user"
)

// SessionTTL is how long a login stays valid. It is measured on the wall
// clock so time travel never logs the operator out.
const SessionTTL = 24 * time.Hour

const sessionCookieName = "gym_session"

// Session represents an authenticated session.
type Session struct {
	Identity  user.Identity
	CreatedAt time.Time
}

// SessionStore keeps sessions in memory, keyed by an opaque token. The token
// travels in a securecookie-encoded cookie so a tampered value never
// reaches the map lookup.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	codec    *securecookie.SecureCookie
	now      func() time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionNow replaces the wall clock used for expiry.
func WithSessionNow(now func() time.Time) SessionOption {
	return func(ss *SessionStore) { ss.now = now }
}

// NewSessionStore creates a session store whose cookies are signed with
// hashKey and encrypted with blockKey (nil disables encryption).
// PRE: hashKey is at least 32 bytes
func NewSessionStore(hashKey, blockKey []byte, opts ...SessionOption) *SessionStore {
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(SessionTTL.Seconds()))
	ss := &SessionStore{
		sessions: make(map[string]Session),
		codec:    codec,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ss)
	}
	return ss
}

// Create stores a new session for id and returns its token.
// POST: Session is stored, token is returned
func (ss *SessionStore) Create(id user.Identity) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{Identity: id, CreatedAt: ss.now()}
	return token, nil
}

// Get retrieves a live session by token. Expired sessions are removed.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	session, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(session.CreatedAt) > SessionTTL {
		ss.Delete(token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Start creates a session for id and sets its cookie on w.
func (ss *SessionStore) Start(w http.ResponseWriter, r *http.Request, id user.Identity) error {
	token, err := ss.Create(id)
	if err != nil {
		return err
	}
	encoded, err := ss.codec.Encode(sessionCookieName, token)
	if err != nil {
		ss.Delete(token)
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
	})
	return nil
}

// End deletes the request's session, if any, and clears the cookie.
func (ss *SessionStore) End(w http.ResponseWriter, r *http.Request) {
	if token, ok := ss.token(r); ok {
		ss.Delete(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (ss *SessionStore) token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var token string
	if err := ss.codec.Decode(sessionCookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	return token, token != ""
}

// Auth returns middleware that resolves the session cookie and puts the
// signed-in identity on the request context. It does NOT block
// unauthenticated requests; the booking engine reports those itself.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := sessions.token(r); ok {
				if session, ok := sessions.Get(token); ok {
					r = r.WithContext(identity.WithUser(r.Context(), session.Identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
