package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultCookie is the cookie name used when none is configured.
const DefaultCookie = "session_id"

// Manager ties a Store to the session cookie.
type Manager struct {
	store  Store
	cookie string
	secure bool
	log    *slog.Logger
}

// NewManager returns a Manager. secure sets the cookie's Secure attribute
// and must be enabled when serving over TLS.
func NewManager(store Store, cookieName string, secure bool, log *slog.Logger) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookie
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, cookie: cookieName, secure: secure, log: log}
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string { return m.cookie }

// Middleware loads the caller's session into the request context. An
// unknown, expired or unreadable token yields an empty session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (m *Manager) load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookie)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}
	sess, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		m.log.ErrorContext(r.Context(), "load session", "error", err)
		return &Session{}
	}
	if sess == nil {
		return &Session{}
	}
	return sess
}

// Save persists sess and refreshes the cookie. A token is minted on the
// first save, so anonymous visitors only get a session once something is
// written to it.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.Token == "" {
		sess.Token = uuid.New().String()
	}
	if err := m.store.Set(ctx, sess.Token, sess, TTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	sess.dirty = false
	m.setCookie(w, sess.Token, int(TTL/time.Second))
	return nil
}

// Renew moves sess to a fresh token, dropping the old record. Called on
// login so a pre-login token cannot be reused.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.Token != "" {
		if err := m.store.Delete(ctx, sess.Token); err != nil {
			return fmt.Errorf("renew session: %w", err)
		}
	}
	sess.Token = ""
	return m.Save(ctx, w, sess)
}

// Destroy removes the session record and expires the cookie. sess is reset
// to an empty, unsaved session so later flashes land in a new one.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	var err error
	if sess.Token != "" {
		err = m.store.Delete(ctx, sess.Token)
	}
	*sess = Session{}
	m.setCookie(w, "", -1)
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
