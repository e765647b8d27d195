// Package session keeps server-side login state and flash messages keyed by
// an opaque cookie token.
package session

import (
	"context"
	"time"
)

// TTL is how long a session lives after its last write.
const TTL = 24 * time.Hour

// Flash kinds rendered by the views.
const (
	FlashDanger  = "danger"
	FlashSuccess = "success"
)

// User is the denormalized identity snapshot stored at login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Flash is a one-time notification shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is the per-client state. Token is empty until the first save.
type Session struct {
	Token   string  `json:"-"`
	IsLogin bool    `json:"is_login"`
	User    User    `json:"user"`
	Flashes []Flash `json:"flashes,omitempty"`

	dirty bool
}

// Flash queues a message for the next rendered page.
func (s *Session) Flash(kind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
	s.dirty = true
}

// PopFlashes drains the queued messages.
func (s *Session) PopFlashes() []Flash {
	if len(s.Flashes) == 0 {
		return nil
	}
	out := s.Flashes
	s.Flashes = nil
	s.dirty = true
	return out
}

// SignIn marks the session as logged in for u.
func (s *Session) SignIn(u User) {
	s.IsLogin = true
	s.User = u
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool { return s.dirty }

// Store is a backing store for sessions. Get returns nil, nil when the token
// is unknown or expired. Delete of an unknown token is a no-op.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Set(ctx context.Context, token string, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session. Requests that never went
// through the middleware get a fresh empty session.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
