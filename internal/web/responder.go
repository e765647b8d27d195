// Package web renders the HTML views and issues redirects. Both paths
// persist a changed session, so flashes written by a handler survive to the
// next page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ayush/collections-app/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data every view receives.
type Page struct {
	IsLogin bool
	User    session.User
	Flashes []session.Flash
	Data    any
}

// Responder is the terminal step of every handler.
type Responder struct {
	tmpl     *template.Template
	sessions *session.Manager
	log      *slog.Logger
}

func NewResponder(sessions *session.Manager, log *slog.Logger) (*Responder, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Responder{tmpl: tmpl, sessions: sessions, log: log}, nil
}

// Flash queues a message on the request's session.
func (rs *Responder) Flash(r *http.Request, kind, message string) {
	session.FromContext(r.Context()).Flash(kind, message)
}

// Render executes the named view. Pending flashes are consumed.
func (rs *Responder) Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	sess := session.FromContext(r.Context())
	page := Page{
		IsLogin: sess.IsLogin,
		User:    sess.User,
		Flashes: sess.PopFlashes(),
		Data:    data,
	}

	var buf bytes.Buffer
	if err := rs.tmpl.ExecuteTemplate(&buf, name+".html", page); err != nil {
		rs.log.ErrorContext(r.Context(), "render view", "view", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rs.persist(w, r, sess)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// Page returns a handler that renders a view with no data.
func (rs *Responder) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.Render(w, r, name, nil)
	}
}

// Redirect sends a 302 to target.
func (rs *Responder) Redirect(w http.ResponseWriter, r *http.Request, target string) {
	rs.persist(w, r, session.FromContext(r.Context()))
	http.Redirect(w, r, target, http.StatusFound)
}

// RedirectBack redirects to the Referer when it points at this host, and to
// fallback otherwise.
func (rs *Responder) RedirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	rs.Redirect(w, r, backTarget(r, fallback))
}

func backTarget(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !localPath(u.Path) {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// localPath rejects anything a browser could read as another host,
// including "//host" and "/\host".
func localPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	return len(p) == 1 || (p[1] != '/' && p[1] != '\\')
}

func (rs *Responder) persist(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if !sess.Dirty() {
		return
	}
	if sess.Token == "" && !sess.IsLogin && len(sess.Flashes) == 0 {
		// nothing worth storing for an anonymous visitor
		return
	}
	if err := rs.sessions.Save(r.Context(), w, sess); err != nil {
		rs.log.ErrorContext(r.Context(), "persist session", "error", err)
	}
}
