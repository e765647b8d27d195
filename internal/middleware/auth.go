package middleware

import (
	"net/http"

	"github.com/ayush/collections-app/internal/session"
	"github.com/ayush/collections-app/internal/web"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// RequireAuth is middleware that lets the request through only when the
// session is logged in. Otherwise it flashes a warning and redirects to the
// login page without calling next.
func RequireAuth(resp *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.FromContext(r.Context()).IsLogin {
				AuthRejected.Inc()
				resp.Flash(r, session.FlashDanger, "You must be logged in to view this page.")
				resp.Redirect(w, r, LoginPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
