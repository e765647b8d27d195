package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayush/collections-app/internal/models"
	"github.com/ayush/collections-app/internal/session"
	"github.com/ayush/collections-app/internal/web"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler holds the login, register and logout handlers.
type Handler struct {
	users    UserStore
	hasher   *Hasher
	sessions *session.Manager
	resp     *web.Responder
	log      *slog.Logger
}

func NewHandler(users UserStore, hasher *Hasher, sessions *session.Manager, resp *web.Responder, log *slog.Logger) *Handler {
	return &Handler{users: users, hasher: hasher, sessions: sessions, resp: resp, log: log}
}

// Register creates a new user and sends them to the login page.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	form := models.RegisterForm{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if verr := validateRegister(form); verr != nil {
		h.fail(w, r, "/register", verr.Message)
		return
	}

	ctx := r.Context()
	_, err := h.users.GetUserByEmail(ctx, form.Email)
	switch {
	case err == nil:
		h.fail(w, r, "/register", "Sorry, your account already exists")
		return
	case !errors.Is(err, models.ErrNotFound):
		h.log.ErrorContext(ctx, "register: lookup email", "error", err)
		h.fail(w, r, "/register", "Register Failed!")
		return
	}

	hashed, err := h.hasher.Hash(form.Password)
	if err != nil {
		h.log.ErrorContext(ctx, "register: hash password", "error", err)
		h.fail(w, r, "/register", "Register Failed!")
		return
	}

	if _, err := h.users.CreateUser(ctx, form.Username, form.Email, hashed); err != nil {
		if errors.Is(err, models.ErrConflict) {
			h.fail(w, r, "/register", "Sorry, your account already exists")
			return
		}
		h.log.ErrorContext(ctx, "register: create user", "error", err)
		h.fail(w, r, "/register", "Register Failed!")
		return
	}

	h.resp.Flash(r, session.FlashSuccess, "Register Successful!")
	h.resp.Redirect(w, r, "/login")
}

func validateRegister(f models.RegisterForm) *models.ValidationError {
	switch {
	case f.Username == "":
		return &models.ValidationError{Field: "username", Message: "Please input username !!!"}
	case f.Email == "":
		return &models.ValidationError{Field: "email", Message: "Please input email !!!"}
	case f.Password == "":
		return &models.ValidationError{Field: "password", Message: "Please input password !!!"}
	case len(f.Password) > MaxPasswordBytes:
		return &models.ValidationError{Field: "password", Message: "Password must be at most 72 bytes !!!"}
	}
	return nil
}

// Login authenticates a user and marks the session as logged in.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := models.LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	ctx := r.Context()

	user, err := h.users.GetUserByEmail(ctx, form.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.log.ErrorContext(ctx, "login: lookup email", "error", err)
			h.fail(w, r, "/login", "Login Failed: Internal Server Error")
			return
		}
		h.fail(w, r, "/login", "Login Failed: Email is wrong!")
		return
	}

	ok, err := h.hasher.Verify(form.Password, user.Password)
	if err != nil {
		h.log.ErrorContext(ctx, "login: verify password", "user_id", user.ID, "error", err)
		h.fail(w, r, "/login", "Login Failed: Internal Server Error")
		return
	}
	if !ok {
		h.fail(w, r, "/login", "Login Failed: Password is wrong!")
		return
	}

	sess := session.FromContext(ctx)
	sess.SignIn(session.User{ID: user.ID, Username: user.Username, Email: user.Email})
	sess.Flash(session.FlashSuccess, "Login Successful!")
	if err := h.sessions.Renew(ctx, w, sess); err != nil {
		h.log.ErrorContext(ctx, "login: save session", "user_id", user.ID, "error", err)
		*sess = session.Session{}
		h.fail(w, r, "/login", "Login Failed: Internal Server Error")
		return
	}
	h.resp.Redirect(w, r, "/")
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.Destroy(ctx, w, session.FromContext(ctx)); err != nil {
		h.log.ErrorContext(ctx, "logout: destroy session", "error", err)
		h.resp.Flash(r, session.FlashDanger, "Error logging out.")
	}
	h.resp.Redirect(w, r, "/")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, target, message string) {
	h.resp.Flash(r, session.FlashDanger, message)
	h.resp.Redirect(w, r, target)
}
