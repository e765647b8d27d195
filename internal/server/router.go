// Package server assembles the HTTP router from explicitly passed
// dependencies.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/collections-app/internal/auth"
	"github.com/ayush/collections-app/internal/collections"
	"github.com/ayush/collections-app/internal/middleware"
	"github.com/ayush/collections-app/internal/session"
	"github.com/ayush/collections-app/internal/web"
)

// Pinger reports storage health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs, built once at startup.
type Deps struct {
	Users       auth.UserStore
	Collections collections.Repository
	Health      Pinger
	Hasher      *auth.Hasher
	Sessions    *session.Manager
	Logger      *slog.Logger
	CORSOrigins []string
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// NewRouter wires handlers, the session middleware and the auth guard.
func NewRouter(d Deps) (http.Handler, error) {
	resp, err := web.NewResponder(d.Sessions, d.Logger)
	if err != nil {
		return nil, err
	}

	authHandler := auth.NewHandler(d.Users, d.Hasher, d.Sessions, resp, d.Logger)
	colHandler := collections.NewHandler(collections.NewService(d.Collections), resp, d.Logger)
	requireAuth := middleware.RequireAuth(resp)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if d.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", health(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Middleware)

		// Public pages
		r.Get("/", resp.Page("index"))
		r.Get("/login", resp.Page("login"))
		r.Get("/register", resp.Page("register"))
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)

		// Logged-in only
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/logout", authHandler.Logout)

			r.Get("/collections", colHandler.List)
			r.Get("/add-collections", resp.Page("add-collections"))
			r.Post("/add-collections", colHandler.Add)
			r.Post("/delete-collections/{id}", colHandler.Delete)

			r.Get("/collections-details/{id}", colHandler.Detail)
			r.Get("/collections-details/add-task/{id}", colHandler.AddTaskView)
			r.Post("/collections-details/add-task/{id}", colHandler.AddTask)

			r.Post("/task-delete/{id}", colHandler.DeleteTask)
			r.Post("/update-task/{id}", colHandler.UpdateTask)
		})
	})

	return r, nil
}

func health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}
