package collections

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/collections-app/internal/models"
	"github.com/ayush/collections-app/internal/session"
	"github.com/ayush/collections-app/internal/web"
)

const listPath = "/collections"

// Handler holds the collection and task HTTP handlers. Every route is
// mounted behind the auth guard, so the session user is always set.
type Handler struct {
	svc  *Service
	resp *web.Responder
	log  *slog.Logger
}

func NewHandler(svc *Service, resp *web.Responder, log *slog.Logger) *Handler {
	return &Handler{svc: svc, resp: resp, log: log}
}

func detailPath(id int64) string {
	return fmt.Sprintf("/collections-details/%d", id)
}

func userID(r *http.Request) int64 {
	return session.FromContext(r.Context()).User.ID
}

// idParam parses the numeric {id} route parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// List renders the user's collections with tasks and completed counts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cols, err := h.svc.List(r.Context(), userID(r))
	if err != nil {
		h.log.ErrorContext(r.Context(), "list collections", "user_id", userID(r), "error", err)
		h.resp.Flash(r, session.FlashDanger, "Failed to load collections.")
		h.resp.Redirect(w, r, "/")
		return
	}
	h.resp.Render(w, r, "collections", struct {
		Collections []models.CollectionSummary
	}{cols})
}

// Add creates a collection owned by the session user.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.Create(r.Context(), userID(r), r.PostFormValue("collectionname"))
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			h.resp.Flash(r, session.FlashDanger, verr.Message)
		} else {
			h.log.ErrorContext(r.Context(), "add collection", "user_id", userID(r), "error", err)
			h.resp.Flash(r, session.FlashDanger, "Failed to add the collection.")
		}
		h.resp.Redirect(w, r, "/add-collections")
		return
	}
	h.resp.Redirect(w, r, listPath)
}

// Delete removes a collection and its tasks.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.resp.Flash(r, session.FlashDanger, "Failed to delete the collection.")
		h.resp.RedirectBack(w, r, listPath)
		return
	}
	if err := h.svc.Delete(r.Context(), userID(r), id); err != nil {
		h.log.ErrorContext(r.Context(), "delete collection", "collection_id", id, "error", err)
		h.resp.Flash(r, session.FlashDanger, "Failed to delete the collection.")
		h.resp.RedirectBack(w, r, listPath)
		return
	}
	h.resp.Flash(r, session.FlashSuccess, "Collection deleted successfully.")
	h.resp.Redirect(w, r, listPath)
}

// Detail renders one collection with its tasks. Missing collections send
// the user back to the list without a message.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.resp.Redirect(w, r, listPath)
		return
	}
	d, err := h.svc.Detail(r.Context(), userID(r), id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.log.ErrorContext(r.Context(), "collection detail", "collection_id", id, "error", err)
		}
		h.resp.Redirect(w, r, listPath)
		return
	}
	h.resp.Render(w, r, "collections-details", d)
}

// AddTaskView renders the add-task form for a collection.
func (h *Handler) AddTaskView(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.resp.Redirect(w, r, listPath)
		return
	}
	h.resp.Render(w, r, "add-task", struct{ CollectionID int64 }{id})
}

// AddTask creates a task under the collection named in the route.
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.resp.Flash(r, session.FlashDanger, "Collection not found.")
		h.resp.Redirect(w, r, listPath)
		return
	}

	_, err := h.svc.AddTask(r.Context(), userID(r), id, r.PostFormValue("tasksname"))
	var verr *models.ValidationError
	switch {
	case err == nil:
		h.resp.Redirect(w, r, detailPath(id))
	case errors.As(err, &verr):
		h.resp.Flash(r, session.FlashDanger, verr.Message)
		h.resp.RedirectBack(w, r, fmt.Sprintf("/collections-details/add-task/%d", id))
	case errors.Is(err, models.ErrNotFound):
		h.resp.Flash(r, session.FlashDanger, "Collection not found.")
		h.resp.Redirect(w, r, listPath)
	default:
		h.log.ErrorContext(r.Context(), "add task", "collection_id", id, "error", err)
		h.resp.Flash(r, session.FlashDanger, "Failed to add the task.")
		h.resp.RedirectBack(w, r, detailPath(id))
	}
}

// DeleteTask removes a task and returns to its collection.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	h.mutateTask(w, r, "delete", func(taskID int64) (int64, error) {
		return h.svc.DeleteTask(r.Context(), userID(r), taskID)
	})
}

// UpdateTask sets the done flag from the is_done checkbox. An unchecked box
// is absent from the form, so anything but "on" means not done.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	done := r.PostFormValue("is_done") == "on"
	h.mutateTask(w, r, "update", func(taskID int64) (int64, error) {
		return h.svc.SetTaskDone(r.Context(), userID(r), taskID, done)
	})
}

func (h *Handler) mutateTask(w http.ResponseWriter, r *http.Request, verb string, fn func(int64) (int64, error)) {
	taskID, ok := idParam(r)
	if !ok {
		h.resp.Flash(r, session.FlashDanger, "Task not found.")
		h.resp.Redirect(w, r, listPath)
		return
	}

	collectionID, err := fn(taskID)
	switch {
	case err == nil:
		h.resp.Flash(r, session.FlashSuccess, "Task "+verb+"d successfully.")
		h.resp.Redirect(w, r, detailPath(collectionID))
	case errors.Is(err, models.ErrNotFound):
		h.resp.Flash(r, session.FlashDanger, "Task not found.")
		h.resp.Redirect(w, r, listPath)
	default:
		h.log.ErrorContext(r.Context(), verb+" task", "task_id", taskID, "error", err)
		h.resp.Flash(r, session.FlashDanger, "Failed to "+verb+" the task.")
		h.resp.RedirectBack(w, r, listPath)
	}
}
