package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridel/inkwell/internal/projectservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// maxEventBatch bounds the size of one input batch (zero selects the default).
func NewRouter(svc *projectservice.Service, authEnabled bool, token string, sseHandler http.Handler, maxEventBatch int) chi.Router {
	h := NewHandler(svc, maxEventBatch)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Projects CRUD.
	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Get("/projects/{id}", h.GetProject)
	r.Patch("/projects/{id}", h.RenameProject)
	r.Delete("/projects/{id}", h.DeleteProject)

	// Session-level input.
	r.Post("/projects/{id}/resize", h.Resize)
	r.Put("/projects/{id}/tool", h.SetTool)

	// Pages.
	r.Post("/projects/{id}/pages", h.AddPage)
	r.Get("/projects/{id}/pages/{pageID}", h.GetPage)
	r.Delete("/projects/{id}/pages/{pageID}", h.DeletePage)
	r.Post("/projects/{id}/pages/{pageID}/events", h.ApplyEvents)
	r.Post("/projects/{id}/pages/{pageID}/text", h.AppendText)
	r.Put("/projects/{id}/pages/{pageID}/view", h.SetView)

	// History.
	r.Post("/projects/{id}/pages/{pageID}/undo", h.Undo)
	r.Post("/projects/{id}/pages/{pageID}/redo", h.Redo)
	r.Post("/projects/{id}/pages/{pageID}/strokes/undo", h.UndoLastStroke)
	r.Post("/projects/{id}/pages/{pageID}/strokes/redo", h.RedoLastStroke)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
