package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridel/inkwell/internal/apperr"
	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/projectservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *projectservice.Service
	maxEvents int
}

// NewHandler creates a new Handler. maxEvents bounds the size of one input
// batch; zero selects the default.
func NewHandler(svc *projectservice.Service, maxEvents int) *Handler {
	if maxEvents <= 0 {
		maxEvents = 512
	}
	return &Handler{svc: svc, maxEvents: maxEvents}
}

// decodeValid decodes a JSON body into dst and runs its validation.
func decodeValid[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := (*dst).Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// ListProjects handles GET /projects.
//
//	@Summary		List projects with pagination
//	@Tags			projects
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListProjects(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list projects failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []ProjectListItem{}
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: items, Total: total})
}

// CreateProject handles POST /projects.
//
//	@Summary		Create a new single-page project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	ProjectDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeValid(w, r, &req) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), req.Title)
	if err != nil {
		slog.Error("create project failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// GetProject handles GET /projects/{id}.
//
//	@Summary		Get a project by id
//	@Tags			projects
//	@Produce		json
//	@Param			id	path		string	true	"Project id"
//	@Success		200	{object}	ProjectDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		h.writeError(w, "get project", id, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// RenameProject handles PATCH /projects/{id}.
//
//	@Summary		Rename a project with optimistic concurrency
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Project id"
//	@Param			If-Match	header		string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		RenameProjectRequest	true	"New title"
//	@Success		200			{object}	ProjectDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [patch]
func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RenameProjectRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ifMatch := trimETag(r.Header.Get("If-Match"))
	project, err := h.svc.RenameProject(r.Context(), id, req.Title, ifMatch)
	if err != nil {
		h.writeError(w, "rename project", id, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /projects/{id}.
//
//	@Summary		Delete a project
//	@Tags			projects
//	@Param			id	path	string	true	"Project id"
//	@Success		204	"Project deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteProject(r.Context(), id); err != nil {
		h.writeError(w, "delete project", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPage handles POST /projects/{id}/pages.
//
//	@Summary		Append an empty page
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Project id"
//	@Param			body	body		AddPageRequest	true	"Page settings"
//	@Success		201		{object}	PageInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages [post]
func (h *Handler) AddPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AddPageRequest
	if !decodeValid(w, r, &req) {
		return
	}
	body := ink.BodyType(req.BodyType)
	if req.BodyType == "" {
		body = ink.BodyPlain
	}
	page, err := h.svc.AddPage(r.Context(), id, req.Title, body)
	if err != nil {
		h.writeError(w, "add page", id, err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

// GetPage handles GET /projects/{id}/pages/{pageID}.
//
//	@Summary		Get one page with full stroke geometry
//	@Tags			pages
//	@Produce		json
//	@Param			id		path		string	true	"Project id"
//	@Param			pageID	path		string	true	"Page id"
//	@Success		200		{object}	ink.Page
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := h.svc.GetPage(r.Context(), id, chi.URLParam(r, "pageID"))
	if err != nil {
		h.writeError(w, "get page", id, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// DeletePage handles DELETE /projects/{id}/pages/{pageID}.
//
//	@Summary		Delete a page (the last page is replaced by a fresh one)
//	@Tags			pages
//	@Param			id		path	string	true	"Project id"
//	@Param			pageID	path	string	true	"Page id"
//	@Success		204		"Page deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID} [delete]
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeletePage(r.Context(), id, chi.URLParam(r, "pageID")); err != nil {
		h.writeError(w, "delete page", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyEvents handles POST /projects/{id}/pages/{pageID}/events.
//
//	@Summary		Apply a batch of pointer/wheel input events to a page
//	@Tags			input
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Project id"
//	@Param			pageID	path		string				true	"Page id"
//	@Param			body	body		EventBatchRequest	true	"Input batch"
//	@Success		200		{object}	PageInfo
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/events [post]
func (h *Handler) ApplyEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req EventBatchRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if len(req.Events) > h.maxEvents {
		writeJSON(w, http.StatusBadRequest, errorBody("event batch too large"))
		return
	}
	info, err := h.svc.ApplyEvents(r.Context(), id, chi.URLParam(r, "pageID"), req.toInput())
	if err != nil {
		h.writeError(w, "apply events", id, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// AppendText handles POST /projects/{id}/pages/{pageID}/text.
//
//	@Summary		Append recognized text to a page
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Project id"
//	@Param			pageID	path		string				true	"Page id"
//	@Param			body	body		AppendTextRequest	true	"Text to append"
//	@Success		200		{object}	PageInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/text [post]
func (h *Handler) AppendText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AppendTextRequest
	if !decodeValid(w, r, &req) {
		return
	}
	info, err := h.svc.AppendText(r.Context(), id, chi.URLParam(r, "pageID"), req.Text)
	if err != nil {
		h.writeError(w, "append text", id, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SetView handles PUT /projects/{id}/pages/{pageID}/view.
//
//	@Summary		Replace a page's pan/zoom transform
//	@Tags			pages
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Project id"
//	@Param			pageID	path		string		true	"Page id"
//	@Param			body	body		ViewRequest	true	"View transform"
//	@Success		200		{object}	PageInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/view [put]
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ViewRequest
	if !decodeValid(w, r, &req) {
		return
	}
	view := geom.ViewState{Scale: req.Scale, OffsetX: req.OffsetX, OffsetY: req.OffsetY}
	info, err := h.svc.SetView(r.Context(), id, chi.URLParam(r, "pageID"), view)
	if err != nil {
		h.writeError(w, "set view", id, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Resize handles POST /projects/{id}/resize.
//
//	@Summary		Report a new canvas size; strokes are rescaled proportionally
//	@Tags			input
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Project id"
//	@Param			body	body		ResizeRequest	true	"New canvas size"
//	@Success		200		{object}	PageInfo
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/resize [post]
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ResizeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	size := geom.Size{Width: req.Width, Height: req.Height}
	info, err := h.svc.Resize(r.Context(), id, size, req.DPR)
	if err != nil {
		h.writeError(w, "resize", id, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SetTool handles PUT /projects/{id}/tool.
//
//	@Summary		Select the active tool and stroke style
//	@Tags			input
//	@Accept			json
//	@Param			id		path	string		true	"Project id"
//	@Param			body	body	ToolRequest	true	"Tool selection"
//	@Success		204		"Tool selected"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/tool [put]
func (h *Handler) SetTool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ToolRequest
	if !decodeValid(w, r, &req) {
		return
	}
	tool, err := ink.ParseTool(req.Tool)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.svc.SetTool(r.Context(), id, tool, req.Color, req.Size, req.Opacity); err != nil {
		h.writeError(w, "set tool", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Undo handles POST /projects/{id}/pages/{pageID}/undo.
//
//	@Summary		Step a page one history snapshot back
//	@Tags			history
//	@Produce		json
//	@Param			id		path		string	true	"Project id"
//	@Param			pageID	path		string	true	"Page id"
//	@Success		200		{object}	HistoryResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/undo [post]
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.historyOp(w, r, h.svc.Undo, "undo")
}

// Redo handles POST /projects/{id}/pages/{pageID}/redo.
//
//	@Summary		Step a page one history snapshot forward
//	@Tags			history
//	@Produce		json
//	@Param			id		path		string	true	"Project id"
//	@Param			pageID	path		string	true	"Page id"
//	@Success		200		{object}	HistoryResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/redo [post]
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.historyOp(w, r, h.svc.Redo, "redo")
}

// UndoLastStroke handles POST /projects/{id}/pages/{pageID}/strokes/undo.
//
//	@Summary		Remove just the newest stroke
//	@Tags			history
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/strokes/undo [post]
func (h *Handler) UndoLastStroke(w http.ResponseWriter, r *http.Request) {
	h.historyOp(w, r, h.svc.UndoLastStroke, "undo last stroke")
}

// RedoLastStroke handles POST /projects/{id}/pages/{pageID}/strokes/redo.
//
//	@Summary		Re-append the most recently removed stroke
//	@Tags			history
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/projects/{id}/pages/{pageID}/strokes/redo [post]
func (h *Handler) RedoLastStroke(w http.ResponseWriter, r *http.Request) {
	h.historyOp(w, r, h.svc.RedoLastStroke, "redo last stroke")
}

func (h *Handler) historyOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, pageID string) (bool, error), name string) {
	id := chi.URLParam(r, "id")
	applied, err := op(r.Context(), id, chi.URLParam(r, "pageID"))
	if err != nil {
		h.writeError(w, name, id, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Applied: applied})
}

// Search handles GET /search.
//
//	@Summary		Full-text search across project and page titles and recognized text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Path: hit.Path, ID: hit.ID, Title: hit.Title, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	default:
		slog.Error(op+" failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// trimETag strips surrounding quotes if present (standard ETag format).
func trimETag(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
