// Package projectservice coordinates storage, the catalog, and live notebook
// sessions. It is the single writer for project documents: every mutation
// flows through a checked-out session, is persisted atomically, and is
// re-cataloged in the same call.
package projectservice

import (
	"context"
	"errors"
	"image"
	"os"
	"sync"
	"time"

	"github.com/meridel/inkwell/internal/apperr"
	"github.com/meridel/inkwell/internal/catalog"
	"github.com/meridel/inkwell/internal/checksum"
	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/gesture"
	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/notebook"
	"github.com/meridel/inkwell/internal/storage"
)

// ProjectDetail is the full representation of a project.
type ProjectDetail struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Path      string     `json:"path"`
	Checksum  string     `json:"checksum"`
	Pages     []PageInfo `json:"pages"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PageInfo is a page summary without stroke geometry.
type PageInfo struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Body        ink.BodyType   `json:"bodyType"`
	StrokeCount int            `json:"stroke_count"`
	Surface     geom.Size      `json:"surface"`
	View        geom.ViewState `json:"view"`
	Text        string         `json:"text,omitempty"`
}

// ProjectListItem is a lightweight item in a list response.
type ProjectListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	PageCount int       `json:"page_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WheelEvent is a scroll-wheel input.
type WheelEvent struct {
	DeltaY   float64
	Modifier bool
}

// InputEvent is one element of a client input batch. Exactly one of Pointer
// or Wheel is set.
type InputEvent struct {
	Pointer *gesture.PointerEvent
	Wheel   *WheelEvent
}

// liveSession pairs a notebook session with the document path it was loaded
// from. Its mutex serializes all engine access for one project.
type liveSession struct {
	mu           sync.Mutex
	path         string
	lastChecksum string
	session      *notebook.Session
}

// Notifier receives engine-level change notifications for SSE fan-out.
type Notifier func(event string, data map[string]string)

// Service coordinates storage, catalog, and live sessions.
type Service struct {
	store    storage.Provider
	db       *catalog.DB
	depth    int
	notifier Notifier

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewService creates a new project service. historyDepth bounds each page's
// undo log; zero selects the default.
func NewService(store storage.Provider, db *catalog.DB, historyDepth int) *Service {
	return &Service{
		store:    store,
		db:       db,
		depth:    historyDepth,
		sessions: make(map[string]*liveSession),
	}
}

// SetNotifier installs the change-notification sink. Project-level changes
// reach clients through the workspace watcher; the notifier carries the
// finer-grained page.updated signal.
func (s *Service) SetNotifier(fn Notifier) {
	s.notifier = fn
}

func (s *Service) notifyPage(projectID, pageID string) {
	if s.notifier != nil {
		s.notifier("page.updated", map[string]string{"project_id": projectID, "page_id": pageID})
	}
}

// --- project CRUD ---

// CreateProject writes a fresh single-page project document and catalogs it.
func (s *Service) CreateProject(_ context.Context, title string) (*ProjectDetail, error) {
	project := ink.NewProject(title)
	path := project.ID + storage.DocSuffix

	data, err := project.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := catalog.IndexDocument(s.db, path, data); err != nil {
		return nil, err
	}
	return detail(path, project, checksum.Sum(data)), nil
}

// GetProject reads a project document from storage.
func (s *Service) GetProject(_ context.Context, id string) (*ProjectDetail, error) {
	path, err := s.resolvePath(id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	project, err := ink.DecodeProject(data)
	if err != nil {
		return nil, err
	}
	return detail(path, project, checksum.Sum(data)), nil
}

// GetPage returns one page with full stroke geometry from the live session.
func (s *Service) GetPage(_ context.Context, id, pageID string) (*ink.Page, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	project := ls.session.Project()
	idx := project.PageIndex(pageID)
	if idx < 0 {
		return nil, apperr.ErrNotFound
	}
	page := project.Pages[idx].Clone()
	return &page, nil
}

// RenameProject updates the project title with optimistic concurrency.
func (s *Service) RenameProject(_ context.Context, id, title, ifMatch string) (*ProjectDetail, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ifMatch != "" {
		data, readErr := s.store.Read(ls.path)
		if readErr == nil && ifMatch != checksum.Sum(data) {
			return nil, apperr.ErrConflict
		}
	}
	ls.session.Project().Title = title
	return s.persist(ls)
}

// DeleteProject removes a project from storage, catalog, and the session
// cache.
func (s *Service) DeleteProject(_ context.Context, id string) error {
	path, err := s.resolvePath(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return s.db.DeleteProject(path)
}

// ListProjects returns paginated projects from the catalog.
func (s *Service) ListProjects(_ context.Context, limit, offset int) ([]ProjectListItem, int, error) {
	rows, total, err := s.db.ListProjects(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ProjectListItem, len(rows))
	for i, r := range rows {
		items[i] = ProjectListItem{
			ID:        r.ID,
			Title:     r.Title,
			Path:      r.Path,
			Checksum:  r.Checksum,
			PageCount: r.PageCount,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	return s.db.Search(query, limit)
}

// --- page operations ---

// AddPage appends an empty page and persists the document.
func (s *Service) AddPage(_ context.Context, id, title string, body ink.BodyType) (*PageInfo, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	page := ls.session.AddPage(title, body)
	if _, err := s.persist(ls); err != nil {
		return nil, err
	}
	info := pageInfo(page)
	return &info, nil
}

// DeletePage removes a page; deleting the last page leaves one fresh page.
func (s *Service) DeletePage(_ context.Context, id, pageID string) error {
	ls, err := s.checkout(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.session.DeletePage(pageID); err != nil {
		return err
	}
	_, err = s.persist(ls)
	return err
}

// ApplyEvents activates a page and routes a batch of input events through the
// gesture router, then persists whatever the batch committed.
func (s *Service) ApplyEvents(_ context.Context, id, pageID string, events []InputEvent) (*PageInfo, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.session.SetActivePage(pageID); err != nil {
		return nil, err
	}
	for _, ev := range events {
		switch {
		case ev.Pointer != nil:
			ls.session.Pointer(*ev.Pointer)
		case ev.Wheel != nil:
			ls.session.Wheel(ev.Wheel.DeltaY, ev.Wheel.Modifier)
		}
	}
	if _, err := s.persist(ls); err != nil {
		return nil, err
	}
	s.notifyPage(id, pageID)
	info := pageInfo(ls.session.ActivePage())
	return &info, nil
}

// SetTool updates the live stroke parameters for a project's session.
func (s *Service) SetTool(_ context.Context, id string, tool ink.Tool, color ink.Color, size, opacity float64) error {
	ls, err := s.checkout(id)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.session.SetTool(tool, color, size, opacity)
	return nil
}

// SetView replaces a page's pan/zoom transform and persists it.
func (s *Service) SetView(_ context.Context, id, pageID string, view geom.ViewState) (*PageInfo, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.session.SetActivePage(pageID); err != nil {
		return nil, err
	}
	ls.session.SetView(view)
	if _, err := s.persist(ls); err != nil {
		return nil, err
	}
	info := pageInfo(ls.session.ActivePage())
	return &info, nil
}

// Resize reports a new canvas size: strokes are rescaled before the next
// replay and the result is persisted.
func (s *Service) Resize(_ context.Context, id string, size geom.Size, dpr float64) (*PageInfo, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.session.Resize(size, dpr)
	if _, err := s.persist(ls); err != nil {
		return nil, err
	}
	info := pageInfo(ls.session.ActivePage())
	return &info, nil
}

// AppendText appends recognized text to a page and persists.
func (s *Service) AppendText(_ context.Context, id, pageID, text string) (*PageInfo, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.session.AppendText(pageID, text); err != nil {
		return nil, err
	}
	if _, err := s.persist(ls); err != nil {
		return nil, err
	}
	s.notifyPage(id, pageID)
	project := ls.session.Project()
	info := pageInfo(project.Pages[project.PageIndex(pageID)])
	return &info, nil
}

// --- history ---

// Undo steps a page one snapshot back. Returns false at the terminal state.
func (s *Service) Undo(_ context.Context, id, pageID string) (bool, error) {
	return s.history(id, pageID, (*notebook.Session).Undo)
}

// Redo steps a page one snapshot forward.
func (s *Service) Redo(_ context.Context, id, pageID string) (bool, error) {
	return s.history(id, pageID, (*notebook.Session).Redo)
}

// UndoLastStroke pops the newest stroke into the quick redo buffer.
func (s *Service) UndoLastStroke(_ context.Context, id, pageID string) (bool, error) {
	return s.history(id, pageID, (*notebook.Session).UndoLastStroke)
}

// RedoLastStroke re-appends the most recently popped stroke.
func (s *Service) RedoLastStroke(_ context.Context, id, pageID string) (bool, error) {
	return s.history(id, pageID, (*notebook.Session).RedoLastStroke)
}

func (s *Service) history(id, pageID string, op func(*notebook.Session, string) (bool, error)) (bool, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return false, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ok, err := op(ls.session, pageID)
	if err != nil || !ok {
		return ok, err
	}
	if _, err := s.persist(ls); err != nil {
		return false, err
	}
	s.notifyPage(id, pageID)
	return true, nil
}

// --- export ---

// Export replays one page at the requested resolution. Encoding the image is
// the caller's concern.
func (s *Service) Export(_ context.Context, id, pageID string, target geom.Size) (*image.RGBA, error) {
	ls, err := s.checkout(id)
	if err != nil {
		return nil, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	return ls.session.Export(pageID, target)
}

// --- session cache ---

// HandleWatchEvent reconciles the session cache with an external file change.
// Writes made by the service itself are recognized by checksum and do not
// evict their session.
func (s *Service) HandleWatchEvent(kind, path string) {
	if kind == "deleted" {
		s.evictPath(path, "")
		return
	}
	data, err := s.store.Read(path)
	if err != nil {
		return
	}
	s.evictPath(path, checksum.Sum(data))
}

func (s *Service) evictPath(path, cs string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ls := range s.sessions {
		if ls.path != path {
			continue
		}
		if cs != "" && ls.lastChecksum == cs {
			return
		}
		delete(s.sessions, id)
		return
	}
}

// checkout returns the live session for a project, loading and decoding the
// document on first access. Decoding fails soft on page-level corruption.
func (s *Service) checkout(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ls, ok := s.sessions[id]; ok {
		return ls, nil
	}

	path, err := s.resolvePathLocked(id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	project, err := ink.DecodeProject(data)
	if err != nil {
		return nil, err
	}
	ls := &liveSession{
		path:         path,
		lastChecksum: checksum.Sum(data),
		session:      notebook.NewSession(project, s.depth),
	}
	s.sessions[id] = ls
	return ls, nil
}

// persist encodes the session's project, writes it atomically, and updates
// the catalog. Callers hold the session mutex.
func (s *Service) persist(ls *liveSession) (*ProjectDetail, error) {
	project := ls.session.Project()
	project.UpdatedAt = time.Now().UTC()

	data, err := project.Encode()
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(ls.path, data); err != nil {
		return nil, err
	}
	ls.lastChecksum = checksum.Sum(data)
	if err := catalog.IndexDocument(s.db, ls.path, data); err != nil {
		return nil, err
	}
	return detail(ls.path, project, ls.lastChecksum), nil
}

func (s *Service) resolvePath(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvePathLocked(id)
}

func (s *Service) resolvePathLocked(id string) (string, error) {
	if ls, ok := s.sessions[id]; ok {
		return ls.path, nil
	}
	row, err := s.db.GetByID(id)
	if err != nil {
		return "", err
	}
	if row != nil {
		return row.Path, nil
	}
	// Not cataloged yet (e.g. created moments ago on another node); fall
	// back to the canonical layout.
	return id + storage.DocSuffix, nil
}

func detail(path string, project *ink.Project, cs string) *ProjectDetail {
	pages := make([]PageInfo, len(project.Pages))
	for i, p := range project.Pages {
		pages[i] = pageInfo(p)
	}
	return &ProjectDetail{
		ID:        project.ID,
		Title:     project.Title,
		Path:      path,
		Checksum:  cs,
		Pages:     pages,
		UpdatedAt: project.UpdatedAt,
	}
}

func pageInfo(p ink.Page) PageInfo {
	return PageInfo{
		ID:          p.ID,
		Title:       p.Title,
		Body:        p.Body,
		StrokeCount: len(p.Strokes),
		Surface:     p.Surface,
		View:        p.View,
		Text:        p.Text,
	}
}
