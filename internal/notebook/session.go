// Package notebook binds the engine pieces together: a Session owns one
// project, its per-page histories and view states, the gesture router, and
// the render surface for the active page.
//
// A Session is single-threaded by design: every operation runs to completion
// inside the caller's event turn. Callers that receive events concurrently
// (the HTTP layer) must serialize access themselves.
package notebook

import (
	"fmt"
	"image"

	"github.com/meridel/inkwell/internal/apperr"
	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/gesture"
	"github.com/meridel/inkwell/internal/history"
	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/raster"
)

// Session is the live editing state for one project.
type Session struct {
	project *ink.Project
	active  int

	logs        map[string]*history.Log
	redoStrokes map[string][]ink.Stroke
	depth       int

	router  *gesture.Router
	surface *raster.Surface
	builder *ink.StrokeBuilder

	tool    ink.Tool
	color   ink.Color
	size    float64
	opacity float64
}

// NewSession wraps a rehydrated project. Every page gets its own history log
// seeded with its loaded state, so undo never crosses a page boundary.
func NewSession(project *ink.Project, historyDepth int) *Session {
	s := &Session{
		project:     project,
		logs:        make(map[string]*history.Log, len(project.Pages)),
		redoStrokes: make(map[string][]ink.Stroke),
		depth:       historyDepth,
		tool:        ink.ToolPen,
		color:       ink.Black,
		size:        2,
		opacity:     1,
	}
	for _, p := range project.Pages {
		s.logs[p.ID] = history.NewLog(p, historyDepth)
	}
	s.router = gesture.NewRouter(s)
	return s
}

// Project returns the current project state.
func (s *Session) Project() *ink.Project {
	return s.project
}

// ActivePage returns the page currently owning the canvas.
func (s *Session) ActivePage() ink.Page {
	return s.project.Pages[s.active]
}

// SetActivePage switches the canvas to another page. Any open stroke on the
// old page is terminated as if the pointer was cancelled, gesture state is
// reset, and the surface is replayed for the new page — two pages never
// share a surface, history, or view state.
func (s *Session) SetActivePage(pageID string) error {
	idx := s.project.PageIndex(pageID)
	if idx < 0 {
		return fmt.Errorf("notebook: page %s: %w", pageID, apperr.ErrNotFound)
	}
	if idx == s.active {
		return nil
	}
	s.EndStroke(true)
	s.router.Reset()
	s.active = idx
	s.reconcileSurface()
	return nil
}

// SetTool updates the active tool and stroke parameters. Pure input from the
// tool-selection UI; takes effect on the next pointer-down.
func (s *Session) SetTool(tool ink.Tool, color ink.Color, size, opacity float64) {
	s.tool = tool
	s.color = color
	s.size = size
	s.opacity = opacity
}

// Pointer routes one pointer event for the active page.
func (s *Session) Pointer(ev gesture.PointerEvent) {
	s.router.Pointer(ev)
}

// Wheel routes a wheel event for the active page.
func (s *Session) Wheel(deltaY float64, modifier bool) {
	s.router.Wheel(deltaY, modifier)
}

// --- gesture.Handler ---

// ActiveTool implements gesture.Handler.
func (s *Session) ActiveTool() ink.Tool {
	return s.tool
}

// View implements gesture.Handler with the active page's view.
func (s *Session) View() geom.ViewState {
	return s.ActivePage().View
}

// SetView implements gesture.Handler. View changes are not content edits:
// they replace the page without touching its history, then replay with the
// fresh transform so no frame ever renders stale view state.
func (s *Session) SetView(v geom.ViewState) {
	v.Scale = geom.ClampScale(v.Scale)
	s.project.Pages[s.active] = s.ActivePage().WithView(v)
	s.surface.FullReplay(s.ActivePage(), v)
}

// BeginStroke implements gesture.Handler.
func (s *Session) BeginStroke(p ink.Point) {
	s.builder = ink.NewStrokeBuilder(s.tool, s.color, s.size, s.opacity, p)
}

// ExtendStroke implements gesture.Handler: append the point and draw only
// the newest segment for live feedback.
func (s *Session) ExtendStroke(p ink.Point) {
	if s.builder == nil {
		return
	}
	last := s.builder.Last()
	s.builder.Extend(p)
	color, size, opacity := s.builder.Style()
	preview := ink.Stroke{Tool: s.builder.Tool(), Color: color, Size: size, Opacity: opacity}
	s.surface.DrawSegment(last, p, preview, s.View())
}

// EndStroke implements gesture.Handler. A pointer-up commits; a cancel
// commits partial strokes of at least two points and discards bare taps.
func (s *Session) EndStroke(cancelled bool) {
	if s.builder == nil {
		return
	}
	builder := s.builder
	s.builder = nil
	if cancelled && builder.Len() < 2 {
		// Discarded tap: wipe its preview pixels.
		s.surface.FullReplay(s.ActivePage(), s.View())
		return
	}
	s.commit(builder.Commit())
}

// commit appends a frozen stroke to the active page, snapshots history, and
// invalidates both redo channels.
func (s *Session) commit(stroke ink.Stroke) {
	page := s.ActivePage().WithStroke(stroke)
	s.project.Pages[s.active] = page
	s.redoStrokes[page.ID] = nil
	s.logs[page.ID].Push(page)
	// Replay canonicalizes the surface so live preview segments and the
	// committed stroke render identically.
	s.surface.FullReplay(page, page.View)
}

// --- history ---

// Undo restores the previous snapshot of a page. Returns false at the
// terminal state.
func (s *Session) Undo(pageID string) (bool, error) {
	log, idx, err := s.pageLog(pageID)
	if err != nil {
		return false, err
	}
	page, ok := log.Undo()
	if !ok {
		return false, nil
	}
	defer log.EndRestore()
	s.restore(idx, page)
	return true, nil
}

// Redo restores the next snapshot of a page symmetrically to Undo.
func (s *Session) Redo(pageID string) (bool, error) {
	log, idx, err := s.pageLog(pageID)
	if err != nil {
		return false, err
	}
	page, ok := log.Redo()
	if !ok {
		return false, nil
	}
	defer log.EndRestore()
	s.restore(idx, page)
	return true, nil
}

// UndoLastStroke pops just the newest stroke into a per-page redo buffer:
// the quick affordance next to full history scrubbing.
func (s *Session) UndoLastStroke(pageID string) (bool, error) {
	log, idx, err := s.pageLog(pageID)
	if err != nil {
		return false, err
	}
	page, removed, ok := s.project.Pages[idx].WithoutLastStroke()
	if !ok {
		return false, nil
	}
	s.project.Pages[idx] = page
	s.redoStrokes[pageID] = append(s.redoStrokes[pageID], removed)
	log.Push(page)
	s.replayIfActive(idx)
	return true, nil
}

// RedoLastStroke re-appends the stroke most recently removed by
// UndoLastStroke.
func (s *Session) RedoLastStroke(pageID string) (bool, error) {
	log, idx, err := s.pageLog(pageID)
	if err != nil {
		return false, err
	}
	buf := s.redoStrokes[pageID]
	if len(buf) == 0 {
		return false, nil
	}
	stroke := buf[len(buf)-1]
	s.redoStrokes[pageID] = buf[:len(buf)-1]
	page := s.project.Pages[idx].WithStroke(stroke)
	s.project.Pages[idx] = page
	log.Push(page)
	s.replayIfActive(idx)
	return true, nil
}

func (s *Session) restore(idx int, page ink.Page) {
	// A restored snapshot carries its own view; keep the live one so undo
	// does not yank the viewport around.
	page.View = s.project.Pages[idx].View
	s.project.Pages[idx] = page
	s.replayIfActive(idx)
}

// --- pages ---

// AddPage appends an empty page with independent history and view state.
func (s *Session) AddPage(title string, body ink.BodyType) ink.Page {
	surface := ink.DefaultSurface
	if !s.surface.LogicalSize().IsZero() {
		surface = s.surface.LogicalSize()
	}
	if title == "" {
		title = fmt.Sprintf("Page %d", len(s.project.Pages)+1)
	}
	page := ink.NewPage(title, body, surface)
	s.project.Pages = append(s.project.Pages, page)
	s.logs[page.ID] = history.NewLog(page, s.depth)
	return page
}

// DeletePage removes a page and its history. Deleting the last page swaps in
// a fresh empty one: a project never has zero pages.
func (s *Session) DeletePage(pageID string) error {
	idx := s.project.PageIndex(pageID)
	if idx < 0 {
		return fmt.Errorf("notebook: page %s: %w", pageID, apperr.ErrNotFound)
	}
	if s.active == idx {
		s.EndStroke(true)
		s.router.Reset()
	}
	delete(s.logs, pageID)
	delete(s.redoStrokes, pageID)
	s.project.Pages = append(s.project.Pages[:idx], s.project.Pages[idx+1:]...)

	if len(s.project.Pages) == 0 {
		page := ink.NewPage("Page 1", ink.BodyPlain, ink.DefaultSurface)
		s.project.Pages = []ink.Page{page}
		s.logs[page.ID] = history.NewLog(page, s.depth)
	}
	if s.active >= len(s.project.Pages) {
		s.active = len(s.project.Pages) - 1
	}
	s.reconcileSurface()
	return nil
}

// AppendText appends OCR-recognized text to a page. Text is a content edit
// (it snapshots history) but flows through a channel that never touches
// stroke or view state.
func (s *Session) AppendText(pageID, text string) error {
	log, idx, err := s.pageLog(pageID)
	if err != nil {
		return err
	}
	page := s.project.Pages[idx].WithText(text)
	s.project.Pages[idx] = page
	log.Push(page)
	return nil
}

// --- surface ---

// AttachSurface gives the active page a render target with the given logical
// size and device-pixel-ratio, replacing any previous one.
func (s *Session) AttachSurface(size geom.Size, dpr float64) {
	s.surface = raster.NewSurface(size, dpr)
	s.reconcileSurface()
}

// DetachSurface drops the render target. Capture keeps working; rendering
// becomes a no-op until a surface is attached again.
func (s *Session) DetachSurface() {
	s.surface = nil
}

// Resize handles a backing-size change for the active page: rescale the
// stored strokes first, update the capture size in the same step, and only
// then replay. Replaying before the rescale would draw distorted strokes.
func (s *Session) Resize(size geom.Size, dpr float64) {
	s.EndStroke(true)
	s.surface = raster.NewSurface(size, dpr)
	s.reconcileSurface()
}

// reconcileSurface rescales the active page if its capture size materially
// differs from the current surface, then replays.
func (s *Session) reconcileSurface() {
	if s.surface == nil {
		return
	}
	page := s.ActivePage()
	if geom.SizesDiffer(page.Surface, s.surface.LogicalSize()) {
		rescaled := page.RescaleSurface(s.surface.LogicalSize())
		s.project.Pages[s.active] = rescaled
		// The rescale replaces history for this page: old snapshots and
		// buffered quick-redo strokes reference the stale surface size.
		s.logs[page.ID] = history.NewLog(rescaled, s.depth)
		delete(s.redoStrokes, page.ID)
		page = rescaled
	}
	s.surface.FullReplay(page, page.View)
}

// Export replays one page at the requested resolution for the export/print
// collaborator. The live canvas is untouched.
func (s *Session) Export(pageID string, target geom.Size) (*image.RGBA, error) {
	idx := s.project.PageIndex(pageID)
	if idx < 0 {
		return nil, fmt.Errorf("notebook: page %s: %w", pageID, apperr.ErrNotFound)
	}
	img := raster.Render(s.project.Pages[idx], target)
	if img == nil {
		return nil, fmt.Errorf("notebook: export %s: invalid target size", pageID)
	}
	return img, nil
}

// Surface returns the live render target, nil when detached.
func (s *Session) Surface() *raster.Surface {
	return s.surface
}

func (s *Session) pageLog(pageID string) (*history.Log, int, error) {
	idx := s.project.PageIndex(pageID)
	if idx < 0 {
		return nil, 0, fmt.Errorf("notebook: page %s: %w", pageID, apperr.ErrNotFound)
	}
	log, ok := s.logs[pageID]
	if !ok {
		log = history.NewLog(s.project.Pages[idx], s.depth)
		s.logs[pageID] = log
	}
	return log, idx, nil
}

func (s *Session) replayIfActive(idx int) {
	if idx == s.active {
		page := s.project.Pages[idx]
		s.surface.FullReplay(page, page.View)
	}
}
