// Package gesture classifies pointer input into draw, pan, and pinch-zoom
// gestures. The router is an explicit state machine over a tagged-union state
// value, which keeps the mutual exclusion of drawing and view gestures
// checkable in one place instead of scattered flags.
package gesture

import (
	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/ink"
)

// EventType is the pointer event phase.
type EventType string

const (
	Down   EventType = "down"
	Move   EventType = "move"
	Up     EventType = "up"
	Cancel EventType = "cancel"
)

// PointerKind distinguishes input devices; pinch and scale-gated panning
// apply to touch pointers only.
type PointerKind string

const (
	Mouse PointerKind = "mouse"
	Touch PointerKind = "touch"
	Pen   PointerKind = "pen"
)

// PointerEvent is one pointer sample in screen coordinates relative to the
// canvas rect.
type PointerEvent struct {
	Type      EventType
	ID        int
	Kind      PointerKind
	Pos       geom.Point
	Pressure  float64
	SpaceHeld bool
}

// WheelZoomFactor converts a wheel deltaY into a scale change for
// modifier-wheel zooming.
const WheelZoomFactor = 0.0015

// Handler receives the router's decisions. It is implemented by the notebook
// session, which owns the page, the stroke builder, and the view state.
type Handler interface {
	// ActiveTool gates drawing: a non-none tool suppresses pan and pinch.
	ActiveTool() ink.Tool
	// View returns the current view transform; the router never caches it.
	View() geom.ViewState
	// SetView applies a pan/zoom change.
	SetView(geom.ViewState)
	// BeginStroke opens a stroke at a logical point.
	BeginStroke(p ink.Point)
	// ExtendStroke appends a logical point to the open stroke.
	ExtendStroke(p ink.Point)
	// EndStroke closes the open stroke. cancelled marks an interrupted
	// gesture (palm rejection, OS interruption): partial strokes with at
	// least two points still commit, single-sample strokes are discarded.
	EndStroke(cancelled bool)
}

// Tagged-union gesture state. Exactly one variant is live at a time.
type state interface{ gestureState() }

type idle struct{}

type drawing struct {
	pointer int
}

type panning struct {
	pointer   int
	startPos  geom.Point
	startView geom.ViewState
}

type pinching struct {
	a, b      int
	initDist  float64
	initMid   geom.Point
	startView geom.ViewState
}

func (idle) gestureState()     {}
func (drawing) gestureState()  {}
func (panning) gestureState()  {}
func (pinching) gestureState() {}

// Router owns the transient per-gesture state for one page surface.
type Router struct {
	h        Handler
	st       state
	pointers map[int]geom.Point
	kinds    map[int]PointerKind
}

// NewRouter creates a router in the idle state.
func NewRouter(h Handler) *Router {
	return &Router{
		h:        h,
		st:       idle{},
		pointers: make(map[int]geom.Point),
		kinds:    make(map[int]PointerKind),
	}
}

// State names the current gesture for logging and tests.
func (r *Router) State() string {
	switch r.st.(type) {
	case drawing:
		return "drawing"
	case panning:
		return "panning"
	case pinching:
		return "pinching"
	default:
		return "idle"
	}
}

// Reset clears all gesture and pointer state without touching the handler.
func (r *Router) Reset() {
	r.st = idle{}
	r.pointers = make(map[int]geom.Point)
	r.kinds = make(map[int]PointerKind)
}

// Pointer feeds one pointer event through the state machine.
func (r *Router) Pointer(ev PointerEvent) {
	switch ev.Type {
	case Down:
		r.down(ev)
	case Move:
		r.move(ev)
	case Up, Cancel:
		r.up(ev)
	}
}

func (r *Router) down(ev PointerEvent) {
	// A pointer-down with no tracked pointers self-heals any gesture state
	// left dangling by an unexpected event ordering.
	if len(r.pointers) == 0 {
		r.st = idle{}
	}
	r.pointers[ev.ID] = ev.Pos
	r.kinds[ev.ID] = ev.Kind

	switch r.st.(type) {
	case idle:
		tool := r.h.ActiveTool()
		if tool.Drawing() {
			r.st = drawing{pointer: ev.ID}
			r.h.BeginStroke(r.logical(ev))
			return
		}
		if ev.Kind == Touch && r.touchCount() >= 2 {
			r.beginPinch()
			return
		}
		if ev.SpaceHeld || (ev.Kind == Touch && r.h.View().Scale > 1) {
			r.st = panning{pointer: ev.ID, startPos: ev.Pos, startView: r.h.View()}
		}

	case panning:
		if ev.Kind == Touch && r.touchCount() >= 2 {
			r.beginPinch()
		}

		// Drawing suppresses all view gestures entirely, and a third
		// pointer during a pinch is ignored.
	}
}

func (r *Router) move(ev PointerEvent) {
	if _, ok := r.pointers[ev.ID]; !ok {
		return
	}
	r.pointers[ev.ID] = ev.Pos

	switch st := r.st.(type) {
	case drawing:
		if ev.ID == st.pointer {
			r.h.ExtendStroke(r.logical(ev))
		}

	case panning:
		if ev.ID == st.pointer {
			offset := st.startView.Offset().Add(ev.Pos.Sub(st.startPos))
			r.h.SetView(st.startView.WithOffset(offset))
		}

	case pinching:
		if ev.ID != st.a && ev.ID != st.b {
			return
		}
		m := geom.Pinch(r.pointers[st.a], r.pointers[st.b])
		if st.initDist <= 0 {
			return
		}
		v := st.startView
		v.Scale = geom.ClampScale(st.startView.Scale * m.Distance / st.initDist)
		v = v.WithOffset(st.startView.Offset().Add(m.Midpoint.Sub(st.initMid)))
		r.h.SetView(v)
	}
}

func (r *Router) up(ev PointerEvent) {
	_, tracked := r.pointers[ev.ID]
	delete(r.pointers, ev.ID)
	delete(r.kinds, ev.ID)
	if !tracked {
		return
	}

	switch st := r.st.(type) {
	case drawing:
		if ev.ID == st.pointer {
			r.h.EndStroke(ev.Type == Cancel)
			r.st = idle{}
		}

	case panning:
		if ev.ID == st.pointer {
			// Freeze the view where it is; cancel behaves like up.
			r.st = idle{}
		}

	case pinching:
		if ev.ID != st.a && ev.ID != st.b {
			return
		}
		remaining := st.a
		if ev.ID == st.a {
			remaining = st.b
		}
		if p, ok := r.pointers[remaining]; ok {
			r.st = panning{pointer: remaining, startPos: p, startView: r.h.View()}
		} else {
			r.st = idle{}
		}
	}
}

// Wheel applies a modifier-wheel zoom: a synchronous clamped scale change
// with no gesture state. Zooming stays centered on the current offset rather
// than the cursor, matching the shipped behavior.
func (r *Router) Wheel(deltaY float64, modifier bool) {
	if !modifier {
		return
	}
	v := r.h.View()
	v.Scale = geom.ClampScale(v.Scale - deltaY*WheelZoomFactor)
	r.h.SetView(v)
}

// beginPinch promotes the two most recent touch pointers into a pinch.
func (r *Router) beginPinch() {
	var ids []int
	for id, kind := range r.kinds {
		if kind == Touch {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return
	}
	a, b := ids[0], ids[1]
	m := geom.Pinch(r.pointers[a], r.pointers[b])
	r.st = pinching{
		a: a, b: b,
		initDist:  m.Distance,
		initMid:   m.Midpoint,
		startView: r.h.View(),
	}
}

func (r *Router) touchCount() int {
	n := 0
	for _, kind := range r.kinds {
		if kind == Touch {
			n++
		}
	}
	return n
}

func (r *Router) logical(ev PointerEvent) ink.Point {
	p := r.h.View().ScreenToLogical(ev.Pos)
	return ink.Point{X: p.X, Y: p.Y, Pressure: ev.Pressure}
}
