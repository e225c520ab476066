package raster

import (
	"bytes"
	"testing"

	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/ink"
)

func penStroke(points ...ink.Point) ink.Stroke {
	return ink.Stroke{
		ID: "pen", Tool: ink.ToolPen, Color: ink.Black, Size: 6, Opacity: 1,
		Points: points,
	}
}

func eraserStroke(points ...ink.Point) ink.Stroke {
	return ink.Stroke{
		ID: "erase", Tool: ink.ToolEraser, Color: ink.Black, Size: 10, Opacity: 1,
		Points: points,
	}
}

func testSize() geom.Size {
	return geom.Size{Width: 64, Height: 64}
}

func TestFullReplayIdempotent(t *testing.T) {
	page := ink.NewPage("p", ink.BodyPlain, testSize())
	page = page.WithStroke(penStroke(ink.Point{X: 10, Y: 10}, ink.Point{X: 50, Y: 40}))
	page = page.WithStroke(ink.Stroke{
		ID: "hl", Tool: ink.ToolHighlighter, Color: ink.Color{R: 255, G: 230, A: 255},
		Size: 12, Opacity: 0.4,
		Points: []ink.Point{{X: 10, Y: 30}, {X: 50, Y: 30}},
	})

	s := NewSurface(testSize(), 1)
	s.FullReplay(page, geom.DefaultView())
	first := append([]uint8(nil), s.Image().Pix...)

	s.FullReplay(page, geom.DefaultView())
	if !bytes.Equal(first, s.Image().Pix) {
		t.Error("two replays of the same page must be pixel-identical")
	}
}

func TestReplayDrawsSomething(t *testing.T) {
	page := ink.NewPage("p", ink.BodyPlain, testSize())
	page = page.WithStroke(penStroke(ink.Point{X: 10, Y: 10}, ink.Point{X: 50, Y: 50}))

	s := NewSurface(testSize(), 1)
	s.FullReplay(page, geom.DefaultView())

	if alphaAt(s, 30, 30) == 0 {
		t.Error("pixel on the stroke path is blank")
	}
	if alphaAt(s, 5, 55) != 0 {
		t.Error("pixel far from the stroke is painted")
	}
}

func TestEraserOrderDependence(t *testing.T) {
	size := testSize()
	mid := ink.Point{X: 32, Y: 32}

	// Eraser after pen: the pen pixels are knocked out.
	after := ink.NewPage("a", ink.BodyPlain, size)
	after = after.WithStroke(penStroke(ink.Point{X: 10, Y: 32}, ink.Point{X: 54, Y: 32}))
	after = after.WithStroke(eraserStroke(ink.Point{X: 32, Y: 10}, mid, ink.Point{X: 32, Y: 54}))

	s := NewSurface(size, 1)
	s.FullReplay(after, geom.DefaultView())
	if alphaAt(s, 32, 32) != 0 {
		t.Error("eraser drawn after pen must clear the crossing pixel")
	}
	if alphaAt(s, 12, 32) == 0 {
		t.Error("pen pixels away from the eraser must survive")
	}

	// Eraser before pen: the later pen stroke is unaffected.
	before := ink.NewPage("b", ink.BodyPlain, size)
	before = before.WithStroke(eraserStroke(ink.Point{X: 32, Y: 10}, mid, ink.Point{X: 32, Y: 54}))
	before = before.WithStroke(penStroke(ink.Point{X: 10, Y: 32}, ink.Point{X: 54, Y: 32}))

	s.FullReplay(before, geom.DefaultView())
	if alphaAt(s, 32, 32) == 0 {
		t.Error("eraser drawn before a pen stroke must not affect it")
	}
}

func TestDotRendering(t *testing.T) {
	page := ink.NewPage("p", ink.BodyPlain, testSize())
	// A committed tap: duplicated point pair.
	page = page.WithStroke(penStroke(ink.Point{X: 32, Y: 32}, ink.Point{X: 32, Y: 32}))

	s := NewSurface(testSize(), 1)
	s.FullReplay(page, geom.DefaultView())
	if alphaAt(s, 32, 32) == 0 {
		t.Error("a tap must render as a dot of the stroke width")
	}
}

func TestReplayHonorsViewTransform(t *testing.T) {
	page := ink.NewPage("p", ink.BodyPlain, testSize())
	page = page.WithStroke(penStroke(ink.Point{X: 10, Y: 10}, ink.Point{X: 20, Y: 10}))

	s := NewSurface(testSize(), 1)
	view := geom.ViewState{Scale: 2, OffsetX: 8, OffsetY: 8}
	s.FullReplay(page, view)

	// Logical (15,10) lands at screen (38,28) under this view.
	if alphaAt(s, 38, 28) == 0 {
		t.Error("stroke not found at view-transformed position")
	}
	if alphaAt(s, 15, 10) != 0 {
		t.Error("stroke painted at untransformed position")
	}
}

func TestNilSurfaceIsNoop(t *testing.T) {
	var s *Surface
	page := ink.NewPage("p", ink.BodyPlain, testSize())

	// None of these may panic; capture continues even when rendering is
	// unavailable.
	s.FullReplay(page, geom.DefaultView())
	s.DrawSegment(ink.Point{X: 1, Y: 1}, ink.Point{X: 2, Y: 2}, penStroke(), geom.DefaultView())
	s.Clear()
	if s.Image() != nil || !s.LogicalSize().IsZero() {
		t.Error("nil surface accessors must return zero values")
	}
}

func TestRenderAtExportResolution(t *testing.T) {
	size := geom.Size{Width: 50, Height: 50}
	page := ink.NewPage("p", ink.BodyPlain, size)
	page = page.WithStroke(penStroke(ink.Point{X: 10, Y: 25}, ink.Point{X: 40, Y: 25}))

	img := Render(page, geom.Size{Width: 100, Height: 100})
	if img == nil {
		t.Fatal("Render returned nil")
	}
	if img.Rect.Dx() != 100 || img.Rect.Dy() != 100 {
		t.Fatalf("render size = %v", img.Rect)
	}
	// The stroke midpoint scales with the target resolution.
	if img.RGBAAt(50, 50).A == 0 {
		t.Error("stroke missing at scaled position")
	}
	if img.RGBAAt(25, 25).A != 0 {
		t.Error("stroke painted at unscaled position")
	}
}

func TestDPRScalesBackingBuffer(t *testing.T) {
	s := NewSurface(geom.Size{Width: 30, Height: 20}, 2)
	if s.Image().Rect.Dx() != 60 || s.Image().Rect.Dy() != 40 {
		t.Errorf("backing buffer = %v, want 60x40", s.Image().Rect)
	}
	if s.LogicalSize() != (geom.Size{Width: 30, Height: 20}) {
		t.Errorf("logical size = %v", s.LogicalSize())
	}
}

func TestHighlighterBlendsOnce(t *testing.T) {
	// A multi-segment highlighter stroke must not double-blend at the
	// segment joints: the whole stroke is one coverage mask.
	page := ink.NewPage("p", ink.BodyPlain, testSize())
	page = page.WithStroke(ink.Stroke{
		ID: "hl", Tool: ink.ToolHighlighter, Color: ink.Color{B: 255, A: 255},
		Size: 10, Opacity: 0.5,
		Points: []ink.Point{{X: 10, Y: 32}, {X: 32, Y: 32}, {X: 54, Y: 32}},
	})

	s := NewSurface(testSize(), 1)
	s.FullReplay(page, geom.DefaultView())

	jointAlpha := alphaAt(s, 32, 32)
	middleAlpha := alphaAt(s, 20, 32)
	if jointAlpha != middleAlpha {
		t.Errorf("joint alpha %d != segment alpha %d", jointAlpha, middleAlpha)
	}
}

func alphaAt(s *Surface, x, y int) uint8 {
	return s.Image().RGBAAt(x, y).A
}
