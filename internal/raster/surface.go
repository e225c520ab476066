// Package raster renders committed and in-progress strokes onto an RGBA
// surface. Replay is deterministic: the same page always produces the same
// pixels, which makes the resize-triggered rescale-then-replay sequence safe
// to repeat.
package raster

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/ink"
)

// Surface is a drawing target backed by an RGBA buffer sized
// logical × device-pixel-ratio, mirroring how a browser canvas separates its
// display size from its backing store.
//
// A nil *Surface is valid and turns every rendering call into a no-op, so
// stroke capture keeps working when no render target is available.
type Surface struct {
	logical geom.Size
	dpr     float64
	img     *image.RGBA
}

// NewSurface allocates a surface with the given logical size and DPR.
func NewSurface(logical geom.Size, dpr float64) *Surface {
	if logical.IsZero() {
		return nil
	}
	if dpr <= 0 {
		dpr = 1
	}
	w := int(logical.Width*dpr + 0.5)
	h := int(logical.Height*dpr + 0.5)
	if w <= 0 || h <= 0 {
		return nil
	}
	return &Surface{
		logical: logical,
		dpr:     dpr,
		img:     image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// LogicalSize returns the surface's display size.
func (s *Surface) LogicalSize() geom.Size {
	if s == nil {
		return geom.Size{}
	}
	return s.logical
}

// DPR returns the device-pixel-ratio the backing buffer was sized with.
func (s *Surface) DPR() float64 {
	if s == nil {
		return 0
	}
	return s.dpr
}

// Image exposes the backing buffer, e.g. for the export collaborator or
// pixel assertions in tests.
func (s *Surface) Image() *image.RGBA {
	if s == nil {
		return nil
	}
	return s.img
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	if s == nil {
		return
	}
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}

// FullReplay clears the surface and draws every stroke in commit order with
// the given view transform. Order is load-bearing: an eraser stroke knocks
// out only the pixels of strokes drawn before it.
func (s *Surface) FullReplay(page ink.Page, view geom.ViewState) {
	if s == nil {
		return
	}
	s.Clear()
	fx, fy := geom.RescaleFactors(page.Surface, s.logical)
	widthScale := (fx + fy) / 2 * view.Scale * s.dpr
	for _, stroke := range page.Strokes {
		s.drawStroke(stroke, fx, fy, view, widthScale)
	}
}

// DrawSegment rasterizes only the newest line segment of a stroke in
// progress, avoiding a full replay per pointer-move on long strokes. The
// page is replayed in full once the stroke commits, so live segments never
// become the surface's long-term truth.
func (s *Surface) DrawSegment(a, b ink.Point, stroke ink.Stroke, view geom.ViewState) {
	if s == nil {
		return
	}
	widthScale := view.Scale * s.dpr
	radius := stroke.Size * widthScale / 2
	pa := s.device(a, 1, 1, view)
	pb := s.device(b, 1, 1, view)

	r := vector.NewRasterizer(s.img.Rect.Dx(), s.img.Rect.Dy())
	capsule(r, pa, pb, radius)
	mask := rasterizeMask(r)
	s.composite(mask, stroke)
}

// drawStroke renders one committed stroke as a single coverage mask so that
// a translucent highlighter blends once per stroke, not once per segment.
func (s *Surface) drawStroke(stroke ink.Stroke, fx, fy float64, view geom.ViewState, widthScale float64) {
	if len(stroke.Points) < 2 {
		return
	}
	radius := stroke.Size * widthScale / 2
	if radius <= 0 {
		return
	}
	r := vector.NewRasterizer(s.img.Rect.Dx(), s.img.Rect.Dy())
	for i := 1; i < len(stroke.Points); i++ {
		a := s.device(stroke.Points[i-1], fx, fy, view)
		b := s.device(stroke.Points[i], fx, fy, view)
		capsule(r, a, b, radius)
	}
	mask := rasterizeMask(r)
	s.composite(mask, stroke)
}

func (s *Surface) composite(mask *image.Alpha, stroke ink.Stroke) {
	if stroke.Tool == ink.ToolEraser {
		eraseThrough(s.img, mask)
		return
	}
	blendOver(s.img, mask, stroke.Color, stroke.Opacity)
}

// device maps a logical page point into backing-buffer pixels: rescale onto
// the surface's logical size, apply the view transform, then the DPR.
func (s *Surface) device(p ink.Point, fx, fy float64, view geom.ViewState) geom.Point {
	scaled := geom.Pt(p.X*fx, p.Y*fy)
	return view.LogicalToScreen(scaled).Mul(s.dpr)
}

// Render replays a page at an arbitrary resolution with an identity view,
// for the export/print collaborator. Stroke widths scale by the mean of the
// two axis factors. Encoding the result is the caller's concern.
func Render(page ink.Page, target geom.Size) *image.RGBA {
	s := NewSurface(target, 1)
	if s == nil {
		return nil
	}
	s.FullReplay(page, geom.DefaultView())
	return s.img
}
