// Package geom provides the coordinate-space math for the canvas engine:
// screen↔logical transforms, pinch metrics, scale clamping, and surface
// rescale factors.
package geom

import "math"

// Scale bounds for the page view transform. Gestures that would push the
// scale outside this range keep panning but stop changing scale.
const (
	MinScale = 0.6
	MaxScale = 2.5
)

// Point is a position in either screen or logical (surface) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Size is a surface extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is missing or degenerate.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// ViewState is the pan/zoom transform applied to a page at render time.
type ViewState struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// DefaultView returns the identity view for a fresh page.
func DefaultView() ViewState {
	return ViewState{Scale: 1}
}

// Offset returns the pan offset as a point.
func (v ViewState) Offset() Point {
	return Point{X: v.OffsetX, Y: v.OffsetY}
}

// WithOffset returns a copy of the view with the given pan offset.
func (v ViewState) WithOffset(o Point) ViewState {
	v.OffsetX = o.X
	v.OffsetY = o.Y
	return v
}

// ScreenToLogical inverts the view transform, mapping a raw pointer position
// into the page's unscaled coordinate space.
func (v ViewState) ScreenToLogical(screen Point) Point {
	scale := v.Scale
	if scale == 0 {
		scale = 1
	}
	return Point{
		X: (screen.X - v.OffsetX) / scale,
		Y: (screen.Y - v.OffsetY) / scale,
	}
}

// LogicalToScreen applies the view transform to a logical point.
func (v ViewState) LogicalToScreen(logical Point) Point {
	return Point{
		X: logical.X*v.Scale + v.OffsetX,
		Y: logical.Y*v.Scale + v.OffsetY,
	}
}

// Sanitize applies defaults to a rehydrated view so the engine never sees a
// zero scale from persisted data.
func (v ViewState) Sanitize() ViewState {
	if v.Scale == 0 {
		v.Scale = 1
	}
	v.Scale = ClampScale(v.Scale)
	return v
}

// ClampScale clamps a requested scale into [MinScale, MaxScale].
// Out-of-range requests are clamped, never rejected.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return math.Min(MaxScale, math.Max(MinScale, s))
}

// PinchMetrics describes two active touch pointers: their Euclidean distance
// and arithmetic-mean midpoint.
type PinchMetrics struct {
	Distance float64
	Midpoint Point
}

// Pinch computes the metrics for a two-pointer gesture.
func Pinch(p1, p2 Point) PinchMetrics {
	return PinchMetrics{
		Distance: p1.Distance(p2),
		Midpoint: Point{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2},
	}
}

// RescaleFactors returns the per-axis multipliers that map points captured at
// oldSize onto a surface of newSize.
func RescaleFactors(oldSize, newSize Size) (fx, fy float64) {
	if oldSize.IsZero() || newSize.IsZero() {
		return 1, 1
	}
	return newSize.Width / oldSize.Width, newSize.Height / oldSize.Height
}

// AvgScaleFactor returns the mean of the two rescale axes, used to scale
// stroke widths when replaying at a resolution other than capture size.
func AvgScaleFactor(oldSize, newSize Size) float64 {
	fx, fy := RescaleFactors(oldSize, newSize)
	return (fx + fy) / 2
}

// SizesDiffer reports whether two surface sizes differ materially (by more
// than one pixel on either axis). Sub-pixel jitter from layout rounding must
// not trigger a rescale.
func SizesDiffer(a, b Size) bool {
	return math.Abs(a.Width-b.Width) > 1 || math.Abs(a.Height-b.Height) > 1
}
