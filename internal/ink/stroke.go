package ink

import (
	"github.com/google/uuid"

	"github.com/meridel/inkwell/internal/geom"
)

// Point is a sampled pointer position in logical (surface) coordinates,
// captured relative to the physical pixel size of the canvas at capture time.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure,omitempty"`
}

// XY returns the point's position without pressure.
func (p Point) XY() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

// Stroke is an immutable recorded freehand path. Once committed it is never
// mutated; edits happen by replacing the owning page's stroke list.
type Stroke struct {
	ID      string  `json:"id"`
	Tool    Tool    `json:"tool"`
	Color   Color   `json:"color"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity,omitempty"`
	Points  []Point `json:"points"`
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	out := s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return out
}

// Sanitize applies defaults to a rehydrated stroke and reports whether the
// record is usable at all. A stroke without a valid tool or point list is
// dropped by the caller rather than failing the whole page.
func (s Stroke) Sanitize() (Stroke, bool) {
	if !s.Tool.Drawing() || len(s.Points) == 0 {
		return Stroke{}, false
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Size <= 0 {
		s.Size = 2
	}
	if s.Opacity <= 0 || s.Opacity > 1 {
		s.Opacity = 1
	}
	s.Color = s.Color.Sanitize()
	if len(s.Points) == 1 {
		// Single-point taps are stored as a dot: the lone sample is
		// duplicated so the renderer always has a segment to draw.
		s.Points = append(s.Points, s.Points[0])
	}
	return s, true
}

// StrokeBuilder accumulates points for a stroke in progress. It is not part
// of any page until Commit freezes it.
type StrokeBuilder struct {
	tool    Tool
	color   Color
	size    float64
	opacity float64
	points  []Point
}

// NewStrokeBuilder opens a builder with the first captured point.
func NewStrokeBuilder(tool Tool, color Color, size, opacity float64, first Point) *StrokeBuilder {
	if size <= 0 {
		size = 2
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return &StrokeBuilder{
		tool:    tool,
		color:   color.Sanitize(),
		size:    size,
		opacity: opacity,
		points:  []Point{first},
	}
}

// Extend appends a point to the stroke in progress.
func (b *StrokeBuilder) Extend(p Point) {
	b.points = append(b.points, p)
}

// Last returns the most recently captured point.
func (b *StrokeBuilder) Last() Point {
	return b.points[len(b.points)-1]
}

// Len returns the number of captured points.
func (b *StrokeBuilder) Len() int {
	return len(b.points)
}

// Tool returns the builder's drawing tool.
func (b *StrokeBuilder) Tool() Tool {
	return b.tool
}

// Style returns the builder's visual parameters for live rendering.
func (b *StrokeBuilder) Style() (Color, float64, float64) {
	return b.color, b.size, b.opacity
}

// Commit freezes the builder into an immutable Stroke. A tap with no drag
// commits as a dot: the single sample is duplicated into a two-point stroke.
func (b *StrokeBuilder) Commit() Stroke {
	points := make([]Point, len(b.points))
	copy(points, b.points)
	if len(points) == 1 {
		points = append(points, points[0])
	}
	return Stroke{
		ID:      uuid.NewString(),
		Tool:    b.tool,
		Color:   b.color,
		Size:    b.size,
		Opacity: b.opacity,
		Points:  points,
	}
}
