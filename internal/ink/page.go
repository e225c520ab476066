package ink

import (
	"github.com/google/uuid"

	"github.com/meridel/inkwell/internal/geom"
)

// BodyType selects the page background ruling. The ruling is a rendering
// concern only; it never affects stroke coordinates.
type BodyType string

const (
	BodyPlain   BodyType = "plain"
	BodyRuled   BodyType = "ruled"
	BodyGrid    BodyType = "grid"
	BodyCornell BodyType = "cornell"
)

// ParseBodyType converts a wire value, defaulting to plain.
func ParseBodyType(s string) BodyType {
	switch BodyType(s) {
	case BodyRuled, BodyGrid, BodyCornell:
		return BodyType(s)
	}
	return BodyPlain
}

// Page is one drawing surface: an ordered stroke list, its own view
// transform, the surface size strokes were captured against, and any text
// content appended through the OCR channel.
//
// Stroke coordinates are relative to Surface at capture time. When the
// backing canvas later resizes, RescaleSurface must run before the next
// replay so stored points and Surface stay consistent.
type Page struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Body    BodyType       `json:"bodyType"`
	Strokes []Stroke       `json:"strokes"`
	View    geom.ViewState `json:"view"`
	Surface geom.Size      `json:"surface"`
	Text    string         `json:"text,omitempty"`
}

// NewPage creates an empty page with an identity view.
func NewPage(title string, body BodyType, surface geom.Size) Page {
	return Page{
		ID:      uuid.NewString(),
		Title:   title,
		Body:    body,
		Strokes: []Stroke{},
		View:    geom.DefaultView(),
		Surface: surface,
	}
}

// Clone returns a deep copy suitable for history snapshots: nothing in the
// copy aliases the original's slices.
func (p Page) Clone() Page {
	out := p
	out.Strokes = make([]Stroke, len(p.Strokes))
	for i, s := range p.Strokes {
		out.Strokes[i] = s.Clone()
	}
	return out
}

// WithStroke returns a copy of the page with the stroke appended.
func (p Page) WithStroke(s Stroke) Page {
	out := p
	out.Strokes = make([]Stroke, len(p.Strokes), len(p.Strokes)+1)
	copy(out.Strokes, p.Strokes)
	out.Strokes = append(out.Strokes, s)
	return out
}

// WithoutLastStroke returns a copy of the page minus its newest stroke,
// along with the removed stroke. ok is false when the page has no strokes.
func (p Page) WithoutLastStroke() (Page, Stroke, bool) {
	if len(p.Strokes) == 0 {
		return p, Stroke{}, false
	}
	out := p
	out.Strokes = make([]Stroke, len(p.Strokes)-1)
	copy(out.Strokes, p.Strokes[:len(p.Strokes)-1])
	return out, p.Strokes[len(p.Strokes)-1], true
}

// WithView returns a copy of the page with the view replaced. View changes
// are not content edits and never enter the snapshot history.
func (p Page) WithView(v geom.ViewState) Page {
	p.View = v
	return p
}

// WithText returns a copy of the page with text appended. Text arrives only
// through the OCR collaborator and never conflicts with stroke state.
func (p Page) WithText(text string) Page {
	if p.Text == "" {
		p.Text = text
	} else {
		p.Text += "\n" + text
	}
	return p
}

// RescaleSurface maps every stored point onto a new surface size and updates
// Surface in the same step. The two must never be updated separately: a
// partial update corrupts stroke alignment permanently.
func (p Page) RescaleSurface(newSize geom.Size) Page {
	if newSize.IsZero() || !geom.SizesDiffer(p.Surface, newSize) {
		return p
	}
	fx, fy := geom.RescaleFactors(p.Surface, newSize)
	out := p
	out.Strokes = make([]Stroke, len(p.Strokes))
	for i, s := range p.Strokes {
		ns := s
		ns.Points = make([]Point, len(s.Points))
		for j, pt := range s.Points {
			pt.X *= fx
			pt.Y *= fy
			ns.Points[j] = pt
		}
		out.Strokes[i] = ns
	}
	out.Surface = newSize
	return out
}

// Sanitize repairs a rehydrated page in place of failing: defaults are
// applied to the view and strokes, and unusable stroke records are dropped so
// one corrupt page never blocks loading the rest of the project.
func (p Page) Sanitize() Page {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Body = ParseBodyType(string(p.Body))
	p.View = p.View.Sanitize()
	if p.Surface.IsZero() {
		// Without a capture size stored points cannot be trusted.
		p.Strokes = []Stroke{}
		return p
	}
	clean := make([]Stroke, 0, len(p.Strokes))
	for _, s := range p.Strokes {
		if ss, ok := s.Sanitize(); ok {
			clean = append(clean, ss)
		}
	}
	p.Strokes = clean
	return p
}
