package ink

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridel/inkwell/internal/geom"
)

// DefaultSurface is the capture size assigned to pages created before any
// client has reported a real canvas size.
var DefaultSurface = geom.Size{Width: 794, Height: 1123}

// Project is an ordered collection of pages. Each page owns its strokes,
// view state, and (at the session layer) its own history.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Pages     []Page    `json:"pages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a project with a single empty page. A project never has
// zero pages.
func NewProject(title string) *Project {
	return &Project{
		ID:        uuid.NewString(),
		Title:     title,
		Pages:     []Page{NewPage("Page 1", BodyPlain, DefaultSurface)},
		UpdatedAt: time.Now().UTC(),
	}
}

// PageIndex returns the position of the page with the given id, or -1.
func (p *Project) PageIndex(pageID string) int {
	for i := range p.Pages {
		if p.Pages[i].ID == pageID {
			return i
		}
	}
	return -1
}

// Encode serializes the project document.
func (p *Project) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ink: encode project: %w", err)
	}
	return data, nil
}

// rawProject mirrors Project with pages kept raw so a corrupt page can be
// skipped without losing its siblings.
type rawProject struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Pages     []json.RawMessage `json:"pages"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DecodeProject rehydrates a project document, failing soft on page-level
// corruption: a page that cannot be decoded is replaced by an empty one, and
// missing optional fields get defaults. Only a document that is not valid
// JSON at the top level returns an error.
func DecodeProject(data []byte) (*Project, error) {
	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ink: decode project: %w", err)
	}
	p := &Project{
		ID:        raw.ID,
		Title:     raw.Title,
		UpdatedAt: raw.UpdatedAt,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Pages = make([]Page, 0, len(raw.Pages))
	for _, rp := range raw.Pages {
		var page Page
		if err := json.Unmarshal(rp, &page); err != nil {
			page = NewPage("", BodyPlain, DefaultSurface)
		}
		p.Pages = append(p.Pages, page.Sanitize())
	}
	if len(p.Pages) == 0 {
		p.Pages = []Page{NewPage("Page 1", BodyPlain, DefaultSurface)}
	}
	return p, nil
}
