package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/gesture"
	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/projectservice"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Title string `json:"title" example:"Physics notes"`
}

// Validate implements validation.Validatable.
func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

// RenameProjectRequest is the request body for renaming a project.
type RenameProjectRequest struct {
	Title string `json:"title" example:"Physics notes (archived)"`
}

// Validate implements validation.Validatable.
func (r RenameProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

// AddPageRequest is the request body for appending a page.
type AddPageRequest struct {
	Title    string `json:"title,omitempty" example:"Lecture 4"`
	BodyType string `json:"bodyType,omitempty" example:"ruled"`
}

// Validate implements validation.Validatable.
func (r AddPageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, 200)),
		validation.Field(&r.BodyType, validation.In("plain", "ruled", "grid", "cornell")),
	)
}

// PointerEventDTO is one pointer sample in canvas-relative screen pixels.
type PointerEventDTO struct {
	Type      string  `json:"type" example:"move"`
	ID        int     `json:"id" example:"1"`
	Kind      string  `json:"kind" example:"pen"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressure  float64 `json:"pressure,omitempty"`
	SpaceHeld bool    `json:"spaceHeld,omitempty"`
}

// Validate implements validation.Validatable.
func (p PointerEventDTO) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Type, validation.Required, validation.In("down", "move", "up", "cancel")),
		validation.Field(&p.Kind, validation.Required, validation.In("mouse", "touch", "pen")),
	)
}

// WheelEventDTO is one scroll-wheel sample.
type WheelEventDTO struct {
	DeltaY   float64 `json:"deltaY"`
	Modifier bool    `json:"modifier,omitempty"`
}

// InputEventDTO carries exactly one of a pointer or a wheel sample.
type InputEventDTO struct {
	Pointer *PointerEventDTO `json:"pointer,omitempty"`
	Wheel   *WheelEventDTO   `json:"wheel,omitempty"`
}

// Validate implements validation.Validatable.
func (e InputEventDTO) Validate() error {
	if (e.Pointer == nil) == (e.Wheel == nil) {
		return validation.NewError("validation_one_of", "exactly one of pointer or wheel must be set")
	}
	if e.Pointer != nil {
		return e.Pointer.Validate()
	}
	return nil
}

// EventBatchRequest is the request body for an input batch.
type EventBatchRequest struct {
	Events []InputEventDTO `json:"events"`
}

// Validate implements validation.Validatable.
func (r EventBatchRequest) Validate() error {
	if len(r.Events) == 0 {
		return validation.NewError("validation_required", "events must not be empty")
	}
	for _, e := range r.Events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// toInput converts the wire batch into engine input events.
func (r EventBatchRequest) toInput() []projectservice.InputEvent {
	out := make([]projectservice.InputEvent, 0, len(r.Events))
	for _, e := range r.Events {
		switch {
		case e.Pointer != nil:
			out = append(out, projectservice.InputEvent{Pointer: &gesture.PointerEvent{
				Type:      gesture.EventType(e.Pointer.Type),
				ID:        e.Pointer.ID,
				Kind:      gesture.PointerKind(e.Pointer.Kind),
				Pos:       geom.Pt(e.Pointer.X, e.Pointer.Y),
				Pressure:  e.Pointer.Pressure,
				SpaceHeld: e.Pointer.SpaceHeld,
			}})
		case e.Wheel != nil:
			out = append(out, projectservice.InputEvent{Wheel: &projectservice.WheelEvent{
				DeltaY:   e.Wheel.DeltaY,
				Modifier: e.Wheel.Modifier,
			}})
		}
	}
	return out
}

// ViewRequest is the request body for replacing a page's view transform.
type ViewRequest struct {
	Scale   float64 `json:"scale" example:"1.5"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Validate implements validation.Validatable.
func (r ViewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Scale, validation.Required, validation.Min(0.01)),
	)
}

// ResizeRequest reports a new canvas size and device-pixel-ratio.
type ResizeRequest struct {
	Width  float64 `json:"width" example:"794"`
	Height float64 `json:"height" example:"1123"`
	DPR    float64 `json:"dpr,omitempty" example:"2"`
}

// Validate implements validation.Validatable.
func (r ResizeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&r.Height, validation.Required, validation.Min(1.0)),
		validation.Field(&r.DPR, validation.Min(0.0)),
	)
}

// ToolRequest selects the active tool and stroke style for a session.
type ToolRequest struct {
	Tool    string    `json:"tool" example:"highlighter"`
	Color   ink.Color `json:"color"`
	Size    float64   `json:"size" example:"12"`
	Opacity float64   `json:"opacity,omitempty" example:"0.4"`
}

// Validate implements validation.Validatable.
func (r ToolRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tool, validation.In("", "none", "pen", "highlighter", "eraser")),
		validation.Field(&r.Size, validation.Min(0.0), validation.Max(512.0)),
		validation.Field(&r.Opacity, validation.Min(0.0), validation.Max(1.0)),
	)
}

// AppendTextRequest is the request body for appending recognized text.
type AppendTextRequest struct {
	Text string `json:"text" example:"The mitochondria is the powerhouse of the cell"`
}

// Validate implements validation.Validatable.
func (r AppendTextRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 1<<16)),
	)
}

// ProjectDetail is the full project response type (aliased from the domain layer).
type ProjectDetail = projectservice.ProjectDetail

// ProjectListItem is a lightweight item in a list response (aliased from the domain layer).
type ProjectListItem = projectservice.ProjectListItem

// PageInfo summarizes one page (aliased from the domain layer).
type PageInfo = projectservice.PageInfo

// ProjectListResponse wraps paginated project listings.
type ProjectListResponse struct {
	Projects []ProjectListItem `json:"projects"`
	Total    int               `json:"total" example:"42"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"5e7a.json"`
	ID      string `json:"id"`
	Title   string `json:"title" example:"Physics notes"`
	Snippet string `json:"snippet" example:"...matched text..."`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// HistoryResponse reports whether an undo/redo step was applied.
type HistoryResponse struct {
	Applied bool `json:"applied"`
}
