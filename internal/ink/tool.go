// Package ink defines the domain model for the canvas engine: tools, strokes,
// pages, and projects. Strokes are immutable once committed; pages are
// replaced wholesale (copy-on-write) on every mutating operation so history
// snapshots stay cheap and safe.
package ink

import "fmt"

// Tool identifies the active drawing tool. ToolNone means no drawing tool is
// selected and pointer input is routed to pan/pinch handling instead.
type Tool string

const (
	ToolNone        Tool = ""
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
)

// Drawing reports whether the tool captures strokes.
func (t Tool) Drawing() bool {
	return t == ToolPen || t == ToolHighlighter || t == ToolEraser
}

// ParseTool converts a wire value into a Tool. Both "" and "none" select
// ToolNone.
func ParseTool(s string) (Tool, error) {
	if s == "none" {
		return ToolNone, nil
	}
	switch Tool(s) {
	case ToolNone, ToolPen, ToolHighlighter, ToolEraser:
		return Tool(s), nil
	}
	return ToolNone, fmt.Errorf("ink: unknown tool %q", s)
}

// Color is an 8-bit RGBA stroke color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Black is the default pen color.
var Black = Color{A: 255}

// Sanitize applies the default alpha to colors rehydrated without one.
func (c Color) Sanitize() Color {
	if c.A == 0 {
		c.A = 255
	}
	return c
}
