package mcpserver

// ProjectFormatContract describes the canonical JSON project document that
// LLM consumers see through the read_project and read_page tools.
const ProjectFormatContract = `# Inkwell Project Document Contract

Every project is one JSON document in the workspace (file name ` + "`<project-id>.json`" + `).

## Structure

` + "```" + `json
{
  "id": "7f9c2f8a-...",            // project UUID, stable for the lifetime of the project
  "title": "Chemistry notes",
  "updated_at": "2026-03-01T09:30:00Z",
  "pages": [
    {
      "id": "b41d...",             // page UUID
      "title": "Titration",
      "bodyType": "ruled",         // one of: plain | ruled | grid | cornell
      "surface": {"width": 794, "height": 1123},   // page size in CSS pixels
      "view": {"scale": 1, "offsetX": 0, "offsetY": 0},
      "text": "recognized line\nanother line",     // optional, transcribed content
      "strokes": [
        {
          "id": "c3aa...",
          "tool": "pen",           // pen | highlighter | eraser
          "color": {"r": 0, "g": 0, "b": 0, "a": 255},
          "size": 2.5,             // brush diameter in page coordinates
          "opacity": 1,            // omitted when 1
          "points": [{"x": 10, "y": 10, "pressure": 0.6}, ...]
        }
      ]
    }
  ]
}
` + "```" + `

## Rules

1. Stroke points are stored in page coordinates at the page's current
   surface size, not in screen coordinates. Pan/zoom state lives in
   ` + "`view`" + ` and never changes the stored points.
2. When a page is resized, all stroke points are rescaled proportionally,
   so points always stay meaningful relative to ` + "`surface`" + `.
3. ` + "`view.scale`" + ` is clamped to [0.6, 2.5].
4. A project always has at least one page.
5. ` + "`text`" + ` holds recognized (transcribed) handwriting, one appended
   line per recognition pass. It is what full-text search matches on,
   together with project and page titles.
6. Eraser strokes are stored like pen strokes; they cut through earlier
   strokes at render time rather than deleting them.
7. Documents are written atomically; partial files never appear in the
   workspace.
` + `
## Tool workflow

- ` + "`search_projects`" + ` / ` + "`list_projects`" + ` to locate a project, then
  ` + "`read_project`" + ` for page IDs, then ` + "`read_page`" + ` for content.
- ` + "`append_page_text`" + ` is the write channel for recognition output;
  never try to edit stroke data directly.
`
