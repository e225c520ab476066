// Package history implements the per-page undo/redo log: a linear list of
// deep-cloned page snapshots with a cursor, branch discard on new edits, and
// a bounded length with oldest entries aging out.
package history

import "github.com/meridel/inkwell/internal/ink"

// DefaultDepth is the snapshot cap applied when a log is created with a
// non-positive depth.
const DefaultDepth = 50

// Log records page snapshots for one page. The invariant
// 0 <= cursor < len(snapshots) holds at all times, and snapshots[cursor]
// always equals the currently displayed page state.
type Log struct {
	snapshots []ink.Page
	cursor    int
	depth     int
	restoring bool
}

// NewLog starts a log with the page's initial state as snapshot zero.
func NewLog(initial ink.Page, depth int) *Log {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Log{
		snapshots: []ink.Page{initial.Clone()},
		depth:     depth,
	}
}

// Push records a new snapshot after a content edit. While a restore is in
// progress it is a no-op, so undo/redo never re-records the states it is
// restoring. Any redo branch past the cursor is discarded; when the log is
// at capacity the oldest snapshot ages out.
func (l *Log) Push(page ink.Page) {
	if l.restoring {
		return
	}
	l.snapshots = append(l.snapshots[:l.cursor+1], page.Clone())
	if len(l.snapshots) > l.depth {
		l.snapshots = l.snapshots[len(l.snapshots)-l.depth:]
	}
	l.cursor = len(l.snapshots) - 1
}

// Undo steps the cursor back one snapshot. ok is false at the terminal state
// (nothing to undo). The restore flag stays set until EndRestore, so applying
// the returned page cannot push it back onto the log.
func (l *Log) Undo() (ink.Page, bool) {
	if l.cursor == 0 {
		return ink.Page{}, false
	}
	l.cursor--
	l.restoring = true
	return l.snapshots[l.cursor].Clone(), true
}

// Redo steps the cursor forward symmetrically to Undo.
func (l *Log) Redo() (ink.Page, bool) {
	if l.cursor >= len(l.snapshots)-1 {
		return ink.Page{}, false
	}
	l.cursor++
	l.restoring = true
	return l.snapshots[l.cursor].Clone(), true
}

// EndRestore clears the restore-in-progress flag. Callers pair it with a
// successful Undo or Redo, typically via defer.
func (l *Log) EndRestore() {
	l.restoring = false
}

// CanUndo reports whether the cursor can move back.
func (l *Log) CanUndo() bool {
	return l.cursor > 0
}

// CanRedo reports whether a redo branch exists past the cursor.
func (l *Log) CanRedo() bool {
	return l.cursor < len(l.snapshots)-1
}

// Len returns the number of stored snapshots.
func (l *Log) Len() int {
	return len(l.snapshots)
}
