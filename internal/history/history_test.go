package history

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/ink"
)

func testPage() ink.Page {
	return ink.NewPage("p", ink.BodyPlain, geom.Size{Width: 100, Height: 100})
}

func strokeN(n int) ink.Stroke {
	return ink.Stroke{
		ID: fmt.Sprintf("s%d", n), Tool: ink.ToolPen, Color: ink.Black,
		Size: 2, Opacity: 1,
		Points: []ink.Point{{X: float64(n), Y: 0}, {X: float64(n), Y: 10}},
	}
}

func TestUndoRedoInverseLaw(t *testing.T) {
	page := testPage()
	log := NewLog(page, 0)

	const n = 5
	for i := 0; i < n; i++ {
		page = page.WithStroke(strokeN(i))
		log.Push(page)
	}
	final := page.Clone()

	// Undo N times returns to the empty initial snapshot.
	for i := 0; i < n; i++ {
		restored, ok := log.Undo()
		log.EndRestore()
		if !ok {
			t.Fatalf("undo %d failed", i)
		}
		page = restored
	}
	if len(page.Strokes) != 0 {
		t.Fatalf("after %d undos strokes = %d, want 0", n, len(page.Strokes))
	}
	if _, ok := log.Undo(); ok {
		t.Error("undo at cursor 0 must be a no-op")
	}

	// Redo N times restores the exact pre-undo state.
	for i := 0; i < n; i++ {
		restored, ok := log.Redo()
		log.EndRestore()
		if !ok {
			t.Fatalf("redo %d failed", i)
		}
		page = restored
	}
	if diff := cmp.Diff(final, page); diff != "" {
		t.Errorf("redo did not restore pre-undo state (-want +got):\n%s", diff)
	}
	if _, ok := log.Redo(); ok {
		t.Error("redo at list end must be a no-op")
	}
}

func TestRedoInvalidation(t *testing.T) {
	page := testPage()
	log := NewLog(page, 0)

	page = page.WithStroke(strokeN(1))
	log.Push(page)

	restored, ok := log.Undo()
	log.EndRestore()
	if !ok {
		t.Fatal("undo failed")
	}

	// A new edit after undo discards the redo branch.
	edited := restored.WithStroke(strokeN(2))
	log.Push(edited)

	if log.CanRedo() {
		t.Error("redo branch must be discarded by a new edit")
	}
	if _, ok := log.Redo(); ok {
		t.Error("redo after invalidation must be a no-op")
	}
}

func TestPushDuringRestoreIsNoop(t *testing.T) {
	page := testPage()
	log := NewLog(page, 0)
	log.Push(page.WithStroke(strokeN(1)))

	restored, _ := log.Undo()
	// Restore still in progress: the apply path must not re-record.
	log.Push(restored)
	log.EndRestore()

	if log.Len() != 2 {
		t.Errorf("len = %d, want 2 (restore must not push)", log.Len())
	}
	if log.CanRedo() != true {
		t.Error("redo branch lost by a push during restore")
	}
}

func TestDepthCapAgesOutOldest(t *testing.T) {
	page := testPage()
	log := NewLog(page, 3)

	for i := 0; i < 10; i++ {
		page = page.WithStroke(strokeN(i))
		log.Push(page)
	}
	if log.Len() != 3 {
		t.Fatalf("len = %d, want cap 3", log.Len())
	}
	// Cursor pinned at the list end.
	if log.CanRedo() {
		t.Error("cursor must sit at the newest snapshot")
	}
	// Undo bottoms out at the oldest retained snapshot, not the original.
	var last ink.Page
	for {
		p, ok := log.Undo()
		log.EndRestore()
		if !ok {
			break
		}
		last = p
	}
	if len(last.Strokes) != 8 {
		t.Errorf("oldest retained snapshot has %d strokes, want 8", len(last.Strokes))
	}
}

func TestSnapshotsAreDeepCopies(t *testing.T) {
	page := testPage().WithStroke(strokeN(1))
	log := NewLog(testPage(), 0)
	log.Push(page)

	// Mutating the caller's page must not reach into the log.
	page.Strokes[0].Points[0].X = 999

	if _, ok := log.Undo(); !ok {
		t.Fatal("undo failed")
	}
	log.EndRestore()
	restored, ok := log.Redo()
	log.EndRestore()
	if !ok {
		t.Fatal("redo failed")
	}
	if restored.Strokes[0].Points[0].X == 999 {
		t.Error("log snapshot aliases caller state")
	}
}
