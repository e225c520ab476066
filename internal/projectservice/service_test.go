package projectservice

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/meridel/inkwell/internal/apperr"
	"github.com/meridel/inkwell/internal/catalog"
	"github.com/meridel/inkwell/internal/geom"
	"github.com/meridel/inkwell/internal/gesture"
	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/storage"
)

func testService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "inkwell-svc-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(store, db, 0)
}

func strokeEvents(points ...geom.Point) []InputEvent {
	var events []InputEvent
	events = append(events, InputEvent{Pointer: &gesture.PointerEvent{
		Type: gesture.Down, ID: 1, Kind: gesture.Pen, Pos: points[0],
	}})
	for _, p := range points[1:] {
		events = append(events, InputEvent{Pointer: &gesture.PointerEvent{
			Type: gesture.Move, ID: 1, Kind: gesture.Pen, Pos: p,
		}})
	}
	events = append(events, InputEvent{Pointer: &gesture.PointerEvent{
		Type: gesture.Up, ID: 1, Kind: gesture.Pen, Pos: points[len(points)-1],
	}})
	return events
}

func TestCreateAndGetProject(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateProject(ctx, "Physics")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if created.Title != "Physics" || len(created.Pages) != 1 {
		t.Fatalf("created = %+v", created)
	}

	got, err := svc.GetProject(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.ID != created.ID || got.Checksum != created.Checksum {
		t.Errorf("got = %+v, want %+v", got, created)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	svc := testService(t)
	_, err := svc.GetProject(context.Background(), "no-such-id")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyEventsCommitsAndPersists(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Draw")
	pageID := created.Pages[0].ID

	info, err := svc.ApplyEvents(ctx, created.ID, pageID, strokeEvents(
		geom.Pt(10, 10), geom.Pt(20, 10), geom.Pt(20, 20),
	))
	if err != nil {
		t.Fatalf("ApplyEvents: %v", err)
	}
	if info.StrokeCount != 1 {
		t.Fatalf("stroke count = %d, want 1", info.StrokeCount)
	}

	// The committed stroke survives a cold reload from disk.
	svc.HandleWatchEvent("deleted", created.Path)
	page, err := svc.GetPage(ctx, created.ID, pageID)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if len(page.Strokes) != 1 || len(page.Strokes[0].Points) != 3 {
		t.Errorf("reloaded page = %+v", page)
	}
}

func TestUndoRedoThroughService(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "History")
	pageID := created.Pages[0].ID
	_, _ = svc.ApplyEvents(ctx, created.ID, pageID, strokeEvents(geom.Pt(1, 1), geom.Pt(2, 2)))

	ok, err := svc.Undo(ctx, created.ID, pageID)
	if err != nil || !ok {
		t.Fatalf("Undo = (%v, %v)", ok, err)
	}
	page, _ := svc.GetPage(ctx, created.ID, pageID)
	if len(page.Strokes) != 0 {
		t.Fatalf("strokes after undo = %d", len(page.Strokes))
	}

	ok, err = svc.Redo(ctx, created.ID, pageID)
	if err != nil || !ok {
		t.Fatalf("Redo = (%v, %v)", ok, err)
	}
	page, _ = svc.GetPage(ctx, created.ID, pageID)
	if len(page.Strokes) != 1 {
		t.Fatalf("strokes after redo = %d", len(page.Strokes))
	}

	// Terminal state: nothing more to redo.
	if ok, _ := svc.Redo(ctx, created.ID, pageID); ok {
		t.Error("redo past the newest snapshot must return false")
	}
}

func TestRenameProjectOptimisticConcurrency(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Old Title")

	_, err := svc.RenameProject(ctx, created.ID, "Nope", "stale-checksum")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	renamed, err := svc.RenameProject(ctx, created.ID, "New Title", created.Checksum)
	if err != nil {
		t.Fatalf("RenameProject: %v", err)
	}
	if renamed.Title != "New Title" {
		t.Errorf("title = %q", renamed.Title)
	}
}

func TestAddAndDeletePage(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Pages")
	added, err := svc.AddPage(ctx, created.ID, "Notes", ink.BodyRuled)
	if err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if added.Body != ink.BodyRuled {
		t.Errorf("body = %q", added.Body)
	}

	got, _ := svc.GetProject(ctx, created.ID)
	if len(got.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(got.Pages))
	}

	if err := svc.DeletePage(ctx, created.ID, added.ID); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	// Deleting the only remaining page swaps in a fresh one.
	if err := svc.DeletePage(ctx, created.ID, created.Pages[0].ID); err != nil {
		t.Fatalf("DeletePage last: %v", err)
	}
	got, _ = svc.GetProject(ctx, created.ID)
	if len(got.Pages) != 1 || got.Pages[0].ID == created.Pages[0].ID {
		t.Errorf("pages = %+v", got.Pages)
	}
}

func TestDeleteProject(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Doomed")
	if err := svc.DeleteProject(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := svc.GetProject(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	items, total, err := svc.ListProjects(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("catalog still lists deleted project: %+v", items)
	}
}

func TestAppendTextIsSearchable(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "OCR")
	pageID := created.Pages[0].ID

	info, err := svc.AppendText(ctx, created.ID, pageID, "photosynthesis diagram")
	if err != nil {
		t.Fatalf("AppendText: %v", err)
	}
	if info.Text != "photosynthesis diagram" {
		t.Errorf("text = %q", info.Text)
	}

	results, err := svc.Search(ctx, "photosynthesis", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != created.ID {
		t.Errorf("results = %+v", results)
	}
}

func TestResizeRescalesPersistedStrokes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Resize")
	pageID := created.Pages[0].ID

	if _, err := svc.Resize(ctx, created.ID, geom.Size{Width: 300, Height: 400}, 1); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	_, _ = svc.ApplyEvents(ctx, created.ID, pageID, strokeEvents(geom.Pt(50, 50), geom.Pt(60, 60)))

	if _, err := svc.Resize(ctx, created.ID, geom.Size{Width: 600, Height: 800}, 1); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	page, _ := svc.GetPage(ctx, created.ID, pageID)
	p := page.Strokes[0].Points[0]
	if p.X != 100 || p.Y != 100 {
		t.Errorf("point = (%v,%v), want (100,100)", p.X, p.Y)
	}
}

func TestExport(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Export")
	pageID := created.Pages[0].ID
	_, _ = svc.ApplyEvents(ctx, created.ID, pageID, strokeEvents(geom.Pt(100, 100), geom.Pt(200, 200)))

	img, err := svc.Export(ctx, created.ID, pageID, geom.Size{Width: 1588, Height: 2246})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if img.Rect.Dx() != 1588 || img.Rect.Dy() != 2246 {
		t.Errorf("export size = %v", img.Rect)
	}
}

func TestWatchEventKeepsOwnWrites(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, _ := svc.CreateProject(ctx, "Watch")
	pageID := created.Pages[0].ID
	_, _ = svc.ApplyEvents(ctx, created.ID, pageID, strokeEvents(geom.Pt(1, 1), geom.Pt(2, 2)))

	// The watcher echoes our own write back; the session must survive so
	// its undo history is not lost.
	svc.HandleWatchEvent("updated", created.Path)
	if ok, _ := svc.Undo(ctx, created.ID, pageID); !ok {
		t.Error("session evicted by its own write echo")
	}
}
