package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/storage"
)

// watcherTestEnv sets up a workspace dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	workspaceDir := t.TempDir()
	store, err := storage.NewFS(workspaceDir)
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "inkwell-watcher-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return workspaceDir, store, db
}

func projectJSON(t *testing.T, title string) []byte {
	t.Helper()
	data, err := ink.NewProject(title).Encode()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewDocumentCataloged(t *testing.T) {
	workspaceDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, workspaceDir, logger, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(workspaceDir, "new.json"), projectJSON(t, "New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.json")
		return cs != ""
	}, "new document not cataloged by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.json" {
				return true
			}
		}
		return false
	}, "expected created:new.json callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	workspaceDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, workspaceDir, logger, nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(workspaceDir, "archive")
	_ = os.MkdirAll(subDir, 0o755)

	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.json"), projectJSON(t, "Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(filepath.Join("archive", "deep.json"))
		return cs != ""
	}, "document in new subdir not cataloged by watcher")
}

func TestWatcher_DeleteRemovesFromCatalog(t *testing.T) {
	workspaceDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	_ = os.WriteFile(filepath.Join(workspaceDir, "del.json"), projectJSON(t, "Delete Me"), 0o644)
	Sync(db, store, logger)

	cs, _ := db.GetChecksum("del.json")
	if cs == "" {
		t.Fatal("precondition: document should be cataloged")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, workspaceDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(workspaceDir, "del.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.json")
		return cs == ""
	}, "deleted document still in catalog")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	workspaceDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	_ = os.WriteFile(filepath.Join(workspaceDir, "old.json"), projectJSON(t, "Rename"), 0o644)
	Sync(db, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, workspaceDir, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(workspaceDir, "old.json"), filepath.Join(workspaceDir, "renamed.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.json")
		newCS, _ := db.GetChecksum("renamed.json")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path cataloged")
}

func TestSync_DecodesAndCatalogs(t *testing.T) {
	workspaceDir, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	project := ink.NewProject("Chemistry")
	project.Pages[0].Text = "titration curve"
	data, err := project.Encode()
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(workspaceDir, "chem.json"), data, 0o644)

	if err := Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	row, err := db.GetByID(project.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row == nil || row.Title != "Chemistry" || row.PageCount != 1 {
		t.Fatalf("row = %+v", row)
	}

	results, err := db.Search("titration", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "chem.json" {
		t.Errorf("recognized text not searchable: %+v", results)
	}
}
