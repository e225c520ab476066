package catalog

import (
	"log/slog"
	"strings"
	"time"

	"github.com/meridel/inkwell/internal/checksum"
	"github.com/meridel/inkwell/internal/ink"
	"github.com/meridel/inkwell/internal/storage"
)

// Sync walks the workspace and brings the catalog up to date:
//   - new/changed documents are decoded and upserted
//   - documents removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data); err != nil {
			logger.Warn("sync: catalog failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: cataloged", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteProject(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDocument decodes a project document and upserts it into the DB.
func IndexDocument(db *DB, path string, data []byte) error {
	project, err := ink.DecodeProject(data)
	if err != nil {
		return err
	}

	updated := project.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	row := ProjectRow{
		Path:      path,
		ID:        project.ID,
		Title:     project.Title,
		Checksum:  checksum.Sum(data),
		PageCount: len(project.Pages),
		UpdatedAt: updated,
	}
	return db.UpsertProject(row, searchText(project))
}

// searchText flattens page titles and recognized text into one searchable
// blob.
func searchText(project *ink.Project) string {
	var parts []string
	for _, page := range project.Pages {
		if page.Title != "" {
			parts = append(parts, page.Title)
		}
		if page.Text != "" {
			parts = append(parts, page.Text)
		}
	}
	return strings.Join(parts, "\n")
}
