package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProjectRow represents a row in the projects table.
type ProjectRow struct {
	Path      string
	ID        string
	Title     string
	Checksum  string
	PageCount int
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	ID      string
	Title   string
	Snippet string
}

// UpsertProject inserts or replaces a project row and its FTS entry within a
// transaction. body is the searchable text: page titles plus recognized text.
func (db *DB) UpsertProject(row ProjectRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO projects (path, id, title, checksum, page_count, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id         = excluded.id,
			title      = excluded.title,
			checksum   = excluded.checksum,
			page_count = excluded.page_count,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.ID, row.Title, row.Checksum, row.PageCount, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert project: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Title, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteProject removes a project row and its FTS entry.
func (db *DB) DeleteProject(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM projects WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a project, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM projects WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetByID returns the catalog row for a project ID, or nil when unknown.
func (db *DB) GetByID(id string) (*ProjectRow, error) {
	var row ProjectRow
	err := db.conn.QueryRow(`
		SELECT path, id, title, checksum, page_count, updated_at
		FROM projects WHERE id = ?
	`, id).Scan(&row.Path, &row.ID, &row.Title, &row.Checksum, &row.PageCount, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get by id: %w", err)
	}
	return &row, nil
}

// ListProjects returns a page of projects ordered by most recently updated,
// plus the total count.
func (db *DB) ListProjects(limit, offset int) ([]ProjectRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count projects: %w", err)
	}
	rows, err := db.conn.Query(`
		SELECT path, id, title, checksum, page_count, updated_at
		FROM projects
		ORDER BY updated_at DESC, path ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectRow
	for rows.Next() {
		var r ProjectRow
		if err := rows.Scan(&r.Path, &r.ID, &r.Title, &r.Checksum, &r.PageCount, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path → checksum for every cataloged project.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
