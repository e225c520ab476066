package catalog

// ProjectCatalog defines the interface for project catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ProjectCatalog interface {
	UpsertProject(row ProjectRow, body string) error
	DeleteProject(path string) error
	GetChecksum(path string) (string, error)
	GetByID(id string) (*ProjectRow, error)
	ListProjects(limit, offset int) ([]ProjectRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ProjectCatalog at compile time.
var _ ProjectCatalog = (*DB)(nil)
