package history

// RunLog defines the interface for run-log operations. Consumers should
// depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type RunLog interface {
	Insert(r Run) error
	List(limit, offset int) ([]Run, int, error)
	Last() (*Run, error)
	Close() error
}

// Verify *DB satisfies RunLog at compile time.
var _ RunLog = (*DB)(nil)
