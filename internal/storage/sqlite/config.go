package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.
	//   "file:crash.db?cache=shared"
	//   ":memory:"
	DSN string

	// Table is the target table; "main.events" style names are accepted.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
