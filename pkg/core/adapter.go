package core

import (
	"context"
	"database/sql"
)

// Adapter is a SQL connection that hierarchy members are read from.
// Implementations register under a target type in pkg/adapter.
type Adapter interface {
	Connect(ctx context.Context, cfg AdapterConfig) error
	Close() error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query runs a statement with positional args.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// LoadCSV replaces table with a header-first CSV file. Catalog seeds
	// are loaded through it.
	LoadCSV(ctx context.Context, table string, path string) error

	// DialectName is the lower-case target type, e.g. "duckdb".
	DialectName() string
}

// AdapterConfig is a resolved target: the file path for embedded
// engines or the network address and credentials for servers.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string

	// Options are driver connection options such as sslmode.
	Options map[string]string

	// Params are adapter-specific settings decoded by each adapter.
	Params map[string]any
}

// Rows is the result set returned by Adapter.Query.
type Rows struct {
	*sql.Rows
}
