// Package duckdb provides a DuckDB database adapter for sourcing
// hierarchy members.
package duckdb

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/leapxmla/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter reads member tables from a DuckDB database.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New returns an unconnected adapter. A nil logger discards output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// DialectName implements adapter.Adapter.
func (a *Adapter) DialectName() string { return "duckdb" }

// Connect opens the database at cfg.Path (in memory when empty) and runs
// the extension, setting and secret statements built from cfg.Params.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}
	path := cmp.Or(cfg.Path, ":memory:")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb %s: %w", path, err)
	}
	// SET and LOAD are per connection.
	db.SetMaxOpenConns(1)

	if err := prepare(ctx, db, setupStatements(params)); err != nil {
		_ = db.Close()
		return err
	}

	a.Logger.Debug("connected to duckdb",
		slog.String("path", path),
		slog.Any("extensions", params.Extensions))
	a.DB = db
	a.Cfg = cfg
	return nil
}

func prepare(ctx context.Context, db *sql.DB, stmts []string) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply duckdb setup %q: %w", stmt, err)
		}
	}
	return nil
}

// LoadCSV replaces tableName with the seed file, letting read_csv_auto
// infer column types.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", filePath, err)
	}

	//nolint:gosec // table is quoted and the path is a string literal
	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true)",
		adapter.QuoteIdent(tableName), quote(abs))
	if err := a.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to load CSV into %s: %w", tableName, err)
	}
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
