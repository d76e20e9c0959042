package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// ErrNotConnected is returned by operations that need an open database.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter carries the *sql.DB that concrete adapters open in
// Connect, and implements the parts of core.Adapter that only need it.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

func (b *BaseSQLAdapter) db() (*sql.DB, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	return b.DB, nil
}

// Close releases the pool. It is a no-op before Connect.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection", slog.String("type", b.Cfg.Type))
	}
	return b.DB.Close()
}

// Exec runs a statement and discards its result.
func (b *BaseSQLAdapter) Exec(ctx context.Context, stmt string) error {
	db, err := b.db()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query runs a statement with positional args. The caller closes the rows
// and checks Err after iterating.
func (b *BaseSQLAdapter) Query(ctx context.Context, stmt string, args ...any) (*core.Rows, error) {
	db, err := b.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt, args...) //nolint:rowserrcheck // checked by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected reports whether Connect has succeeded.
func (b *BaseSQLAdapter) IsConnected() bool { return b.DB != nil }

// QuoteIdent quotes a possibly schema-qualified identifier with double
// quotes, doubling embedded quotes.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// DistinctQuery builds the statement listing the distinct combinations of
// columns in table, ordered column by column.
func DistinctQuery(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdent(c)
	}
	list := strings.Join(quoted, ", ")
	return fmt.Sprintf("SELECT DISTINCT %s FROM %s ORDER BY %s", list, QuoteIdent(table), list) //nolint:gosec // identifiers are quoted
}

// DistinctTuples runs DistinctQuery through a and scans every row as
// strings. NULL values come back as empty strings.
func DistinctTuples(ctx context.Context, a core.Adapter, table string, columns []string) ([][]string, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns to select from %s", table)
	}
	rows, err := a.Query(ctx, DistinctQuery(table, columns))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tuples [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		tuple := make([]string, len(columns))
		for i, v := range raw {
			tuple[i] = v.String
		}
		tuples = append(tuples, tuple)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return tuples, nil
}
