// Package postgres sources hierarchy members from PostgreSQL through pgx.
package postgres

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/leapxmla/pkg/adapter"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Adapter reads member tables over a pgx-backed database/sql pool.
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
func (a *Adapter) DialectName() string { return "postgres" }

// Connect parses the target into a pgx config, opens a pool and pings it.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	connCfg, err := pgx.ParseConfig(connURL(cfg, params))
	if err != nil {
		return fmt.Errorf("postgres: invalid connection settings: %w", err)
	}

	a.Logger.Debug("connecting to postgres",
		slog.String("host", connCfg.Host),
		slog.Int("port", int(connCfg.Port)),
		slog.String("database", connCfg.Database))

	db := stdlib.OpenDB(*connCfg)
	if params.MaxOpenConns > 0 {
		db.SetMaxOpenConns(params.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("postgres: ping %s: %w", connCfg.Host, err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// connURL renders the target as a postgres:// URL. Credentials and
// parameters are percent-encoded so any value survives the round trip.
func connURL(cfg adapter.Config, params *Params) string {
	host := cmp.Or(cfg.Host, defaultHost)
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	switch {
	case cfg.Username != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	case cfg.Username != "":
		u.User = url.User(cfg.Username)
	}

	q := url.Values{}
	q.Set("sslmode", cmp.Or(cfg.Options["sslmode"], defaultSSLMode))
	if params.ApplicationName != "" {
		q.Set("application_name", params.ApplicationName)
	}
	if params.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(params.ConnectTimeout))
	}
	if sp := cmp.Or(params.SearchPath, cfg.Schema); sp != "" {
		q.Set("search_path", sp)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// LoadCSV replaces tableName with the contents of a CSV seed. Every column
// is TEXT and named after its header verbatim; rows stream in through COPY.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	f, err := os.Open(filePath) //nolint:gosec // seed paths come from the catalog file
	if err != nil {
		return fmt.Errorf("postgres: open seed: %w", err)
	}
	defer func() { _ = f.Close() }()

	headers, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("postgres: read header of %s: %w", filePath, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("postgres: rewind %s: %w", filePath, err)
	}

	table := adapter.QuoteIdent(tableName)
	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = adapter.QuoteIdent(h) + " TEXT"
	}
	stmts := []string{
		"DROP TABLE IF EXISTS " + table,
		fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", ")), //nolint:gosec // identifiers are quoted
	}
	for _, stmt := range stmts {
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: prepare %s: %w", tableName, err)
		}
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("postgres: acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", table)
	err = conn.Raw(func(driverConn any) error {
		tag, err := driverConn.(*stdlib.Conn).Conn().PgConn().CopyFrom(ctx, f, copySQL)
		if err != nil {
			return err
		}
		a.Logger.Debug("seed loaded", slog.String("table", tableName), slog.Int64("rows", tag.RowsAffected()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: copy into %s: %w", tableName, err)
	}
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
