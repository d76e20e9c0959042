package rowset

import (
	"context"
	"testing"
	"time"

	"github.com/leapstack-labs/leapxmla/internal/catalog"
	"github.com/leapstack-labs/leapxmla/internal/session"
	"github.com/leapstack-labs/leapxmla/internal/testutil"
	"github.com/leapstack-labs/leapxmla/pkg/core"
	"github.com/stretchr/testify/require"
)

var loadedAt = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestFactory(t *testing.T) *catalog.Factory {
	t.Helper()
	repo, err := catalog.Parse(context.Background(), []byte(testutil.SalesCatalog), catalog.Options{
		Now:    func() time.Time { return loadedAt },
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return catalog.NewFactory(repo, catalog.FactoryConfig{Logger: testutil.NewTestLogger(t)})
}

func newTestEngine(t *testing.T, sessions *session.Tracker) *Engine {
	t.Helper()
	return New(Config{
		Factory:  newTestFactory(t),
		Sessions: sessions,
		Logger:   testutil.NewTestLogger(t),
	})
}

// discover prepares req and returns its rows.
func discover(t *testing.T, e *Engine, req Request) []Row {
	t.Helper()
	res, err := e.Prepare(context.Background(), req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	return res.Rows()
}

// column collects the values of the named column.
func column(rows []Row, name string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.Get(name)
	}
	return out
}

func salesCube(t *testing.T) core.Cube {
	t.Helper()
	ctx := context.Background()
	conn, err := newTestFactory(t).Connect(ctx, core.ConnectRequest{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	cats, err := conn.Catalogs(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	schemas, err := cats[0].Schemas(ctx)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	cubes, err := schemas[0].Cubes(ctx)
	require.NoError(t, err)
	for _, c := range cubes {
		if c.Name() == "Sales" {
			return c
		}
	}
	t.Fatal("cube Sales not found")
	return nil
}

func member(t *testing.T, cube core.Cube, uname string) core.Member {
	t.Helper()
	m, err := cube.LookupMember(context.Background(), uname)
	require.NoError(t, err)
	require.NotNil(t, m, "member %s", uname)
	return m
}

func names(members []core.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name()
	}
	return out
}
