package adapter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*BaseSQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BaseSQLAdapter{DB: db, Cfg: Config{Type: "mock"}}, mock
}

func TestBaseSQLAdapter_Unconnected(t *testing.T) {
	var base BaseSQLAdapter
	ctx := context.Background()

	assert.False(t, base.IsConnected())
	assert.NoError(t, base.Close(), "closing before connect is a no-op")
	assert.ErrorIs(t, base.Exec(ctx, "SELECT 1"), ErrNotConnected)

	rows, err := base.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, rows)
}

func TestBaseSQLAdapter_Close(t *testing.T) {
	base, mock := newMock(t)
	mock.ExpectClose()

	require.NoError(t, base.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	base, mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE geo`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP TABLE missing`).WillReturnError(assert.AnError)

	ctx := context.Background()
	require.NoError(t, base.Exec(ctx, "CREATE TABLE geo (country TEXT)"))

	err := base.Exec(ctx, "DROP TABLE missing")
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to execute SQL")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	base, mock := newMock(t)
	mock.ExpectQuery(`SELECT city FROM geo`).WithArgs("France").
		WillReturnRows(sqlmock.NewRows([]string{"city"}).AddRow("Paris").AddRow("Lyon"))
	mock.ExpectQuery(`SELECT nope`).WillReturnError(assert.AnError)

	ctx := context.Background()
	rows, err := base.Query(ctx, "SELECT city FROM geo WHERE country = ?", "France")
	require.NoError(t, err)
	var cities []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cities = append(cities, c)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"Paris", "Lyon"}, cities)

	rows, err = base.Query(ctx, "SELECT nope")
	require.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "failed to execute query")

	assert.True(t, base.IsConnected())
}

// mockAdapter completes BaseSQLAdapter into a core.Adapter for tests.
type mockAdapter struct {
	BaseSQLAdapter
}

func (m *mockAdapter) Connect(context.Context, Config) error         { return nil }
func (m *mockAdapter) LoadCSV(context.Context, string, string) error { return nil }
func (m *mockAdapter) DialectName() string                           { return "mock" }

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "region", want: `"region"`},
		{in: "main.sales", want: `"main"."sales"`},
		{in: `odd"name`, want: `"odd""name"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdent(tt.in))
		})
	}
}

func TestDistinctQuery(t *testing.T) {
	got := DistinctQuery("main.geo", []string{"country", "city"})
	assert.Equal(t, `SELECT DISTINCT "country", "city" FROM "main"."geo" ORDER BY "country", "city"`, got)
}

func TestDistinctTuples(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT DISTINCT "country", "city" FROM "geo"`).
		WillReturnRows(sqlmock.NewRows([]string{"country", "city"}).
			AddRow("France", "Paris").
			AddRow("France", nil).
			AddRow("Spain", "Madrid"))

	adp := &mockAdapter{BaseSQLAdapter{DB: db}}
	tuples, err := DistinctTuples(context.Background(), adp, "geo", []string{"country", "city"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"France", "Paris"},
		{"France", ""},
		{"Spain", "Madrid"},
	}, tuples)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctTuples_Errors(t *testing.T) {
	adp := &mockAdapter{}
	_, err := DistinctTuples(context.Background(), adp, "geo", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")

	_, err = DistinctTuples(context.Background(), adp, "geo", []string{"city"})
	assert.ErrorIs(t, err, ErrNotConnected)
}
