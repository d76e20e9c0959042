package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/leapstack-labs/leapxmla/internal/testutil"
	"github.com/leapstack-labs/leapxmla/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSales(t *testing.T) *Repository {
	t.Helper()
	repo, err := Parse(context.Background(), []byte(testutil.SalesCatalog), Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return repo
}

func salesCube(t *testing.T) *Cube {
	t.Helper()
	return loadSales(t).Catalogs()[0].schemas[0].cubes[0]
}

func TestParse_Structure(t *testing.T) {
	repo := loadSales(t)
	require.Len(t, repo.Catalogs(), 1)
	assert.Equal(t, 2, repo.CubeCount())

	cat := repo.Catalogs()[0]
	assert.Equal(t, "FoodMart", cat.Name())
	assert.Equal(t, "FoodMart sample catalog", cat.Description())

	cube := cat.schemas[0].cubes[0]
	assert.Equal(t, "Sales", cube.Name())
	assert.Equal(t, "Sales Cube", cube.Caption())
	assert.Equal(t, "[Sales]", cube.UniqueName())

	var dims []string
	for _, d := range cube.Dimensions() {
		dims = append(dims, d.UniqueName())
	}
	assert.Equal(t, []string{"[Measures]", "[Store]", "[Time]", "[Product]"}, dims)
	assert.Equal(t, core.DimensionMeasure, cube.dimensions[0].Type())
	assert.Equal(t, core.DimensionTime, cube.dimensions[2].Type())

	product := cube.dimensions[3]
	require.Len(t, product.hierarchies, 2)
	assert.Equal(t, "[Product]", product.hierarchies[0].UniqueName())
	assert.Equal(t, "[Product].[Brand]", product.hierarchies[1].UniqueName())
	assert.Equal(t, 1, product.hierarchies[1].Ordinal())
	assert.Same(t, product.hierarchies[0], product.DefaultHierarchy())
}

func TestParse_Levels(t *testing.T) {
	store := salesCube(t).dimensions[1].hierarchies[0]

	var names []string
	var depths []int
	for _, l := range store.Levels() {
		names = append(names, l.UniqueName())
		depths = append(depths, l.Depth())
	}
	assert.Equal(t, []string{
		"[Store].[(All)]", "[Store].[Store Country]", "[Store].[Store State]", "[Store].[Store City]",
	}, names)
	assert.Equal(t, []int{0, 1, 2, 3}, depths)
	assert.Equal(t, core.LevelAll, store.levels[0].Type())

	timeH := salesCube(t).dimensions[2].hierarchies[0]
	assert.False(t, timeH.HasAll())
	assert.Equal(t, core.LevelTimeYears, timeH.levels[0].Type())
	assert.Equal(t, 0, timeH.levels[0].Depth())
}

func TestParse_Members(t *testing.T) {
	ctx := context.Background()
	store := salesCube(t).dimensions[1].hierarchies[0]

	roots, err := store.RootMembers(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	all := roots[0]
	assert.Equal(t, "[Store].[All Stores]", all.UniqueName())
	assert.Equal(t, core.MemberAll, all.Type())
	assert.Nil(t, all.Parent())
	assert.Equal(t, 0, all.Ordinal())

	cities, err := store.levels[3].Members(ctx)
	require.NoError(t, err)
	var unames []string
	var ordinals []int
	for _, m := range cities {
		unames = append(unames, m.UniqueName())
		ordinals = append(ordinals, m.Ordinal())
	}
	assert.Equal(t, []string{
		"[Store].[USA].[CA].[Los Angeles]",
		"[Store].[USA].[CA].[San Francisco]",
		"[Store].[USA].[WA].[Seattle]",
		"[Store].[USA].[WA].[Spokane]",
		"[Store].[Canada].[BC].[Vancouver]",
	}, unames)
	assert.Equal(t, []int{3, 4, 6, 7, 10}, ordinals, "ordinals number the tree in pre-order")

	la := cities[0]
	assert.Equal(t, 3, la.Depth())
	assert.Equal(t, "[Store].[USA].[CA]", la.Parent().UniqueName())
	assert.Equal(t, "[Store].[USA]", la.Parent().Parent().UniqueName())
	assert.Equal(t, all.UniqueName(), la.Parent().Parent().Parent().UniqueName())
}

func TestParse_Measures(t *testing.T) {
	cube := salesCube(t)
	ms := cube.Measures()
	require.Len(t, ms, 5)

	byName := map[string]core.Measure{}
	for _, m := range ms {
		byName[m.Name()] = m
	}

	assert.Equal(t, "[Measures].[Unit Sales]", byName["Unit Sales"].UniqueName())
	assert.Equal(t, core.AggregatorSum, byName["Unit Sales"].Aggregator())
	assert.Equal(t, core.MemberMeasure, byName["Unit Sales"].Type())
	assert.Equal(t, "Standard", byName["Unit Sales"].FormatString())

	profit := byName["Profit"]
	assert.True(t, profit.Calculated())
	assert.Equal(t, core.MemberFormula, profit.Type())
	assert.Empty(t, string(profit.Aggregator()))

	assert.Equal(t, core.AggregatorCount, byName["Sales Count"].Aggregator())
	assert.Equal(t, "Integer", byName["Sales Count"].DataType())
	assert.Equal(t, core.AggregatorSum, byName["Internal Cost"].Aggregator(), "stored measures default to sum")
	assert.False(t, byName["Internal Cost"].Visible())

	members, err := cube.dimensions[0].hierarchies[0].levels[0].Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 5)
	_, isMeasure := members[0].(core.Measure)
	assert.True(t, isMeasure, "measure members are measures")
}

func TestLookupMember(t *testing.T) {
	ctx := context.Background()
	cube := salesCube(t)

	tests := []struct {
		uname string
		want  string
	}{
		{"[Store].[USA].[CA]", "[Store].[USA].[CA]"},
		{"[Store].[All Stores]", "[Store].[All Stores]"},
		{"[Store].[USA].[WA].[Seattle]", "[Store].[USA].[WA].[Seattle]"},
		{"[Time].[1998].[Q1]", "[Time].[1998].[Q1]"},
		{"[Product].[Drink]", "[Product].[Drink]"},
		{"[Product].[Brand].[Golden]", "[Product].[Brand].[Golden]"},
		{"[Measures].[Profit]", "[Measures].[Profit]"},
		{"[Store].[Nowhere]", ""},
		{"[Store].[CA]", ""},
		{"[Store]", ""},
		{"[Nope].[USA]", ""},
		{"[Store", ""},
	}

	for _, tt := range tests {
		t.Run(tt.uname, func(t *testing.T) {
			m, err := cube.LookupMember(ctx, tt.uname)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.UniqueName())
		})
	}

	m, err := cube.LookupMember(ctx, "[Measures].[Profit]")
	require.NoError(t, err)
	measure, ok := m.(core.Measure)
	require.True(t, ok)
	assert.True(t, measure.Calculated())
}

func TestDefaultMember(t *testing.T) {
	ctx := context.Background()
	cube := salesCube(t)

	def, err := cube.dimensions[1].hierarchies[0].DefaultMember(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[Store].[All Stores]", def.UniqueName())

	def, err = cube.dimensions[2].hierarchies[0].DefaultMember(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[Time].[1997]", def.UniqueName())

	repo, err := Parse(ctx, []byte(`
catalogs:
  - name: c
    schemas:
      - name: s
        cubes:
          - name: k
            dimensions:
              - name: Time
                hierarchies:
                  - default_member: "[Time].[1998]"
                    levels: [{name: Year}]
                    members: [{name: "1997"}, {name: "1998"}]
`), Options{})
	require.NoError(t, err)
	h := repo.catalogs[0].schemas[0].cubes[0].dimensions[1].hierarchies[0]
	def, err = h.DefaultMember(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[Time].[1998]", def.UniqueName())
}

func TestParse_LoadedAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo, err := Parse(context.Background(), []byte(testutil.SalesCatalog), Options{Now: func() time.Time { return at }})
	require.NoError(t, err)
	assert.Equal(t, at, repo.LoadedAt())
	assert.Equal(t, at, repo.catalogs[0].schemas[0].loadedAt)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name:    "unknown field",
			yaml:    "catalogs:\n  - name: c\n    colour: red\n",
			wantErr: []string{"failed to parse catalog"},
		},
		{
			name:    "missing catalog name",
			yaml:    "catalogs:\n  - description: x\n",
			wantErr: []string{"catalog without a name"},
		},
		{
			name: "hierarchy problems",
			yaml: `
catalogs:
  - name: c
    schemas:
      - name: s
        cubes:
          - name: k
            dimensions:
              - name: Measures
                hierarchies: [{levels: [{name: x}]}]
              - name: Store
                hierarchies:
                  - levels: [{name: Country, type: galactic}]
                    structure: twisty
              - name: Empty
            measures:
              - name: m
                aggregator: median
`,
			wantErr: []string{
				`duplicate or reserved dimension "Measures"`,
				`level "Country": unknown type "galactic"`,
				`unknown structure "twisty"`,
				`dimension "Empty" has no hierarchy`,
				`unknown aggregator "median"`,
			},
		},
		{
			name: "source without target",
			yaml: `
catalogs:
  - name: c
    schemas:
      - name: s
        cubes:
          - name: k
            dimensions:
              - name: Store
                hierarchies:
                  - source: {table: store}
                    levels: [{name: Country}]
                    members: [{name: USA}]
`,
			wantErr: []string{
				"no target database is configured",
				"needs a column per level",
				"members and source are exclusive",
			},
		},
		{
			name:    "seeds without target",
			yaml:    "seeds:\n  - {table: t, path: t.csv}\n",
			wantErr: []string{"seeds require a target database"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.yaml), Options{})
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := testutil.WriteFile(t, "leapxmla-catalog.yaml", testutil.SalesCatalog)
	repo, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.CubeCount())

	_, err = Load(context.Background(), path+".missing", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog file")
}
