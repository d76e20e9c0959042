package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sales(extra map[string]Restriction) map[string]Restriction {
	r := map[string]Restriction{"CUBE_NAME": Values("Sales")}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestCatalogs(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{RowsetName: "DBSCHEMA_CATALOGS"})
	require.Len(t, rows, 1)
	assert.Equal(t, "FoodMart", rows[0].Get("CATALOG_NAME"))
	assert.Equal(t, "FoodMart sample catalog", rows[0].Get("DESCRIPTION"))
	assert.Equal(t, "analyst,manager", rows[0].Get("ROLES"))
	assert.Equal(t, loadedAt, rows[0].Get("DATE_MODIFIED"))

	rows = discover(t, e, Request{RowsetName: "DBSCHEMA_SCHEMATA"})
	require.Len(t, rows, 1)
	assert.Equal(t, "FoodMart", rows[0].Get("SCHEMA_NAME"))
}

func TestCubes(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{RowsetName: "MDSCHEMA_CUBES"})
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"Sales", "Warehouse"}, column(rows, "CUBE_NAME"))
	assert.Equal(t, []any{"CUBE", "CUBE"}, column(rows, "CUBE_TYPE"))
	assert.Equal(t, []any{"FoodMart Schema - Sales Cube", "Warehouse inventory"}, column(rows, "DESCRIPTION"))
	assert.Equal(t, "Sales Cube", rows[0].Get("CUBE_CAPTION"))
	assert.Equal(t, loadedAt, rows[0].Get("CREATED_ON"))
	assert.Nil(t, rows[0].Get("DIMENSIONS"), "nested rowsets need Deep")

	tests := []struct {
		name string
		req  Request
		want []any
	}{
		{"by name", Request{Restrictions: map[string]Restriction{"CUBE_NAME": Values("Warehouse")}}, []any{"Warehouse"}},
		{"by pattern", Request{Restrictions: map[string]Restriction{"CUBE_NAME": Wildcard("S%")}}, []any{"Sales"}},
		{"virtual cubes", Request{Restrictions: map[string]Restriction{"CUBE_TYPE": Values("VIRTUAL CUBE")}}, []any{}},
		{"catalog property", Request{Properties: map[string]string{"Catalog": "FoodMart"}}, []any{"Sales", "Warehouse"}},
		{"unknown catalog", Request{Properties: map[string]string{"Catalog": "Nope"}}, []any{}},
		{"base cube is always null", Request{Restrictions: map[string]Restriction{"BASE_CUBE_NAME": Values("")}}, []any{"Sales", "Warehouse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.RowsetName = "MDSCHEMA_CUBES"
			assert.Equal(t, tt.want, column(discover(t, e, tt.req), "CUBE_NAME"))
		})
	}
}

func TestDimensions(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{RowsetName: "MDSCHEMA_DIMENSIONS", Restrictions: sales(nil)})
	assert.Equal(t, []any{"Measures", "Product", "Store", "Time"}, column(rows, "DIMENSION_NAME"))
	assert.Equal(t, []any{0, 3, 1, 2}, column(rows, "DIMENSION_ORDINAL"))
	assert.Equal(t, []any{2, 3, 3, 1}, column(rows, "DIMENSION_TYPE"))
	assert.Equal(t, []any{6, 4, 6, 4}, column(rows, "DIMENSION_CARDINALITY"))
	assert.Equal(t, "Products sold", rows[1].Get("DESCRIPTION"))
	assert.Equal(t, "Sales Cube - Store Dimension", rows[2].Get("DESCRIPTION"))

	rows = discover(t, e, Request{
		RowsetName:   "MDSCHEMA_DIMENSIONS",
		Restrictions: sales(map[string]Restriction{"DIMENSION_UNIQUE_NAME": Values("[Time]")}),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Get("DIMENSION_ORDINAL"), "ordinals count filtered dimensions")
}

func TestHierarchies(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{RowsetName: "MDSCHEMA_HIERARCHIES", Restrictions: sales(nil)})
	assert.Equal(t, []any{"[Measures]", "[Product].[Brand]", "[Product]", "[Store]", "[Time]"},
		column(rows, "HIERARCHY_UNIQUE_NAME"))
	assert.Equal(t, []any{0, 4, 3, 1, 2}, column(rows, "HIERARCHY_ORDINAL"))
	assert.Equal(t, []any{5, 3, 4, 11, 5}, column(rows, "HIERARCHY_CARDINALITY"))
	assert.Equal(t, []any{nil, "[Product].[Brand].[All Brands]", "[Product].[All Products]", "[Store].[All Stores]", nil},
		column(rows, "ALL_MEMBER"))
	assert.Equal(t, []any{"[Measures].[Unit Sales]", "[Product].[Brand].[All Brands]", "[Product].[All Products]",
		"[Store].[All Stores]", "[Time].[1997]"}, column(rows, "DEFAULT_MEMBER"))
	assert.Equal(t, false, rows[3].Get("PARENT_CHILD"))

	rows = discover(t, e, Request{
		RowsetName:   "MDSCHEMA_HIERARCHIES",
		Restrictions: sales(map[string]Restriction{"HIERARCHY_UNIQUE_NAME": Values("[Product].[Brand]")}),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Get("HIERARCHY_ORDINAL"))
	assert.Equal(t, "[Product]", rows[0].Get("DIMENSION_UNIQUE_NAME"))
}

func TestLevels(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{
		RowsetName:   "MDSCHEMA_LEVELS",
		Restrictions: sales(map[string]Restriction{"HIERARCHY_UNIQUE_NAME": Values("[Store]")}),
	})
	assert.Equal(t, []any{"(All)", "Store Country", "Store State", "Store City"}, column(rows, "LEVEL_NAME"))
	assert.Equal(t, []any{0, 1, 2, 3}, column(rows, "LEVEL_NUMBER"))
	assert.Equal(t, []any{1, 2, 3, 5}, column(rows, "LEVEL_CARDINALITY"))
	assert.Equal(t, []any{1, 0, 0, 0}, column(rows, "LEVEL_TYPE"))
	assert.Equal(t, []any{3, 1, 0, 0}, column(rows, "LEVEL_UNIQUE_SETTINGS"))

	rows = discover(t, e, Request{
		RowsetName:   "MDSCHEMA_LEVELS",
		Restrictions: sales(map[string]Restriction{"DIMENSION_UNIQUE_NAME": Values("[Time]")}),
	})
	assert.Equal(t, []any{"[Time].[Year]", "[Time].[Quarter]"}, column(rows, "LEVEL_UNIQUE_NAME"))
	assert.Equal(t, []any{0x14, 0x44}, column(rows, "LEVEL_TYPE"))
	assert.Equal(t, []any{2, 3}, column(rows, "LEVEL_CARDINALITY"))
}

func TestMeasures(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{RowsetName: "MDSCHEMA_MEASURES", Restrictions: sales(nil)})
	assert.Equal(t, []any{"Profit", "Sales Count", "Store Sales", "Unit Sales"}, column(rows, "MEASURE_NAME"))
	assert.Equal(t, []any{127, 2, 1, 1}, column(rows, "MEASURE_AGGREGATOR"))
	assert.Equal(t, []any{130, 3, 5, 5}, column(rows, "DATA_TYPE"))
	assert.Equal(t, []any{"$#,##0.00", nil, "#,###.00", "Standard"}, column(rows, "DEFAULT_FORMAT_STRING"))

	levels := "[Store].[Store City],[Time].[Quarter],[Product].[Product Family],[Product].[Brand].[Brand Name]"
	assert.Nil(t, rows[0].Get("LEVELS_LIST"), "calculated measures have no levels")
	assert.Equal(t, levels, rows[3].Get("LEVELS_LIST"))
	assert.Equal(t, "[Measures].[Unit Sales]", rows[3].Get("MEASURE_UNIQUE_NAME"))
	assert.Equal(t, "Sales Cube - Unit Sales Member", rows[3].Get("DESCRIPTION"))

	rows = discover(t, e, Request{
		RowsetName:   "MDSCHEMA_MEASURES",
		Restrictions: sales(map[string]Restriction{"MEASURE_NAME": Values("Internal Cost")}),
		Properties:   map[string]string{"EmitInvisibleMembers": "true"},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, false, rows[0].Get("MEASURE_IS_VISIBLE"))
	assert.Equal(t, 130, rows[0].Get("DATA_TYPE"))

	rows = discover(t, e, Request{
		RowsetName:   "MDSCHEMA_MEASURES",
		Restrictions: sales(map[string]Restriction{"MEASURE_NAME": Values("Internal Cost")}),
	})
	assert.Empty(t, rows, "hidden measures need EmitInvisibleMembers")
}

func TestSets(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{RowsetName: "MDSCHEMA_SETS"})
	require.Len(t, rows, 1)
	assert.Equal(t, "Top Stores", rows[0].Get("SET_NAME"))
	assert.Equal(t, "Sales", rows[0].Get("CUBE_NAME"))
	assert.Equal(t, 1, rows[0].Get("SCOPE"))
	assert.Equal(t, "Best stores", rows[0].Get("SET_CAPTION"))

	rows = discover(t, e, Request{
		RowsetName:   "MDSCHEMA_SETS",
		Restrictions: map[string]Restriction{"SCOPE": Values("2")},
	})
	assert.Empty(t, rows, "session sets are not supported")
}
