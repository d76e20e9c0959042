package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembers(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		name         string
		restrictions map[string]Restriction
		properties   map[string]string
		want         []any
	}{
		{
			name:         "level number",
			restrictions: sales(map[string]Restriction{"HIERARCHY_UNIQUE_NAME": Values("[Store]"), "LEVEL_NUMBER": Values("2")}),
			want:         []any{"CA", "WA", "BC"},
		},
		{
			name:         "level number past the leaves",
			restrictions: sales(map[string]Restriction{"HIERARCHY_UNIQUE_NAME": Values("[Store]"), "LEVEL_NUMBER": Values("9")}),
			want:         []any{},
		},
		{
			name:         "level unique name",
			restrictions: sales(map[string]Restriction{"LEVEL_UNIQUE_NAME": Values("[Store].[Store State]")}),
			want:         []any{"CA", "WA", "BC"},
		},
		{
			name:         "unknown level",
			restrictions: sales(map[string]Restriction{"LEVEL_UNIQUE_NAME": Values("[Store].[Street]")}),
			want:         []any{},
		},
		{
			name:         "member unique name",
			restrictions: sales(map[string]Restriction{"MEMBER_UNIQUE_NAME": Values("[Store].[USA].[CA]")}),
			want:         []any{"CA"},
		},
		{
			name:         "unknown member",
			restrictions: sales(map[string]Restriction{"MEMBER_UNIQUE_NAME": Values("[Store].[Atlantis]")}),
			want:         []any{},
		},
		{
			name:         "malformed member",
			restrictions: sales(map[string]Restriction{"MEMBER_UNIQUE_NAME": Values("[Store].[USA")}),
			want:         []any{},
		},
		{
			name: "self and children",
			restrictions: sales(map[string]Restriction{
				"MEMBER_UNIQUE_NAME": Values("[Store].[USA].[CA]"),
				"TREE_OP":            Values("9"),
			}),
			want: []any{"Los Angeles", "San Francisco", "CA"},
		},
		{
			name: "ancestors",
			restrictions: sales(map[string]Restriction{
				"MEMBER_UNIQUE_NAME": Values("[Store].[USA].[CA].[Los Angeles]"),
				"TREE_OP":            Values("32"),
			}),
			want: []any{"All Stores", "USA", "CA"},
		},
		{
			name: "siblings",
			restrictions: sales(map[string]Restriction{
				"MEMBER_UNIQUE_NAME": Values("[Store].[USA].[WA]"),
				"TREE_OP":            Values("2"),
			}),
			want: []any{"CA"},
		},
		{
			name: "tree op that is not a number",
			restrictions: sales(map[string]Restriction{
				"MEMBER_UNIQUE_NAME": Values("[Store].[USA]"),
				"TREE_OP":            Values("children"),
			}),
			want: []any{},
		},
		{
			name: "walked members ignore the unique name",
			restrictions: sales(map[string]Restriction{
				"MEMBER_UNIQUE_NAME": Values("[Store].[Canada]"),
				"TREE_OP":            Values("16"),
			}),
			want: []any{"Vancouver", "BC"},
		},
		{
			name: "walked members still match member predicates",
			restrictions: sales(map[string]Restriction{
				"MEMBER_UNIQUE_NAME": Values("[Store].[USA]"),
				"TREE_OP":            Values("16"),
				"MEMBER_NAME":        Wildcard("S%"),
			}),
			want: []any{"San Francisco", "Seattle", "Spokane"},
		},
		{
			name:         "hidden members are skipped",
			restrictions: sales(map[string]Restriction{"HIERARCHY_UNIQUE_NAME": Values("[Product]")}),
			want:         []any{"All Products", "Drink", "Food"},
		},
		{
			name:         "hidden members on request",
			restrictions: sales(map[string]Restriction{"HIERARCHY_UNIQUE_NAME": Values("[Product]")}),
			properties:   map[string]string{"EmitInvisibleMembers": "true"},
			want:         []any{"All Products", "Drink", "Food", "Non-Consumable"},
		},
		{
			name:         "member name across levels",
			restrictions: sales(map[string]Restriction{"MEMBER_NAME": Values("Q1")}),
			want:         []any{"Q1", "Q1"},
		},
		{
			name:         "all members",
			restrictions: sales(map[string]Restriction{"MEMBER_TYPE": Values("2")}),
			want:         []any{"All Products", "All Brands", "All Stores"},
		},
		{
			name:         "measures",
			restrictions: sales(map[string]Restriction{"DIMENSION_UNIQUE_NAME": Values("[Measures]")}),
			want:         []any{"Unit Sales", "Profit", "Store Sales", "Sales Count"},
		},
		{
			name:         "caption",
			restrictions: sales(map[string]Restriction{"MEMBER_CAPTION": Values("Vancouver")}),
			want:         []any{"Vancouver"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := discover(t, e, Request{
				RowsetName:   "MDSCHEMA_MEMBERS",
				Restrictions: tt.restrictions,
				Properties:   tt.properties,
			})
			assert.Equal(t, tt.want, column(rows, "MEMBER_NAME"))
		})
	}
}

func TestMemberRow(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{
		RowsetName:   "MDSCHEMA_MEMBERS",
		Restrictions: map[string]Restriction{"MEMBER_UNIQUE_NAME": Values("[Store].[USA].[CA]")},
	})
	require.Len(t, rows, 1, "a cube without the member contributes nothing")
	r := rows[0]

	assert.Equal(t, "Sales", r.Get("CUBE_NAME"))
	assert.Equal(t, "[Store]", r.Get("DIMENSION_UNIQUE_NAME"))
	assert.Equal(t, "[Store]", r.Get("HIERARCHY_UNIQUE_NAME"))
	assert.Equal(t, "[Store].[Store State]", r.Get("LEVEL_UNIQUE_NAME"))
	assert.Equal(t, 2, r.Get("LEVEL_NUMBER"))
	assert.Equal(t, 2, r.Get("MEMBER_ORDINAL"))
	assert.Equal(t, "[Store].[USA].[CA]", r.Get("MEMBER_UNIQUE_NAME"))
	assert.Equal(t, 1, r.Get("MEMBER_TYPE"))
	assert.Equal(t, "CA", r.Get("MEMBER_CAPTION"))
	assert.Equal(t, 2, r.Get("CHILDREN_CARDINALITY"))
	assert.Equal(t, 1, r.Get("PARENT_LEVEL"))
	assert.Equal(t, "[Store].[USA]", r.Get("PARENT_UNIQUE_NAME"))
	assert.Equal(t, 1, r.Get("PARENT_COUNT"))
	assert.Equal(t, 2, r.Get("DEPTH"))
}

func TestMemberRowRoot(t *testing.T) {
	e := newTestEngine(t, nil)

	rows := discover(t, e, Request{
		RowsetName:   "MDSCHEMA_MEMBERS",
		Restrictions: sales(map[string]Restriction{"MEMBER_UNIQUE_NAME": Values("[Time].[1997]")}),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Get("PARENT_LEVEL"))
	assert.Equal(t, 0, rows[0].Get("PARENT_COUNT"))
	assert.Nil(t, rows[0].Get("PARENT_UNIQUE_NAME"))
	assert.Equal(t, 2, rows[0].Get("CHILDREN_CARDINALITY"))
}
