package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name  string
	valid bool
}

func project(i item) (string, bool) { return i.name, i.valid }

func TestNewCondition(t *testing.T) {
	tests := []struct {
		name   string
		r      Restriction
		accept []item
		reject []item
	}{
		{
			name:   "none",
			accept: []item{{"Sales", true}, {"", false}},
		},
		{
			name:   "value list",
			r:      Values("Sales", "Warehouse"),
			accept: []item{{"Sales", true}, {"Warehouse", true}},
			reject: []item{{"sales", true}, {"HR", true}, {"", false}},
		},
		{
			name:   "empty value matches missing",
			r:      Values(""),
			accept: []item{{"", false}, {"", true}},
			reject: []item{{"Sales", true}},
		},
		{
			name:   "wildcard single character",
			r:      Wildcard("Foo_"),
			accept: []item{{"Food", true}, {"Foo1", true}},
			reject: []item{{"Foo", true}, {"Foodie", true}},
		},
		{
			name:   "wildcard run",
			r:      Wildcard("[Store].%"),
			accept: []item{{"[Store].[USA]", true}, {"[Store].", true}},
			reject: []item{{"[Time].[1997]", true}},
		},
		{
			name:   "wildcard quotes regexp characters",
			r:      Wildcard("a.b%"),
			accept: []item{{"a.bc", true}},
			reject: []item{{"axbc", true}},
		},
		{
			name:   "scalar with percent is a pattern",
			r:      Scalar("Sal%"),
			accept: []item{{"Sales", true}},
			reject: []item{{"Warehouse", true}},
		},
		{
			name:   "scalar without percent is exact",
			r:      Scalar("Sal_s"),
			accept: []item{{"Sal_s", true}},
			reject: []item{{"Sales", true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCondition(tt.r, project)
			assert.Equal(t, !tt.r.IsSet(), c.Trivial())
			for _, i := range tt.accept {
				assert.True(t, c.Accept(i), "expected %q to be accepted", i.name)
			}
			for _, i := range tt.reject {
				assert.False(t, c.Accept(i), "expected %q to be rejected", i.name)
			}
		})
	}
}

func TestAndFilter(t *testing.T) {
	items := []item{{"Sales", true}, {"Salaries", true}, {"Warehouse", true}}

	assert.True(t, And[item]().Trivial())
	assert.True(t, And(Condition[item]{}, Condition[item]{}).Trivial())
	assert.Equal(t, items, Filter(items), "no conditions keeps every item")

	prefix := NewCondition(Wildcard("Sal%"), project)
	exact := NewCondition(Values("Sales", "Warehouse"), project)
	assert.Equal(t, []item{{"Sales", true}, {"Salaries", true}}, Filter(items, prefix))
	assert.Equal(t, []item{{"Sales", true}}, Filter(items, prefix, exact))
	assert.Equal(t, []item{{"Sales", true}}, Filter(items, And(prefix, Condition[item]{}, exact)))
	assert.Empty(t, Filter(items, NewCondition(Values("HR"), project)))
}

func TestRestriction(t *testing.T) {
	v, ok := Values("a").single()
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = Values("a", "b").single()
	assert.False(t, ok)
	_, ok = Wildcard("a%").single()
	assert.False(t, ok)

	assert.Equal(t, []string{"a%"}, Wildcard("a%").literals())
	assert.Equal(t, []string{"a", "b"}, Values("a", "b").literals())
	assert.Nil(t, Restriction{}.literals())

	assert.Equal(t, "none", Restriction{}.String())
	assert.Equal(t, `like "a%"`, Wildcard("a%").String())
	assert.Equal(t, "in a,b", Values("a", "b").String())
}
