package rowset

import "fmt"

// Row is one immutable result row, indexed by column position.
type Row struct {
	def    *Definition
	values []any
}

// Value returns the value of c, or nil.
func (r Row) Value(c *Column) any {
	if c.def != r.def {
		return nil
	}
	return r.values[c.index]
}

// Get returns the value of the named column, or nil.
func (r Row) Get(name string) any {
	c, ok := r.def.Column(name)
	if !ok {
		return nil
	}
	return r.values[c.index]
}

// Nested is a column value that expands into a sub-rowset at emission time.
type Nested struct {
	Def          *Definition
	Restrictions map[string]Restriction
}

// Fragment is a literal XML element used by columns whose content has its
// own structure.
type Fragment struct {
	Tag      string
	Text     string
	Children []Fragment
}

type rowBuilder struct {
	def    *Definition
	values []any
}

func newRow(def *Definition) *rowBuilder {
	return &rowBuilder{def: def, values: make([]any, len(def.Columns))}
}

func (b *rowBuilder) set(c *Column, v any) *rowBuilder {
	if c.def != b.def {
		panic(fmt.Sprintf("rowset: column %s does not belong to %s", c.Name, b.def.Name))
	}
	b.values[c.index] = v
	return b
}

func (b *rowBuilder) build() Row {
	r := Row{def: b.def, values: b.values}
	b.values = nil
	return r
}
