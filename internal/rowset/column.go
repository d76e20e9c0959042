package rowset

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapxmla/pkg/xmlwriter"
)

// XmlaType is the declared value kind of a column.
type XmlaType int

const (
	TypeString XmlaType = iota
	TypeStringArray
	TypeArray
	TypeEnumeration
	TypeEnumerationArray
	TypeEnumString
	TypeBoolean
	TypeStringSometimesArray
	TypeInteger
	TypeUnsignedInteger
	TypeDateTime
	TypeRowset
	TypeShort
	TypeUUID
	TypeUnsignedShort
	TypeLong
	TypeUnsignedLong
)

var xsdTypes = map[XmlaType]string{
	TypeString:               "xsd:string",
	TypeStringArray:          "xsd:string",
	TypeArray:                "xsd:string",
	TypeEnumeration:          "xsd:string",
	TypeEnumerationArray:     "xsd:string",
	TypeEnumString:           "xsd:string",
	TypeStringSometimesArray: "xsd:string",
	TypeBoolean:              "xsd:boolean",
	TypeInteger:              "xsd:int",
	TypeUnsignedInteger:      "xsd:unsignedInt",
	TypeDateTime:             "xsd:dateTime",
	TypeShort:                "xsd:short",
	TypeUUID:                 "uuid",
	TypeUnsignedShort:        "xsd:unsignedShort",
	TypeLong:                 "xsd:long",
	TypeUnsignedLong:         "xsd:unsignedLong",
}

// XSD returns the schema type of the column kind, or "" for nested rowsets.
func (t XmlaType) XSD() string {
	return xsdTypes[t]
}

// multiValued reports whether a restriction on the type may list several values.
func (t XmlaType) multiValued() bool {
	return t == TypeStringArray || t == TypeEnumerationArray || t == TypeStringSometimesArray
}

type columnFlag int

const (
	restrict columnFlag = 1 << iota
	required
	unbounded
)

// Column is one declared column of a rowset. Columns are immutable
// reference data owned by a single Definition.
type Column struct {
	Name         string
	Type         XmlaType
	Restrictable bool
	Nullable     bool
	Unbounded    bool
	Description  string

	element string
	index   int
	def     *Definition
}

func col(name string, typ XmlaType, flags columnFlag, description string) *Column {
	return &Column{
		Name:         name,
		Type:         typ,
		Restrictable: flags&restrict != 0,
		Nullable:     flags&required == 0,
		Unbounded:    flags&unbounded != 0,
		Description:  description,
		element:      xmlwriter.EncodeName(name),
	}
}

// Sortable reports whether the column is part of its rowset's sort key.
func (c *Column) Sortable() bool {
	return c.def != nil && slices.Contains(c.def.SortColumns, c)
}

// populateFunc enumerates the rows of a rowset.
type populateFunc func(ctx context.Context, rs *Rowset) ([]Row, error)

// Definition is the declared shape of one rowset kind.
type Definition struct {
	Name        string
	Description string
	Columns     []*Column
	SortColumns []*Column

	populate populateFunc
	byName   map[string]*Column
}

// Column returns the column with the given name.
func (d *Definition) Column(name string) (*Column, bool) {
	c, ok := d.byName[name]
	return c, ok
}

// RestrictableColumns returns the columns a request may restrict on.
func (d *Definition) RestrictableColumns() []*Column {
	var cols []*Column
	for _, c := range d.Columns {
		if c.Restrictable {
			cols = append(cols, c)
		}
	}
	return cols
}

var (
	registryMu  sync.RWMutex
	definitions = make(map[string]*Definition)
)

// register binds a population strategy to d and adds it to the registry.
// Called from init functions of the files declaring each rowset kind.
func register(d *Definition, populate populateFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := definitions[d.Name]; dup {
		panic(fmt.Sprintf("rowset: %s registered twice", d.Name))
	}
	d.populate = populate
	d.byName = make(map[string]*Column, len(d.Columns))
	for i, c := range d.Columns {
		if c.def != nil {
			panic(fmt.Sprintf("rowset: column %s of %s already belongs to %s", c.Name, d.Name, c.def.Name))
		}
		c.def = d
		c.index = i
		d.byName[c.Name] = c
	}
	for _, c := range d.SortColumns {
		if c.def != d {
			panic(fmt.Sprintf("rowset: sort column %s is not declared by %s", c.Name, d.Name))
		}
	}
	definitions[d.Name] = d
}

// Lookup returns the definition of a rowset kind.
func Lookup(name string) (*Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := definitions[name]
	return d, ok
}

// Definitions returns every registered rowset kind, sorted by name.
func Definitions() []*Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()
	defs := make([]*Definition, 0, len(definitions))
	for _, d := range definitions {
		defs = append(defs, d)
	}
	slices.SortFunc(defs, func(a, b *Definition) int { return strings.Compare(a.Name, b.Name) })
	return defs
}
