package rowset

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// Request is a Discover request as received from a client.
type Request struct {
	RowsetName   string
	Restrictions map[string]Restriction
	Properties   map[string]string
	SessionID    string
	Username     string
	Password     string
	DrillThrough bool
}

// Rowset is a validated request bound to its definition. It is owned by a
// single request and never shared.
type Rowset struct {
	def          *Definition
	restrictions map[*Column]Restriction
	settings     settings
	conn         *connHolder
	extra        core.Extra
	logger       *slog.Logger
	depth        int
}

// validate checks restrictions and properties against def before any
// backend work happens.
func validate(def *Definition, req Request, logger *slog.Logger) (*Rowset, error) {
	rs := &Rowset{
		def:          def,
		restrictions: make(map[*Column]Restriction, len(req.Restrictions)),
		logger:       logger,
	}

	for _, name := range slices.Sorted(maps.Keys(req.Restrictions)) {
		r := req.Restrictions[name]
		c, ok := def.Column(name)
		if !ok {
			return nil, ClientFault(CodeUnknownColumn, "Rowset '%s' does not contain column '%s'", def.Name, name)
		}
		if !c.Restrictable {
			return nil, ClientFault(CodeNotRestrictable, "Rowset '%s' column '%s' does not allow restrictions", def.Name, name)
		}
		if r.kind == restrictMany && len(r.values) > 1 && !c.Type.multiValued() {
			return nil, ClientFault(CodeMultiValue, "Rowset '%s' column '%s' can only be restricted on one value at a time", def.Name, name)
		}
		if r.IsSet() {
			rs.restrictions[c] = r
		}
	}

	for _, name := range slices.Sorted(maps.Keys(req.Properties)) {
		p, ok := propertyDefs[name]
		if !ok {
			return nil, ClientFault(CodeUnsupportedProp, "Rowset '%s' does not support property '%s'", def.Name, name)
		}
		if p.handle == nil {
			logger.Warn("property has no effect on discovery", "rowset", def.Name, "property", name)
			continue
		}
		if err := p.handle(&rs.settings, req.Properties[name], logger); err != nil {
			return nil, err
		}
	}

	return rs, nil
}

// Definition returns the rowset kind.
func (rs *Rowset) Definition() *Definition {
	return rs.def
}

// child derives the rowset for a nested column value. The child shares the
// parent's connection and properties.
func (rs *Rowset) child(n Nested) (*Rowset, error) {
	c := &Rowset{
		def:          n.Def,
		restrictions: make(map[*Column]Restriction, len(n.Restrictions)),
		settings:     rs.settings,
		conn:         rs.conn,
		extra:        rs.extra,
		logger:       rs.logger,
		depth:        rs.depth + 1,
	}
	for name, r := range n.Restrictions {
		col, ok := n.Def.Column(name)
		if !ok {
			return nil, ServerFault(CodeUnknown, nil, "nested rowset '%s' has no column '%s'", n.Def.Name, name)
		}
		if r.IsSet() {
			c.restrictions[col] = r
		}
	}
	return c, nil
}

func (rs *Rowset) restriction(c *Column) Restriction {
	return rs.restrictions[c]
}

func (rs *Rowset) isRestricted(c *Column) bool {
	return rs.restrictions[c].IsSet()
}

// stringValue returns the restriction value of c when exactly one exact
// value was given.
func (rs *Rowset) stringValue(c *Column) (string, bool) {
	return rs.restrictions[c].single()
}

// intValue parses the single restriction value of c. It returns -1 when
// the value is absent or not an integer.
func (rs *Rowset) intValue(c *Column) int {
	s, ok := rs.stringValue(c)
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}

// condition builds the predicate for the named column. Rowsets without
// that column get a trivial condition.
func condition[E any](rs *Rowset, column string, project Projection[E]) Condition[E] {
	c, ok := rs.def.Column(column)
	if !ok {
		return Condition[E]{}
	}
	return NewCondition(rs.restriction(c), project)
}

func (rs *Rowset) connection(ctx context.Context) (core.Connection, error) {
	return rs.conn.get(ctx)
}

// catalogs lists the catalogs passing the Catalog property and the
// CATALOG_NAME restriction.
func (rs *Rowset) catalogs(ctx context.Context) ([]core.Catalog, error) {
	conn, err := rs.connection(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := conn.Catalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}

	var byProperty Condition[core.Catalog]
	if rs.settings.catalog != "" {
		byProperty = NewCondition(Values(rs.settings.catalog), catalogName)
	}
	return Filter(cats, byProperty, condition(rs, "CATALOG_NAME", catalogName)), nil
}

// cubeScope locates a cube in the metadata graph.
type cubeScope struct {
	catalog core.Catalog
	schema  core.Schema
	cube    core.Cube
}

// eachCube visits every cube passing the catalog, schema and cube name
// restrictions, in name order.
func (rs *Rowset) eachCube(ctx context.Context, fn func(cubeScope) error) error {
	cats, err := rs.catalogs(ctx)
	if err != nil {
		return err
	}
	schemaCond := condition(rs, "SCHEMA_NAME", schemaName)
	cubeCond := condition(rs, "CUBE_NAME", elementName[core.Cube])

	for _, cat := range cats {
		schemas, err := cat.Schemas(ctx)
		if err != nil {
			return fmt.Errorf("failed to list schemas of %s: %w", cat.Name(), err)
		}
		for _, sch := range Filter(schemas, schemaCond) {
			cubes, err := sch.Cubes(ctx)
			if err != nil {
				return fmt.Errorf("failed to list cubes of %s: %w", sch.Name(), err)
			}
			cubes = slices.SortedFunc(slices.Values(cubes), func(a, b core.Cube) int {
				return strings.Compare(a.Name(), b.Name())
			})
			for _, cube := range Filter(cubes, cubeCond) {
				if err := fn(cubeScope{catalog: cat, schema: sch, cube: cube}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func catalogName(c core.Catalog) (string, bool) { return c.Name(), true }
func schemaName(s core.Schema) (string, bool)   { return s.Name(), true }

func elementName[E core.Element](e E) (string, bool)       { return e.Name(), true }
func elementUniqueName[E core.Element](e E) (string, bool) { return e.UniqueName(), true }

// connHolder acquires the metadata connection on first use and releases
// it exactly once.
type connHolder struct {
	factory core.ConnectionFactory
	req     core.ConnectRequest
	conn    core.Connection
	logger  *slog.Logger
}

func (h *connHolder) get(ctx context.Context) (core.Connection, error) {
	if h.conn != nil {
		return h.conn, nil
	}
	conn, err := h.factory.Connect(ctx, h.req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	h.conn = conn
	return conn, nil
}

func (h *connHolder) release() {
	if h.conn == nil {
		return
	}
	if err := h.conn.Close(); err != nil {
		h.logger.Debug("failed to close metadata connection", "error", err)
	}
	h.conn = nil
}
