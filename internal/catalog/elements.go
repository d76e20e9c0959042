package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// element carries the naming shared by every metadata object.
type element struct {
	name        string
	uniqueName  string
	caption     string
	description string
	hidden      bool
}

func (e *element) Name() string        { return e.name }
func (e *element) UniqueName() string  { return e.uniqueName }
func (e *element) Description() string { return e.description }
func (e *element) Visible() bool       { return !e.hidden }

// Caption falls back to the name.
func (e *element) Caption() string {
	if e.caption != "" {
		return e.caption
	}
	return e.name
}

// Catalog is a loaded catalog.
type Catalog struct {
	name        string
	description string
	roles       []string
	schemas     []*Schema
}

func (c *Catalog) Name() string        { return c.name }
func (c *Catalog) Description() string { return c.description }

func (c *Catalog) Schemas(context.Context) ([]core.Schema, error) {
	return convert(c.schemas, func(s *Schema) core.Schema { return s }), nil
}

// Schema is a loaded schema.
type Schema struct {
	name     string
	catalog  *Catalog
	cubes    []*Cube
	loadedAt time.Time
}

func (s *Schema) Name() string          { return s.name }
func (s *Schema) Catalog() core.Catalog { return s.catalog }

func (s *Schema) Cubes(context.Context) ([]core.Cube, error) {
	return convert(s.cubes, func(c *Cube) core.Cube { return c }), nil
}

// Cube is a loaded cube. Its first dimension is always Measures.
type Cube struct {
	element
	schema     *Schema
	typ        string
	dimensions []*Dimension
	measures   []*Measure
	sets       []*NamedSet
}

func (c *Cube) Schema() core.Schema { return c.schema }

func (c *Cube) Dimensions() []core.Dimension {
	return convert(c.dimensions, func(d *Dimension) core.Dimension { return d })
}

func (c *Cube) Measures() []core.Measure {
	return convert(c.measures, func(m *Measure) core.Measure { return m })
}

func (c *Cube) Sets() []core.NamedSet {
	return convert(c.sets, func(s *NamedSet) core.NamedSet { return s })
}

// LookupMember resolves a member unique name. Names that do not parse or
// do not resolve yield no member.
func (c *Cube) LookupMember(ctx context.Context, uniqueName string) (core.Member, error) {
	segs, err := ParseIdentifier(uniqueName)
	if err != nil {
		return nil, nil
	}

	var best *Hierarchy
	for _, d := range c.dimensions {
		for _, h := range d.hierarchies {
			if len(segs) > len(h.path) && hasPrefix(segs, h.path) && (best == nil || len(h.path) > len(best.path)) {
				best = h
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	if err := best.load(ctx); err != nil {
		return nil, err
	}
	if m := best.find(segs[len(best.path):]); m != nil {
		return m.self(), nil
	}
	return nil, nil
}

func hasPrefix(segs, prefix []string) bool {
	for i, p := range prefix {
		if segs[i] != p {
			return false
		}
	}
	return true
}

// Dimension is a loaded dimension.
type Dimension struct {
	element
	cube        *Cube
	typ         core.DimensionType
	ordinal     int
	hierarchies []*Hierarchy
}

func (d *Dimension) Cube() core.Cube          { return d.cube }
func (d *Dimension) Type() core.DimensionType { return d.typ }
func (d *Dimension) Ordinal() int             { return d.ordinal }

func (d *Dimension) Hierarchies() []core.Hierarchy {
	return convert(d.hierarchies, func(h *Hierarchy) core.Hierarchy { return h })
}

func (d *Dimension) DefaultHierarchy() core.Hierarchy {
	if len(d.hierarchies) == 0 {
		return nil
	}
	return d.hierarchies[0]
}

// Hierarchy is a loaded hierarchy. Members of a hierarchy backed by a table
// are read on first access and kept for the life of the repository.
type Hierarchy struct {
	element
	dim           *Dimension
	ordinal       int
	path          []string
	hasAll        bool
	allName       string
	defaultMember string
	parentChild   bool
	structure     core.HierarchyStructure
	levels        []*Level
	source        *memberSource

	mu     sync.Mutex
	loaded bool
	all    *Member
	top    []*Member
	count  int
}

func (h *Hierarchy) Dimension() core.Dimension { return h.dim }
func (h *Hierarchy) Ordinal() int              { return h.ordinal }
func (h *Hierarchy) HasAll() bool              { return h.hasAll }

func (h *Hierarchy) Levels() []core.Level {
	return convert(h.levels, func(l *Level) core.Level { return l })
}

// RootMembers returns the all member, or the top level members of a
// hierarchy without one.
func (h *Hierarchy) RootMembers(ctx context.Context) ([]core.Member, error) {
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	if h.all != nil {
		return []core.Member{h.all}, nil
	}
	return members(h.top), nil
}

// DefaultMember returns the configured default member, else the first root.
func (h *Hierarchy) DefaultMember(ctx context.Context) (core.Member, error) {
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	if h.defaultMember != "" {
		if segs, err := ParseIdentifier(h.defaultMember); err == nil {
			if len(segs) > len(h.path) && hasPrefix(segs, h.path) {
				segs = segs[len(h.path):]
			}
			if m := h.find(segs); m != nil {
				return m.self(), nil
			}
		}
	}
	switch {
	case h.all != nil:
		return h.all, nil
	case len(h.top) > 0:
		return h.top[0].self(), nil
	}
	return nil, nil
}

// find resolves member name segments relative to the hierarchy.
func (h *Hierarchy) find(segs []string) *Member {
	if h.all != nil && len(segs) == 1 && segs[0] == h.all.name {
		return h.all
	}
	var m *Member
	candidates := h.top
	for _, seg := range segs {
		m = nil
		for _, c := range candidates {
			if c.name == seg {
				m = c
				break
			}
		}
		if m == nil {
			return nil
		}
		candidates = m.children
	}
	return m
}

// Level is a loaded level.
type Level struct {
	element
	hier    *Hierarchy
	depth   int
	typ     core.LevelType
	unique  bool
	column  string
	members []*Member
}

func (l *Level) Hierarchy() core.Hierarchy { return l.hier }
func (l *Level) Depth() int                { return l.depth }
func (l *Level) Type() core.LevelType      { return l.typ }

func (l *Level) Members(ctx context.Context) ([]core.Member, error) {
	if err := l.hier.load(ctx); err != nil {
		return nil, err
	}
	return members(l.members), nil
}

// Member is a loaded member.
type Member struct {
	element
	level    *Level
	typ      core.MemberType
	ordinal  int
	parent   *Member
	children []*Member

	// measure is set on the members of the Measures level.
	measure *Measure
}

func (m *Member) Level() core.Level     { return m.level }
func (m *Member) Type() core.MemberType { return m.typ }
func (m *Member) Ordinal() int          { return m.ordinal }
func (m *Member) Depth() int            { return m.level.depth }

func (m *Member) Parent() core.Member {
	if m.parent == nil {
		return nil
	}
	return m.parent
}

func (m *Member) Children(context.Context) ([]core.Member, error) {
	return members(m.children), nil
}

// self returns the richest view of m: the measure for measure members.
func (m *Member) self() core.Member {
	if m.measure != nil {
		return m.measure
	}
	return m
}

// Measure is a stored or calculated measure.
type Measure struct {
	*Member
	aggregator   core.Aggregator
	dataType     string
	formatString string
	formula      string
}

func (m *Measure) Aggregator() core.Aggregator { return m.aggregator }
func (m *Measure) DataType() string            { return m.dataType }
func (m *Measure) FormatString() string        { return m.formatString }
func (m *Measure) Calculated() bool            { return m.formula != "" }

// NamedSet is a set registered on a cube.
type NamedSet struct {
	element
	cube    *Cube
	formula string
}

func (s *NamedSet) Cube() core.Cube { return s.cube }

// members converts loaded members to their richest interface view.
func members(ms []*Member) []core.Member {
	return convert(ms, (*Member).self)
}

func convert[T, I any](items []T, fn func(T) I) []I {
	if len(items) == 0 {
		return nil
	}
	out := make([]I, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// levelTypes maps YAML level types to XMLA codes.
var levelTypes = map[string]core.LevelType{
	"":              core.LevelRegular,
	"regular":       core.LevelRegular,
	"time_years":    core.LevelTimeYears,
	"time_halfyear": core.LevelTimeHalfYears,
	"time_quarters": core.LevelTimeQuarters,
	"time_months":   core.LevelTimeMonths,
	"time_weeks":    core.LevelTimeWeeks,
	"time_days":     core.LevelTimeDays,
	"time_hours":    core.LevelTimeHours,
	"time_minutes":  core.LevelTimeMinutes,
	"time_seconds":  core.LevelTimeSeconds,
}

var structures = map[string]core.HierarchyStructure{
	"balanced":   core.StructureFullyBalanced,
	"ragged":     core.StructureRaggedBalanced,
	"unbalanced": core.StructureUnbalanced,
	"network":    core.StructureNetwork,
}

var aggregators = map[string]core.Aggregator{
	"sum":            core.AggregatorSum,
	"count":          core.AggregatorCount,
	"distinct-count": core.AggregatorDistinctCount,
	"min":            core.AggregatorMin,
	"max":            core.AggregatorMax,
	"avg":            core.AggregatorAvg,
	"var":            core.AggregatorVar,
	"std":            core.AggregatorStd,
}

func dimensionType(s string) core.DimensionType {
	if strings.EqualFold(s, "time") {
		return core.DimensionTime
	}
	return core.DimensionOther
}
