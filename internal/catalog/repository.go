// Package catalog serves the OLAP metadata graph from a YAML catalog file.
// Hierarchies either list their members inline or read them from a table
// of the configured target database.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/leapxmla/pkg/core"
	"gopkg.in/yaml.v3"
)

// Options configures how a catalog file is loaded.
type Options struct {
	// Adapter is the connected target database. It is required when the
	// file has seeds or table-backed hierarchies.
	Adapter core.Adapter

	// BaseDir resolves relative seed paths. Load sets it to the directory
	// of the catalog file.
	BaseDir string

	// Now stamps the load time. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Repository is one immutable load of a catalog file.
type Repository struct {
	catalogs []*Catalog
	loadedAt time.Time
}

// Catalogs returns the loaded catalogs in file order.
func (r *Repository) Catalogs() []*Catalog {
	return r.catalogs
}

// LoadedAt is when the file was loaded.
func (r *Repository) LoadedAt() time.Time {
	return r.loadedAt
}

// CubeCount returns the number of cubes across all catalogs.
func (r *Repository) CubeCount() int {
	n := 0
	for _, c := range r.catalogs {
		for _, s := range c.schemas {
			n += len(s.cubes)
		}
	}
	return n
}

// Load reads and builds the catalog file at path.
func Load(ctx context.Context, path string, opts Options) (*Repository, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(path)
	}
	repo, err := Parse(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return repo, nil
}

// Parse builds a repository from catalog YAML. Seeds are loaded into the
// target database before any hierarchy is built.
func Parse(ctx context.Context, data []byte, opts Options) (*Repository, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := f.Validate(opts.Adapter != nil); err != nil {
		return nil, err
	}

	for _, s := range f.Seeds {
		path := s.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.BaseDir, path)
		}
		if err := opts.Adapter.LoadCSV(ctx, s.Table, path); err != nil {
			return nil, fmt.Errorf("failed to load seed %s: %w", s.Table, err)
		}
		opts.Logger.Debug("loaded seed", "table", s.Table, "path", path)
	}

	b := &builder{opts: opts, loadedAt: opts.Now()}
	repo := &Repository{loadedAt: b.loadedAt}
	for _, cs := range f.Catalogs {
		repo.catalogs = append(repo.catalogs, b.catalog(cs))
	}
	return repo, nil
}

// Validate checks the file for structural errors. Every problem found is
// reported.
func (f *File) Validate(hasAdapter bool) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(f.Seeds) > 0 && !hasAdapter {
		add("seeds require a target database")
	}
	for i, s := range f.Seeds {
		if s.Table == "" || s.Path == "" {
			add("seed %d: table and path are required", i)
		}
	}

	catalogs := map[string]bool{}
	for _, c := range f.Catalogs {
		if c.Name == "" {
			add("catalog without a name")
			continue
		}
		if catalogs[c.Name] {
			add("duplicate catalog %q", c.Name)
		}
		catalogs[c.Name] = true
		for _, s := range c.Schemas {
			if s.Name == "" {
				add("catalog %q: schema without a name", c.Name)
			}
			cubes := map[string]bool{}
			for _, cube := range s.Cubes {
				if cubes[cube.Name] {
					add("schema %q: duplicate cube %q", s.Name, cube.Name)
				}
				cubes[cube.Name] = true
				errs = append(errs, cube.validate(hasAdapter)...)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *CubeSpec) validate(hasAdapter bool) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("cube %q: "+format, append([]any{c.Name}, args...)...))
	}
	if c.Name == "" {
		add("name is required")
	}

	dims := map[string]bool{"Measures": true}
	for _, d := range c.Dimensions {
		if dims[d.Name] {
			add("duplicate or reserved dimension %q", d.Name)
		}
		dims[d.Name] = true
		if len(d.Hierarchies) == 0 {
			add("dimension %q has no hierarchy", d.Name)
		}
		for _, h := range d.Hierarchies {
			name := h.Name
			if name == "" {
				name = d.Name
			}
			if len(h.Levels) == 0 {
				add("hierarchy %q has no level", name)
			}
			for _, l := range h.Levels {
				if l.Name == "" {
					add("hierarchy %q: level without a name", name)
				}
				if _, ok := levelTypes[l.Type]; !ok {
					add("level %q: unknown type %q", l.Name, l.Type)
				}
				if h.Source != nil && l.Column == "" {
					add("level %q: a table-backed hierarchy needs a column per level", l.Name)
				}
			}
			if h.Structure != "" {
				if _, ok := structures[h.Structure]; !ok {
					add("hierarchy %q: unknown structure %q", name, h.Structure)
				}
			}
			if h.Source != nil {
				if len(h.Members) > 0 {
					add("hierarchy %q: members and source are exclusive", name)
				}
				if h.Source.Table == "" {
					add("hierarchy %q: source table is required", name)
				}
				if !hasAdapter {
					add("hierarchy %q reads members from %q but no target database is configured", name, h.Source.Table)
				}
			}
		}
	}

	measures := map[string]bool{}
	for _, m := range c.Measures {
		if m.Name == "" {
			add("measure without a name")
		}
		if measures[m.Name] {
			add("duplicate measure %q", m.Name)
		}
		measures[m.Name] = true
		if m.Aggregator != "" {
			if _, ok := aggregators[m.Aggregator]; !ok {
				add("measure %q: unknown aggregator %q", m.Name, m.Aggregator)
			}
		}
	}
	return errs
}

// builder turns validated specs into metadata objects.
type builder struct {
	opts     Options
	loadedAt time.Time
}

func (b *builder) catalog(cs CatalogSpec) *Catalog {
	cat := &Catalog{name: cs.Name, description: cs.Description, roles: cs.Roles}
	for _, ss := range cs.Schemas {
		sch := &Schema{name: ss.Name, catalog: cat, loadedAt: b.loadedAt}
		for _, cubeSpec := range ss.Cubes {
			sch.cubes = append(sch.cubes, b.cube(sch, cubeSpec))
		}
		cat.schemas = append(cat.schemas, sch)
	}
	return cat
}

func (b *builder) cube(sch *Schema, cs CubeSpec) *Cube {
	typ := cs.Type
	if typ == "" {
		typ = "CUBE"
	}
	c := &Cube{
		element: element{name: cs.Name, uniqueName: quote(cs.Name), caption: cs.Caption, description: cs.Description, hidden: cs.Hidden},
		schema:  sch,
		typ:     typ,
	}

	c.dimensions = append(c.dimensions, b.measuresDimension(c, cs.Measures))
	for _, ds := range cs.Dimensions {
		c.dimensions = append(c.dimensions, b.dimension(c, ds, len(c.dimensions)))
	}
	for _, ss := range cs.Sets {
		c.sets = append(c.sets, &NamedSet{
			element: element{name: ss.Name, uniqueName: quote(ss.Name), caption: ss.Caption, description: ss.Description},
			cube:    c,
			formula: ss.Formula,
		})
	}
	return c
}

func (b *builder) measuresDimension(c *Cube, specs []MeasureSpec) *Dimension {
	dim := &Dimension{
		element: element{name: "Measures", uniqueName: "[Measures]"},
		cube:    c,
		typ:     core.DimensionMeasure,
	}
	h := &Hierarchy{
		element: element{name: "Measures", uniqueName: "[Measures]"},
		dim:     dim,
		path:    []string{"Measures"},
		loaded:  true,
	}
	level := &Level{
		element: element{name: "MeasuresLevel", uniqueName: "[Measures].[MeasuresLevel]"},
		hier:    h,
		unique:  true,
	}
	h.levels = []*Level{level}
	dim.hierarchies = []*Hierarchy{h}

	for i, ms := range specs {
		m := &Measure{
			Member: &Member{
				element: element{
					name:        ms.Name,
					uniqueName:  qualify("[Measures]", ms.Name),
					caption:     ms.Caption,
					description: ms.Description,
					hidden:      ms.Hidden,
				},
				level:   level,
				typ:     core.MemberMeasure,
				ordinal: i,
			},
			dataType:     ms.DataType,
			formatString: ms.FormatString,
			formula:      ms.Formula,
		}
		if m.formula != "" {
			m.typ = core.MemberFormula
		} else {
			m.aggregator = core.AggregatorSum
			if ms.Aggregator != "" {
				m.aggregator = aggregators[ms.Aggregator]
			}
		}
		m.measure = m
		c.measures = append(c.measures, m)
		level.members = append(level.members, m.Member)
		h.top = append(h.top, m.Member)
	}
	h.count = len(level.members)
	return dim
}

func (b *builder) dimension(c *Cube, ds DimensionSpec, ordinal int) *Dimension {
	dim := &Dimension{
		element: element{name: ds.Name, uniqueName: quote(ds.Name), caption: ds.Caption, description: ds.Description, hidden: ds.Hidden},
		cube:    c,
		typ:     dimensionType(ds.Type),
		ordinal: ordinal,
	}
	for i, hs := range ds.Hierarchies {
		dim.hierarchies = append(dim.hierarchies, b.hierarchy(dim, hs, i))
	}
	return dim
}

func (b *builder) hierarchy(dim *Dimension, hs HierarchySpec, ordinal int) *Hierarchy {
	name := hs.Name
	if name == "" {
		name = dim.name
	}
	h := &Hierarchy{
		element:       element{name: name, caption: hs.Caption, description: hs.Description, hidden: hs.Hidden},
		dim:           dim,
		ordinal:       ordinal,
		hasAll:        hs.HasAll == nil || *hs.HasAll,
		allName:       hs.AllMemberName,
		defaultMember: hs.DefaultMember,
		parentChild:   hs.ParentChild,
		structure:     structures[hs.Structure],
	}
	if hs.Structure == "" && hs.ParentChild {
		h.structure = core.StructureUnbalanced
	}
	if name == dim.name {
		h.uniqueName = dim.uniqueName
		h.path = []string{dim.name}
	} else {
		h.uniqueName = qualify(dim.uniqueName, name)
		h.path = []string{dim.name, name}
	}
	if h.allName == "" {
		h.allName = "All " + name + "s"
	}

	if h.hasAll {
		h.levels = append(h.levels, &Level{
			element: element{name: "(All)", uniqueName: qualify(h.uniqueName, "(All)")},
			hier:    h,
			typ:     core.LevelAll,
			unique:  true,
		})
	}
	for i, ls := range hs.Levels {
		unique := i == 0
		if ls.UniqueMembers != nil {
			unique = *ls.UniqueMembers
		}
		h.levels = append(h.levels, &Level{
			element: element{
				name:        ls.Name,
				uniqueName:  qualify(h.uniqueName, ls.Name),
				caption:     ls.Caption,
				description: ls.Description,
				hidden:      ls.Hidden,
			},
			hier:   h,
			depth:  len(h.levels),
			typ:    levelTypes[ls.Type],
			unique: unique,
			column: ls.Column,
		})
	}

	if hs.Source != nil {
		h.source = &memberSource{table: hs.Source.Table, adapter: b.opts.Adapter, logger: b.opts.Logger}
		return h
	}
	h.setMembers(hs.Members)
	return h
}
