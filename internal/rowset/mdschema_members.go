package rowset

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

var memberCols = struct {
	CatalogName, SchemaName, CubeName, DimensionUniqueName, HierarchyUniqueName, LevelUniqueName,
	LevelNumber, MemberOrdinal, MemberName, MemberUniqueName, MemberType, MemberGUID, MemberCaption,
	ChildrenCardinality, ParentLevel, ParentUniqueName, ParentCount, TreeOp, Depth *Column
}{
	CatalogName:         col("CATALOG_NAME", TypeString, restrict, "The name of the catalog to which this member belongs."),
	SchemaName:          col("SCHEMA_NAME", TypeString, restrict, "The name of the schema to which this member belongs."),
	CubeName:            col("CUBE_NAME", TypeString, restrict|required, "Name of the cube to which this member belongs."),
	DimensionUniqueName: col("DIMENSION_UNIQUE_NAME", TypeString, restrict|required, "Unique name of the dimension to which this member belongs."),
	HierarchyUniqueName: col("HIERARCHY_UNIQUE_NAME", TypeString, restrict|required, "Unique name of the hierarchy."),
	LevelUniqueName:     col("LEVEL_UNIQUE_NAME", TypeString, restrict|required, "Unique name of the level to which the member belongs."),
	LevelNumber:         col("LEVEL_NUMBER", TypeUnsignedInteger, restrict|required, "The distance of the member from the root of the hierarchy."),
	MemberOrdinal:       col("MEMBER_ORDINAL", TypeUnsignedInteger, required, "Ordinal number of the member."),
	MemberName:          col("MEMBER_NAME", TypeString, restrict|required, "Name of the member."),
	MemberUniqueName:    col("MEMBER_UNIQUE_NAME", TypeStringSometimesArray, restrict|required, "Unique name of the member."),
	MemberType:          col("MEMBER_TYPE", TypeInteger, restrict|required, "Type of the member."),
	MemberGUID:          col("MEMBER_GUID", TypeUUID, 0, "Member GUID."),
	MemberCaption:       col("MEMBER_CAPTION", TypeString, restrict|required, "A label or caption associated with the member."),
	ChildrenCardinality: col("CHILDREN_CARDINALITY", TypeUnsignedInteger, required, "Number of children that the member has."),
	ParentLevel:         col("PARENT_LEVEL", TypeUnsignedInteger, required, "The distance of the member's parent from the root level of the hierarchy."),
	ParentUniqueName:    col("PARENT_UNIQUE_NAME", TypeString, 0, "Unique name of the member's parent."),
	ParentCount:         col("PARENT_COUNT", TypeUnsignedInteger, required, "Number of parents that this member has."),
	TreeOp:              col("TREE_OP", TypeEnumeration, restrict, "Tree Operation"),
	Depth:               col("DEPTH", TypeInteger, 0, "depth"),
}

var mdschemaMembers = &Definition{
	Name:        "MDSCHEMA_MEMBERS",
	Description: "Describes the members within a database.",
	Columns: []*Column{
		memberCols.CatalogName, memberCols.SchemaName, memberCols.CubeName, memberCols.DimensionUniqueName,
		memberCols.HierarchyUniqueName, memberCols.LevelUniqueName, memberCols.LevelNumber,
		memberCols.MemberOrdinal, memberCols.MemberName, memberCols.MemberUniqueName, memberCols.MemberType,
		memberCols.MemberGUID, memberCols.MemberCaption, memberCols.ChildrenCardinality,
		memberCols.ParentLevel, memberCols.ParentUniqueName, memberCols.ParentCount, memberCols.TreeOp,
		memberCols.Depth,
	},
	SortColumns: []*Column{
		memberCols.CatalogName, memberCols.SchemaName, memberCols.CubeName, memberCols.DimensionUniqueName,
		memberCols.HierarchyUniqueName, memberCols.LevelUniqueName, memberCols.LevelNumber,
		memberCols.MemberOrdinal,
	},
}

// memberPopulation carries the per-request state of a members request.
type memberPopulation struct {
	rs       *Rowset
	accept   Condition[core.Member]
	dimCond  Condition[core.Dimension]
	hierCond Condition[core.Hierarchy]
	rows     []Row
}

func populateMembers(ctx context.Context, rs *Rowset) ([]Row, error) {
	p := &memberPopulation{
		rs: rs,
		accept: And(
			condition(rs, memberCols.MemberName.Name, elementName[core.Member]),
			condition(rs, memberCols.MemberCaption.Name, func(m core.Member) (string, bool) { return m.Caption(), true }),
			condition(rs, memberCols.MemberType.Name, func(m core.Member) (string, bool) {
				return strconv.Itoa(int(m.Type())), true
			}),
		),
		dimCond:  condition(rs, memberCols.DimensionUniqueName.Name, elementUniqueName[core.Dimension]),
		hierCond: condition(rs, memberCols.HierarchyUniqueName.Name, elementUniqueName[core.Hierarchy]),
	}

	err := rs.eachCube(ctx, func(s cubeScope) error {
		if rs.isRestricted(memberCols.MemberUniqueName) {
			return p.byUniqueName(ctx, s)
		}
		return p.byCube(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return p.rows, nil
}

// byUniqueName resolves each requested member and, when TREE_OP is given,
// walks its relatives. The unique name only selects the starting point; the
// walked members are not matched against it.
func (p *memberPopulation) byUniqueName(ctx context.Context, s cubeScope) error {
	for _, uname := range p.rs.restriction(memberCols.MemberUniqueName).literals() {
		m, err := s.cube.LookupMember(ctx, uname)
		if err != nil {
			return fmt.Errorf("failed to look up member %s: %w", uname, err)
		}
		if m == nil {
			return nil
		}

		if !p.rs.isRestricted(memberCols.TreeOp) {
			if err := p.output(ctx, s, m); err != nil {
				return err
			}
			continue
		}
		op := p.rs.intValue(memberCols.TreeOp)
		if op == -1 {
			return nil
		}
		for x, err := range Walk(ctx, m, TreeOp(op)) {
			if err != nil {
				return fmt.Errorf("failed to walk from %s: %w", uname, err)
			}
			if err := p.output(ctx, s, x); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *memberPopulation) byCube(ctx context.Context, s cubeScope) error {
	if !p.rs.isRestricted(memberCols.LevelUniqueName) {
		for _, dim := range Filter(s.cube.Dimensions(), p.dimCond) {
			for _, h := range Filter(dim.Hierarchies(), p.hierCond) {
				if err := p.byHierarchy(ctx, s, h); err != nil {
					return err
				}
			}
		}
		return nil
	}

	// A level unique name implies its dimension and hierarchy. More than one
	// value matches nothing.
	uname, ok := p.rs.stringValue(memberCols.LevelUniqueName)
	if !ok {
		return nil
	}
	if l := lookupLevel(s.cube, uname); l != nil {
		return p.levelMembers(ctx, s, l)
	}
	return nil
}

func (p *memberPopulation) byHierarchy(ctx context.Context, s cubeScope, h core.Hierarchy) error {
	levels := h.Levels()
	if !p.rs.isRestricted(memberCols.LevelNumber) {
		for _, l := range levels {
			if err := p.levelMembers(ctx, s, l); err != nil {
				return err
			}
		}
		return nil
	}

	n := p.rs.intValue(memberCols.LevelNumber)
	switch {
	case n < 0:
		p.rs.logger.Warn("invalid level number restriction", "hierarchy", h.UniqueName())
		return nil
	case n >= len(levels):
		p.rs.logger.Warn("level number exceeds hierarchy depth",
			"hierarchy", h.UniqueName(), "level_number", n, "levels", len(levels))
		return nil
	}
	return p.levelMembers(ctx, s, levels[n])
}

func (p *memberPopulation) levelMembers(ctx context.Context, s cubeScope, l core.Level) error {
	members, err := l.Members(ctx)
	if err != nil {
		return fmt.Errorf("failed to list members of %s: %w", l.UniqueName(), err)
	}
	for _, m := range members {
		if err := p.output(ctx, s, m); err != nil {
			return err
		}
	}
	return nil
}

// output appends the row for m unless a member predicate rejects it or it
// is hidden.
func (p *memberPopulation) output(ctx context.Context, s cubeScope, m core.Member) error {
	if !p.accept.Accept(m) {
		return nil
	}
	if !m.Visible() && !p.rs.settings.emitInvisible {
		return nil
	}

	children, err := m.Children(ctx)
	if err != nil {
		return fmt.Errorf("failed to list children of %s: %w", m.UniqueName(), err)
	}
	l := m.Level()
	h := l.Hierarchy()

	b := newRow(p.rs.def).
		set(memberCols.CatalogName, s.catalog.Name()).
		set(memberCols.SchemaName, s.schema.Name()).
		set(memberCols.CubeName, s.cube.Name()).
		set(memberCols.DimensionUniqueName, h.Dimension().UniqueName()).
		set(memberCols.HierarchyUniqueName, h.UniqueName()).
		set(memberCols.LevelUniqueName, l.UniqueName()).
		set(memberCols.LevelNumber, l.Depth()).
		set(memberCols.MemberOrdinal, m.Ordinal()).
		set(memberCols.MemberName, m.Name()).
		set(memberCols.MemberUniqueName, m.UniqueName()).
		set(memberCols.MemberType, int(m.Type())).
		set(memberCols.MemberCaption, m.Caption()).
		set(memberCols.ChildrenCardinality, len(children)).
		set(memberCols.ParentLevel, 0).
		set(memberCols.ParentCount, 0).
		set(memberCols.Depth, m.Depth())
	if parent := m.Parent(); parent != nil {
		b.set(memberCols.ParentLevel, parent.Depth()).
			set(memberCols.ParentUniqueName, parent.UniqueName()).
			set(memberCols.ParentCount, 1)
	}
	p.rows = append(p.rows, b.build())
	return nil
}

// lookupLevel finds a level of cube by unique name.
func lookupLevel(cube core.Cube, uname string) core.Level {
	for _, dim := range cube.Dimensions() {
		for _, h := range dim.Hierarchies() {
			for _, l := range h.Levels() {
				if l.UniqueName() == uname {
					return l
				}
			}
		}
	}
	return nil
}

func init() {
	register(mdschemaMembers, populateMembers)
}
