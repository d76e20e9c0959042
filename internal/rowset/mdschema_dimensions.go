package rowset

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

var dimensionCols = struct {
	CatalogName, SchemaName, CubeName, DimensionName, DimensionUniqueName, DimensionGUID,
	DimensionCaption, DimensionOrdinal, DimensionType, DimensionCardinality, DefaultHierarchy,
	Description, IsVirtual, IsReadWrite, DimensionUniqueSettings, DimensionMasterUniqueName,
	DimensionIsVisible, Hierarchies *Column
}{
	CatalogName:               col("CATALOG_NAME", TypeString, restrict, "The name of the database."),
	SchemaName:                col("SCHEMA_NAME", TypeString, restrict, "Not supported."),
	CubeName:                  col("CUBE_NAME", TypeString, restrict|required, "The name of the cube."),
	DimensionName:             col("DIMENSION_NAME", TypeString, restrict|required, "The name of the dimension."),
	DimensionUniqueName:       col("DIMENSION_UNIQUE_NAME", TypeString, restrict|required, "The unique name of the dimension."),
	DimensionGUID:             col("DIMENSION_GUID", TypeUUID, 0, "Not supported."),
	DimensionCaption:          col("DIMENSION_CAPTION", TypeString, required, "The caption of the dimension."),
	DimensionOrdinal:          col("DIMENSION_ORDINAL", TypeUnsignedInteger, required, "The position of the dimension within the cube."),
	DimensionType:             col("DIMENSION_TYPE", TypeShort, required, "The type of the dimension."),
	DimensionCardinality:      col("DIMENSION_CARDINALITY", TypeUnsignedInteger, required, "The number of members in the key attribute."),
	DefaultHierarchy:          col("DEFAULT_HIERARCHY", TypeString, required, "A hierarchy from the dimension. Preserved for backwards compatibility."),
	Description:               col("DESCRIPTION", TypeString, 0, "A user-friendly description of the dimension."),
	IsVirtual:                 col("IS_VIRTUAL", TypeBoolean, 0, "Always FALSE."),
	IsReadWrite:               col("IS_READWRITE", TypeBoolean, 0, "A Boolean that indicates whether the dimension is write-enabled."),
	DimensionUniqueSettings:   col("DIMENSION_UNIQUE_SETTINGS", TypeInteger, 0, "A bitmap that specifies which columns contain unique values if the dimension contains only members with unique names."),
	DimensionMasterUniqueName: col("DIMENSION_MASTER_UNIQUE_NAME", TypeString, 0, "Always NULL."),
	DimensionIsVisible:        col("DIMENSION_IS_VISIBLE", TypeBoolean, 0, "Always TRUE."),
	Hierarchies:               col("HIERARCHIES", TypeRowset, 0, "Hierarchies in this dimension."),
}

var mdschemaDimensions = &Definition{
	Name:        "MDSCHEMA_DIMENSIONS",
	Description: "Describes the dimensions within a database.",
	Columns: []*Column{
		dimensionCols.CatalogName, dimensionCols.SchemaName, dimensionCols.CubeName,
		dimensionCols.DimensionName, dimensionCols.DimensionUniqueName, dimensionCols.DimensionGUID,
		dimensionCols.DimensionCaption, dimensionCols.DimensionOrdinal, dimensionCols.DimensionType,
		dimensionCols.DimensionCardinality, dimensionCols.DefaultHierarchy, dimensionCols.Description,
		dimensionCols.IsVirtual, dimensionCols.IsReadWrite, dimensionCols.DimensionUniqueSettings,
		dimensionCols.DimensionMasterUniqueName, dimensionCols.DimensionIsVisible, dimensionCols.Hierarchies,
	},
	SortColumns: []*Column{
		dimensionCols.CatalogName, dimensionCols.SchemaName, dimensionCols.CubeName, dimensionCols.DimensionName,
	},
}

func populateDimensions(ctx context.Context, rs *Rowset) ([]Row, error) {
	dimCond := And(
		condition(rs, dimensionCols.DimensionName.Name, elementName[core.Dimension]),
		condition(rs, dimensionCols.DimensionUniqueName.Name, elementUniqueName[core.Dimension]),
	)

	var rows []Row
	err := rs.eachCube(ctx, func(s cubeScope) error {
		for i, dim := range s.cube.Dimensions() {
			if !dimCond.Accept(dim) {
				continue
			}
			row, err := dimensionRow(ctx, rs, s, dim, i)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func dimensionRow(ctx context.Context, rs *Rowset, s cubeScope, dim core.Dimension, ordinal int) (Row, error) {
	// Cardinality counts the leaf level of the first hierarchy plus its all member.
	cardinality := 0
	if hiers := dim.Hierarchies(); len(hiers) > 0 {
		if levels := hiers[0].Levels(); len(levels) > 0 {
			n, err := rs.extra.LevelCardinality(ctx, levels[len(levels)-1])
			if err != nil {
				return Row{}, fmt.Errorf("failed to count members of %s: %w", levels[len(levels)-1].UniqueName(), err)
			}
			cardinality = n + 1
		}
	}

	b := newRow(rs.def).
		set(dimensionCols.CatalogName, s.catalog.Name()).
		set(dimensionCols.SchemaName, s.schema.Name()).
		set(dimensionCols.CubeName, s.cube.Name()).
		set(dimensionCols.DimensionName, dim.Name()).
		set(dimensionCols.DimensionUniqueName, dim.UniqueName()).
		set(dimensionCols.DimensionCaption, dim.Caption()).
		set(dimensionCols.DimensionOrdinal, ordinal).
		set(dimensionCols.DimensionType, dimensionTypeCodes[dim.Type()]).
		set(dimensionCols.DimensionCardinality, cardinality).
		set(dimensionCols.DefaultHierarchy, dim.UniqueName()).
		set(dimensionCols.Description, describe(dim, s.cube.Name()+" Cube - "+dim.Name()+" Dimension")).
		set(dimensionCols.IsVirtual, false).
		set(dimensionCols.IsReadWrite, false).
		set(dimensionCols.DimensionUniqueSettings, 0).
		set(dimensionCols.DimensionIsVisible, dim.Visible())
	if rs.settings.deep {
		scope := s.restrictions()
		scope[hierarchyCols.DimensionUniqueName.Name] = Values(dim.UniqueName())
		b.set(dimensionCols.Hierarchies, Nested{Def: mdschemaHierarchies, Restrictions: scope})
	}
	return b.build(), nil
}

var hierarchyCols = struct {
	CatalogName, SchemaName, CubeName, DimensionUniqueName, HierarchyName, HierarchyUniqueName,
	HierarchyGUID, HierarchyCaption, DimensionType, HierarchyCardinality, DefaultMember, AllMember,
	Description, Structure, IsVirtual, IsReadWrite, DimensionUniqueSettings, DimensionIsVisible,
	HierarchyIsVisible, HierarchyOrdinal, DimensionIsShared, ParentChild, Levels *Column
}{
	CatalogName:             col("CATALOG_NAME", TypeString, restrict, "The name of the catalog to which this hierarchy belongs."),
	SchemaName:              col("SCHEMA_NAME", TypeString, restrict, "Not supported"),
	CubeName:                col("CUBE_NAME", TypeString, restrict|required, "The name of the cube to which this hierarchy belongs."),
	DimensionUniqueName:     col("DIMENSION_UNIQUE_NAME", TypeString, restrict|required, "The unique name of the dimension to which this hierarchy belongs."),
	HierarchyName:           col("HIERARCHY_NAME", TypeString, restrict|required, "The name of the hierarchy. Blank if there is only a single hierarchy in the dimension."),
	HierarchyUniqueName:     col("HIERARCHY_UNIQUE_NAME", TypeString, restrict|required, "The unique name of the hierarchy."),
	HierarchyGUID:           col("HIERARCHY_GUID", TypeUUID, 0, "Hierarchy GUID."),
	HierarchyCaption:        col("HIERARCHY_CAPTION", TypeString, required, "A label or a caption associated with the hierarchy."),
	DimensionType:           col("DIMENSION_TYPE", TypeShort, required, "The type of the dimension."),
	HierarchyCardinality:    col("HIERARCHY_CARDINALITY", TypeUnsignedInteger, required, "The number of members in the hierarchy."),
	DefaultMember:           col("DEFAULT_MEMBER", TypeString, 0, "The default member for this hierarchy."),
	AllMember:               col("ALL_MEMBER", TypeString, 0, "The member at the highest level of rollup in the hierarchy."),
	Description:             col("DESCRIPTION", TypeString, 0, "A human-readable description of the hierarchy. NULL if no description exists."),
	Structure:               col("STRUCTURE", TypeShort, required, "The structure of the hierarchy."),
	IsVirtual:               col("IS_VIRTUAL", TypeBoolean, required, "Always returns False."),
	IsReadWrite:             col("IS_READWRITE", TypeBoolean, required, "A Boolean that indicates whether the Write Back to dimension column is set."),
	DimensionUniqueSettings: col("DIMENSION_UNIQUE_SETTINGS", TypeInteger, required, "Always returns MDDIMENSIONS_MEMBER_KEY_UNIQUE (1)."),
	DimensionIsVisible:      col("DIMENSION_IS_VISIBLE", TypeBoolean, required, "A Boolean that indicates whether the parent dimension is visible."),
	HierarchyIsVisible:      col("HIERARCHY_IS_VISIBLE", TypeBoolean, required, "A Boolean that indicates whether the hierarchy is visible."),
	HierarchyOrdinal:        col("HIERARCHY_ORDINAL", TypeUnsignedInteger, required, "The ordinal number of the hierarchy across all hierarchies of the cube."),
	DimensionIsShared:       col("DIMENSION_IS_SHARED", TypeBoolean, required, "Always returns true."),
	ParentChild:             col("PARENT_CHILD", TypeBoolean, 0, "Is hierarchy a parent."),
	Levels:                  col("LEVELS", TypeRowset, 0, "Levels in this hierarchy."),
}

var mdschemaHierarchies = &Definition{
	Name:        "MDSCHEMA_HIERARCHIES",
	Description: "Describes each hierarchy within a particular dimension.",
	Columns: []*Column{
		hierarchyCols.CatalogName, hierarchyCols.SchemaName, hierarchyCols.CubeName,
		hierarchyCols.DimensionUniqueName, hierarchyCols.HierarchyName, hierarchyCols.HierarchyUniqueName,
		hierarchyCols.HierarchyGUID, hierarchyCols.HierarchyCaption, hierarchyCols.DimensionType,
		hierarchyCols.HierarchyCardinality, hierarchyCols.DefaultMember, hierarchyCols.AllMember,
		hierarchyCols.Description, hierarchyCols.Structure, hierarchyCols.IsVirtual, hierarchyCols.IsReadWrite,
		hierarchyCols.DimensionUniqueSettings, hierarchyCols.DimensionIsVisible, hierarchyCols.HierarchyIsVisible,
		hierarchyCols.HierarchyOrdinal, hierarchyCols.DimensionIsShared, hierarchyCols.ParentChild,
		hierarchyCols.Levels,
	},
	SortColumns: []*Column{
		hierarchyCols.CatalogName, hierarchyCols.SchemaName, hierarchyCols.CubeName,
		hierarchyCols.DimensionUniqueName, hierarchyCols.HierarchyName,
	},
}

// parentSuffix marks the hidden companion hierarchy of a parent-child hierarchy.
const parentSuffix = "$Parent"

func populateHierarchies(ctx context.Context, rs *Rowset) ([]Row, error) {
	dimCond := condition(rs, hierarchyCols.DimensionUniqueName.Name, elementUniqueName[core.Dimension])
	hierCond := And(
		condition(rs, hierarchyCols.HierarchyName.Name, elementName[core.Hierarchy]),
		condition(rs, hierarchyCols.HierarchyUniqueName.Name, elementUniqueName[core.Hierarchy]),
	)

	var rows []Row
	err := rs.eachCube(ctx, func(s cubeScope) error {
		// Ordinals count every hierarchy of the cube, including those
		// filtered out.
		ordinal := 0
		for _, dim := range s.cube.Dimensions() {
			hiers := dim.Hierarchies()
			if dimCond.Accept(dim) {
				for j, h := range hiers {
					if strings.HasSuffix(h.Name(), parentSuffix) || !hierCond.Accept(h) {
						continue
					}
					row, err := hierarchyRow(ctx, rs, s, h, ordinal+j)
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
			}
			ordinal += len(hiers)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func hierarchyRow(ctx context.Context, rs *Rowset, s cubeScope, h core.Hierarchy, ordinal int) (Row, error) {
	dim := h.Dimension()
	cardinality, err := rs.extra.HierarchyCardinality(ctx, h)
	if err != nil {
		return Row{}, fmt.Errorf("failed to count members of %s: %w", h.UniqueName(), err)
	}

	b := newRow(rs.def).
		set(hierarchyCols.CatalogName, s.catalog.Name()).
		set(hierarchyCols.SchemaName, s.schema.Name()).
		set(hierarchyCols.CubeName, s.cube.Name()).
		set(hierarchyCols.DimensionUniqueName, dim.UniqueName()).
		set(hierarchyCols.HierarchyName, h.Name()).
		set(hierarchyCols.HierarchyUniqueName, h.UniqueName()).
		set(hierarchyCols.HierarchyCaption, h.Caption()).
		set(hierarchyCols.DimensionType, dimensionTypeCodes[dim.Type()]).
		set(hierarchyCols.HierarchyCardinality, cardinality).
		set(hierarchyCols.Description, describe(h, s.cube.Name()+" Cube - "+h.Name()+" Hierarchy")).
		set(hierarchyCols.Structure, int(rs.extra.HierarchyStructure(h))).
		set(hierarchyCols.IsVirtual, false).
		set(hierarchyCols.IsReadWrite, false).
		set(hierarchyCols.DimensionUniqueSettings, 0).
		set(hierarchyCols.DimensionIsVisible, dim.Visible()).
		set(hierarchyCols.HierarchyIsVisible, h.Visible()).
		set(hierarchyCols.HierarchyOrdinal, ordinal).
		set(hierarchyCols.DimensionIsShared, true).
		set(hierarchyCols.ParentChild, rs.extra.IsHierarchyParentChild(h))

	def, err := h.DefaultMember(ctx)
	if err != nil {
		return Row{}, fmt.Errorf("failed to resolve default member of %s: %w", h.UniqueName(), err)
	}
	if def != nil {
		b.set(hierarchyCols.DefaultMember, def.UniqueName())
	}
	if h.HasAll() {
		roots, err := h.RootMembers(ctx)
		if err != nil {
			return Row{}, fmt.Errorf("failed to list root members of %s: %w", h.UniqueName(), err)
		}
		if len(roots) > 0 {
			b.set(hierarchyCols.AllMember, roots[0].UniqueName())
		}
	}
	if rs.settings.deep {
		scope := s.restrictions()
		scope[levelCols.DimensionUniqueName.Name] = Values(dim.UniqueName())
		scope[levelCols.HierarchyUniqueName.Name] = Values(h.UniqueName())
		b.set(hierarchyCols.Levels, Nested{Def: mdschemaLevels, Restrictions: scope})
	}
	return b.build(), nil
}

var levelCols = struct {
	CatalogName, SchemaName, CubeName, DimensionUniqueName, HierarchyUniqueName, LevelName,
	LevelUniqueName, LevelGUID, LevelCaption, LevelNumber, LevelCardinality, LevelType,
	CustomRollupSettings, LevelUniqueSettings, LevelIsVisible, Description *Column
}{
	CatalogName:          col("CATALOG_NAME", TypeString, restrict, "The name of the catalog to which this level belongs."),
	SchemaName:           col("SCHEMA_NAME", TypeString, restrict, "The name of the schema to which this level belongs."),
	CubeName:             col("CUBE_NAME", TypeString, restrict|required, "The name of the cube to which this level belongs."),
	DimensionUniqueName:  col("DIMENSION_UNIQUE_NAME", TypeString, restrict|required, "The unique name of the dimension to which this level belongs."),
	HierarchyUniqueName:  col("HIERARCHY_UNIQUE_NAME", TypeString, restrict|required, "The unique name of the hierarchy."),
	LevelName:            col("LEVEL_NAME", TypeString, restrict|required, "The name of the level."),
	LevelUniqueName:      col("LEVEL_UNIQUE_NAME", TypeString, restrict|required, "The properly escaped unique name of the level."),
	LevelGUID:            col("LEVEL_GUID", TypeUUID, 0, "Level GUID."),
	LevelCaption:         col("LEVEL_CAPTION", TypeString, required, "A label or caption associated with the hierarchy."),
	LevelNumber:          col("LEVEL_NUMBER", TypeUnsignedInteger, required, "The distance of the level from the root of the hierarchy. Root level is zero (0)."),
	LevelCardinality:     col("LEVEL_CARDINALITY", TypeUnsignedInteger, required, "The number of members in the level. This value can be an approximation of the real cardinality."),
	LevelType:            col("LEVEL_TYPE", TypeInteger, required, "Type of the level"),
	CustomRollupSettings: col("CUSTOM_ROLLUP_SETTINGS", TypeInteger, required, "A bitmap that specifies the custom rollup options."),
	LevelUniqueSettings:  col("LEVEL_UNIQUE_SETTINGS", TypeInteger, required, "A bitmap that specifies which columns contain unique values, if the level only has members with unique names or keys."),
	LevelIsVisible:       col("LEVEL_IS_VISIBLE", TypeBoolean, required, "A Boolean that indicates whether the level is visible."),
	Description:          col("DESCRIPTION", TypeString, 0, "A human-readable description of the level. NULL if no description exists."),
}

var mdschemaLevels = &Definition{
	Name:        "MDSCHEMA_LEVELS",
	Description: "Returns rowset containing information about the levels available in a dimension.",
	Columns: []*Column{
		levelCols.CatalogName, levelCols.SchemaName, levelCols.CubeName, levelCols.DimensionUniqueName,
		levelCols.HierarchyUniqueName, levelCols.LevelName, levelCols.LevelUniqueName, levelCols.LevelGUID,
		levelCols.LevelCaption, levelCols.LevelNumber, levelCols.LevelCardinality, levelCols.LevelType,
		levelCols.CustomRollupSettings, levelCols.LevelUniqueSettings, levelCols.LevelIsVisible,
		levelCols.Description,
	},
	SortColumns: []*Column{
		levelCols.CatalogName, levelCols.SchemaName, levelCols.CubeName, levelCols.DimensionUniqueName,
		levelCols.HierarchyUniqueName, levelCols.LevelNumber,
	},
}

func populateLevels(ctx context.Context, rs *Rowset) ([]Row, error) {
	dimCond := condition(rs, levelCols.DimensionUniqueName.Name, elementUniqueName[core.Dimension])
	hierCond := condition(rs, levelCols.HierarchyUniqueName.Name, elementUniqueName[core.Hierarchy])
	levelCond := And(
		condition(rs, levelCols.LevelName.Name, elementName[core.Level]),
		condition(rs, levelCols.LevelUniqueName.Name, elementUniqueName[core.Level]),
	)

	var rows []Row
	err := rs.eachCube(ctx, func(s cubeScope) error {
		for _, dim := range Filter(s.cube.Dimensions(), dimCond) {
			for _, h := range Filter(dim.Hierarchies(), hierCond) {
				for _, l := range Filter(h.Levels(), levelCond) {
					row, err := levelRow(ctx, rs, s, l)
					if err != nil {
						return err
					}
					rows = append(rows, row)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func levelRow(ctx context.Context, rs *Rowset, s cubeScope, l core.Level) (Row, error) {
	h := l.Hierarchy()
	cardinality, err := rs.extra.LevelCardinality(ctx, l)
	if err != nil {
		return Row{}, fmt.Errorf("failed to count members of %s: %w", l.UniqueName(), err)
	}

	uniqueSettings := 0
	if l.Type() == core.LevelAll {
		uniqueSettings |= 2
	}
	if rs.extra.IsLevelUnique(l) {
		uniqueSettings |= 1
	}

	return newRow(rs.def).
		set(levelCols.CatalogName, s.catalog.Name()).
		set(levelCols.SchemaName, s.schema.Name()).
		set(levelCols.CubeName, s.cube.Name()).
		set(levelCols.DimensionUniqueName, h.Dimension().UniqueName()).
		set(levelCols.HierarchyUniqueName, h.UniqueName()).
		set(levelCols.LevelName, l.Name()).
		set(levelCols.LevelUniqueName, l.UniqueName()).
		set(levelCols.LevelCaption, l.Caption()).
		set(levelCols.LevelNumber, l.Depth()).
		set(levelCols.LevelCardinality, cardinality).
		set(levelCols.LevelType, int(l.Type())).
		set(levelCols.CustomRollupSettings, 0).
		set(levelCols.LevelUniqueSettings, uniqueSettings).
		set(levelCols.LevelIsVisible, l.Visible()).
		set(levelCols.Description, describe(l, s.cube.Name()+" Cube - "+h.Name()+" Hierarchy - "+l.Name()+" Level")).
		build(), nil
}

func init() {
	register(mdschemaDimensions, populateDimensions)
	register(mdschemaHierarchies, populateHierarchies)
	register(mdschemaLevels, populateLevels)
}
