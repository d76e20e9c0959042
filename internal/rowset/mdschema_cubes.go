package rowset

import (
	"context"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

var cubeCols = struct {
	CatalogName, SchemaName, CubeName, CubeType, CubeGUID, CreatedOn, LastSchemaUpdate,
	SchemaUpdatedBy, LastDataUpdate, DataUpdatedBy, IsDrillthroughEnabled, IsWriteEnabled,
	IsLinkable, IsSQLEnabled, Description, CubeCaption, BaseCubeName, Dimensions, Sets, Measures *Column
}{
	CatalogName:           col("CATALOG_NAME", TypeString, restrict, "The name of the catalog to which this cube belongs."),
	SchemaName:            col("SCHEMA_NAME", TypeString, restrict, "The name of the schema to which this cube belongs."),
	CubeName:              col("CUBE_NAME", TypeString, restrict|required, "Name of the cube."),
	CubeType:              col("CUBE_TYPE", TypeString, restrict|required, "Cube type."),
	CubeGUID:              col("CUBE_GUID", TypeUUID, 0, "Cube type."),
	CreatedOn:             col("CREATED_ON", TypeDateTime, 0, "Date and time of cube creation."),
	LastSchemaUpdate:      col("LAST_SCHEMA_UPDATE", TypeDateTime, 0, "Date and time of last schema update."),
	SchemaUpdatedBy:       col("SCHEMA_UPDATED_BY", TypeString, 0, "User ID of the person who last updated the schema."),
	LastDataUpdate:        col("LAST_DATA_UPDATE", TypeDateTime, 0, "Date and time of last data update."),
	DataUpdatedBy:         col("DATA_UPDATED_BY", TypeString, 0, "User ID of the person who last updated the data."),
	IsDrillthroughEnabled: col("IS_DRILLTHROUGH_ENABLED", TypeBoolean, required, "Describes whether DRILLTHROUGH can be performed on the members of a cube"),
	IsWriteEnabled:        col("IS_WRITE_ENABLED", TypeBoolean, required, "Describes whether a cube is write-enabled"),
	IsLinkable:            col("IS_LINKABLE", TypeBoolean, required, "Describes whether a cube can be used in a linked cube"),
	IsSQLEnabled:          col("IS_SQL_ENABLED", TypeBoolean, required, "Describes whether or not SQL can be used on the cube"),
	Description:           col("DESCRIPTION", TypeString, 0, "A user-friendly description of the dimension."),
	CubeCaption:           col("CUBE_CAPTION", TypeString, 0, "The caption of the cube."),
	BaseCubeName:          col("BASE_CUBE_NAME", TypeString, restrict, "The name of the source cube if this cube is a perspective cube."),
	Dimensions:            col("DIMENSIONS", TypeRowset, 0, "Dimensions in this cube."),
	Sets:                  col("SETS", TypeRowset, 0, "Sets in this cube."),
	Measures:              col("MEASURES", TypeRowset, 0, "Measures in this cube."),
}

var mdschemaCubes = &Definition{
	Name:        "MDSCHEMA_CUBES",
	Description: "Describes the structure of cubes.",
	Columns: []*Column{
		cubeCols.CatalogName, cubeCols.SchemaName, cubeCols.CubeName, cubeCols.CubeType,
		cubeCols.CubeGUID, cubeCols.CreatedOn, cubeCols.LastSchemaUpdate, cubeCols.SchemaUpdatedBy,
		cubeCols.LastDataUpdate, cubeCols.DataUpdatedBy, cubeCols.IsDrillthroughEnabled,
		cubeCols.IsWriteEnabled, cubeCols.IsLinkable, cubeCols.IsSQLEnabled, cubeCols.Description,
		cubeCols.CubeCaption, cubeCols.BaseCubeName, cubeCols.Dimensions, cubeCols.Sets, cubeCols.Measures,
	},
	SortColumns: []*Column{cubeCols.CatalogName, cubeCols.SchemaName, cubeCols.CubeName},
}

func populateCubes(ctx context.Context, rs *Rowset) ([]Row, error) {
	typeCond := condition(rs, cubeCols.CubeType.Name, func(c core.Cube) (string, bool) {
		return rs.extra.CubeType(c), true
	})
	baseCond := condition(rs, cubeCols.BaseCubeName.Name, func(core.Cube) (string, bool) { return "", false })

	var rows []Row
	err := rs.eachCube(ctx, func(s cubeScope) error {
		if !typeCond.Accept(s.cube) || !baseCond.Accept(s.cube) {
			return nil
		}
		loaded := rs.extra.SchemaLoadDate(s.schema)
		b := newRow(rs.def).
			set(cubeCols.CatalogName, s.catalog.Name()).
			set(cubeCols.SchemaName, s.schema.Name()).
			set(cubeCols.CubeName, s.cube.Name()).
			set(cubeCols.CubeType, rs.extra.CubeType(s.cube)).
			set(cubeCols.IsDrillthroughEnabled, true).
			set(cubeCols.IsWriteEnabled, false).
			set(cubeCols.IsLinkable, false).
			set(cubeCols.IsSQLEnabled, false).
			set(cubeCols.CubeCaption, s.cube.Caption()).
			set(cubeCols.Description, describe(s.cube, s.catalog.Name()+" Schema - "+s.cube.Name()+" Cube"))
		if !loaded.IsZero() {
			b.set(cubeCols.CreatedOn, loaded).set(cubeCols.LastSchemaUpdate, loaded)
		}
		if rs.settings.deep {
			scope := s.restrictions()
			b.set(cubeCols.Dimensions, Nested{Def: mdschemaDimensions, Restrictions: scope}).
				set(cubeCols.Sets, Nested{Def: mdschemaSets, Restrictions: scope}).
				set(cubeCols.Measures, Nested{Def: mdschemaMeasures, Restrictions: scope})
		}
		rows = append(rows, b.build())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// restrictions pins a nested rowset to the cube in scope.
func (s cubeScope) restrictions() map[string]Restriction {
	return map[string]Restriction{
		"CATALOG_NAME": Values(s.catalog.Name()),
		"SCHEMA_NAME":  Values(s.schema.Name()),
		"CUBE_NAME":    Values(s.cube.Name()),
	}
}

// describe returns the element's own description, or fallback when it has none.
func describe(e interface{ Description() string }, fallback string) string {
	if d := e.Description(); d != "" {
		return d
	}
	return fallback
}

func init() {
	register(mdschemaCubes, populateCubes)
}
