package rowset

import (
	"context"
	"strings"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

var measureCols = struct {
	CatalogName, SchemaName, CubeName, MeasureName, MeasureUniqueName, MeasureCaption,
	MeasureGUID, MeasureAggregator, DataType, MeasureIsVisible, LevelsList, Description,
	DefaultFormatString *Column
}{
	CatalogName:         col("CATALOG_NAME", TypeString, restrict, "The name of the catalog to which this measure belongs."),
	SchemaName:          col("SCHEMA_NAME", TypeString, restrict, "The name of the schema to which this measure belongs."),
	CubeName:            col("CUBE_NAME", TypeString, restrict|required, "The name of the cube to which this measure belongs."),
	MeasureName:         col("MEASURE_NAME", TypeString, restrict|required, "The name of the measure."),
	MeasureUniqueName:   col("MEASURE_UNIQUE_NAME", TypeString, restrict|required, "The Unique name of the measure."),
	MeasureCaption:      col("MEASURE_CAPTION", TypeString, required, "A label or caption associated with the measure."),
	MeasureGUID:         col("MEASURE_GUID", TypeUUID, 0, "Measure GUID."),
	MeasureAggregator:   col("MEASURE_AGGREGATOR", TypeInteger, required, "How a measure was derived."),
	DataType:            col("DATA_TYPE", TypeUnsignedShort, required, "Data type of the measure."),
	MeasureIsVisible:    col("MEASURE_IS_VISIBLE", TypeBoolean, required, "A Boolean that always returns True. If the measure is not visible, it will not be included in the schema rowset."),
	LevelsList:          col("LEVELS_LIST", TypeString, 0, "A string that always returns NULL. EXCEPT that SQL Server returns non-null values!!!"),
	Description:         col("DESCRIPTION", TypeString, 0, "A human-readable description of the measure."),
	DefaultFormatString: col("DEFAULT_FORMAT_STRING", TypeString, 0, "The default format string for the measure."),
}

var mdschemaMeasures = &Definition{
	Name:        "MDSCHEMA_MEASURES",
	Description: "Returns information about the available measures.",
	Columns: []*Column{
		measureCols.CatalogName, measureCols.SchemaName, measureCols.CubeName, measureCols.MeasureName,
		measureCols.MeasureUniqueName, measureCols.MeasureCaption, measureCols.MeasureGUID,
		measureCols.MeasureAggregator, measureCols.DataType, measureCols.MeasureIsVisible,
		measureCols.LevelsList, measureCols.Description, measureCols.DefaultFormatString,
	},
	SortColumns: []*Column{
		measureCols.CatalogName, measureCols.SchemaName, measureCols.CubeName, measureCols.MeasureName,
	},
}

// defaultDataType is the OLE DB code of a wide string.
const defaultDataType = 130

func populateMeasures(ctx context.Context, rs *Rowset) ([]Row, error) {
	measureCond := And(
		condition(rs, measureCols.MeasureName.Name, elementName[core.Measure]),
		condition(rs, measureCols.MeasureUniqueName.Name, elementUniqueName[core.Measure]),
	)

	var rows []Row
	err := rs.eachCube(ctx, func(s cubeScope) error {
		levels := levelsList(s.cube)

		var calculated []core.Measure
		for _, m := range Filter(s.cube.Measures(), measureCond) {
			if m.Calculated() {
				calculated = append(calculated, m)
				continue
			}
			if row, ok := measureRow(rs, s, m, levels); ok {
				rows = append(rows, row)
			}
		}
		for _, m := range calculated {
			if row, ok := measureRow(rs, s, m, ""); ok {
				rows = append(rows, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// levelsList joins the leaf level names of every non-measure hierarchy.
func levelsList(cube core.Cube) string {
	var names []string
	for _, dim := range cube.Dimensions() {
		if dim.Type() == core.DimensionMeasure {
			continue
		}
		for _, h := range dim.Hierarchies() {
			if strings.HasSuffix(h.Name(), parentSuffix) {
				continue
			}
			if levels := h.Levels(); len(levels) > 0 {
				names = append(names, levels[len(levels)-1].UniqueName())
			}
		}
	}
	return strings.Join(names, ",")
}

func measureRow(rs *Rowset, s cubeScope, m core.Measure, levels string) (Row, bool) {
	if !m.Visible() && !rs.settings.emitInvisible {
		return Row{}, false
	}

	aggregator := aggregatorUnknown
	if m.Calculated() {
		aggregator = aggregatorCalculated
	} else if code, ok := aggregatorCodes[m.Aggregator()]; ok {
		aggregator = code
	}
	dataType, ok := dataTypeCodes[m.DataType()]
	if !ok {
		dataType = defaultDataType
	}

	b := newRow(rs.def).
		set(measureCols.CatalogName, s.catalog.Name()).
		set(measureCols.SchemaName, s.schema.Name()).
		set(measureCols.CubeName, s.cube.Name()).
		set(measureCols.MeasureName, m.Name()).
		set(measureCols.MeasureUniqueName, m.UniqueName()).
		set(measureCols.MeasureCaption, m.Caption()).
		set(measureCols.MeasureAggregator, aggregator).
		set(measureCols.DataType, dataType).
		set(measureCols.MeasureIsVisible, m.Visible()).
		set(measureCols.Description, describe(m, s.cube.Name()+" Cube - "+m.Name()+" Member"))
	if levels != "" {
		b.set(measureCols.LevelsList, levels)
	}
	if f := m.FormatString(); f != "" {
		b.set(measureCols.DefaultFormatString, f)
	}
	return b.build(), true
}

var setCols = struct {
	CatalogName, SchemaName, CubeName, SetName, Scope, Description, SetCaption *Column
}{
	CatalogName: col("CATALOG_NAME", TypeString, restrict, "The name of the catalog to which this set belongs."),
	SchemaName:  col("SCHEMA_NAME", TypeString, restrict, "The name of the schema to which this set belongs."),
	CubeName:    col("CUBE_NAME", TypeString, restrict|required, "The name of the cube to which this set belongs."),
	SetName:     col("SET_NAME", TypeString, restrict|required, "The name of the set, as specified in the CREATE SET statement."),
	Scope:       col("SCOPE", TypeInteger, restrict|required, "The scope of the set. The set can be a session-defined set or a global set."),
	Description: col("DESCRIPTION", TypeString, 0, "A human-readable description of the measure."),
	SetCaption:  col("SET_CAPTION", TypeString, 0, "A caption associated with the set."),
}

var mdschemaSets = &Definition{
	Name:        "MDSCHEMA_SETS",
	Description: "This schema rowset describes any sets that are currently defined in a database, including session-scoped sets.",
	Columns: []*Column{
		setCols.CatalogName, setCols.SchemaName, setCols.CubeName, setCols.SetName,
		setCols.Scope, setCols.Description, setCols.SetCaption,
	},
	SortColumns: []*Column{setCols.CatalogName, setCols.SchemaName, setCols.CubeName},
}

// globalScope is the SCOPE code of sets defined by the schema.
const globalScope = 1

func populateSets(ctx context.Context, rs *Rowset) ([]Row, error) {
	setCond := And(
		condition(rs, setCols.SetName.Name, func(s core.NamedSet) (string, bool) { return s.Name(), true }),
		condition(rs, setCols.Scope.Name, func(core.NamedSet) (string, bool) { return "1", true }),
	)

	var rows []Row
	err := rs.eachCube(ctx, func(s cubeScope) error {
		for _, set := range Filter(s.cube.Sets(), setCond) {
			b := newRow(rs.def).
				set(setCols.CatalogName, s.catalog.Name()).
				set(setCols.SchemaName, s.schema.Name()).
				set(setCols.CubeName, s.cube.Name()).
				set(setCols.SetName, set.Name()).
				set(setCols.Scope, globalScope).
				set(setCols.Description, set.Description())
			if c := set.Caption(); c != "" {
				b.set(setCols.SetCaption, c)
			}
			rows = append(rows, b.build())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func init() {
	register(mdschemaMeasures, populateMeasures)
	register(mdschemaSets, populateSets)
}
