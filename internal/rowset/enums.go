package rowset

import "github.com/leapstack-labs/leapxmla/pkg/core"

// enumElement is one named value of an enumeration.
type enumElement struct {
	name        string
	description string
	value       string
}

// enumeration is reported by DISCOVER_ENUMERATORS.
type enumeration struct {
	name        string
	description string
	typ         string
	elements    []enumElement
}

var dimensionTypeCodes = map[core.DimensionType]int{
	core.DimensionTime:    1,
	core.DimensionMeasure: 2,
	core.DimensionOther:   3,
}

var aggregatorCodes = map[core.Aggregator]int{
	core.AggregatorSum:           1,
	core.AggregatorCount:         2,
	core.AggregatorMin:           3,
	core.AggregatorMax:           4,
	core.AggregatorAvg:           5,
	core.AggregatorVar:           6,
	core.AggregatorStd:           7,
	core.AggregatorDistinctCount: 8,
}

const (
	aggregatorUnknown    = 0
	aggregatorCalculated = 127
)

// dataTypeCodes maps measure data types to OLE DB type codes.
var dataTypeCodes = map[string]int{
	"Integer": 3,
	"Numeric": 5,
	"String":  130,
	"Boolean": 11,
}

var enumerations = []enumeration{
	{
		name: "AuthenticationMode", description: "Specification of what type of security mode the data source uses.", typ: "EnumString",
		elements: []enumElement{
			{name: "Unauthenticated", description: "no user ID or password needs to be sent"},
			{name: "Authenticated", description: "User ID and Password must be included in the information required for the connection."},
			{name: "Integrated", description: "the data source uses the underlying security to determine authorization"},
		},
	},
	{
		name: "Content", description: "Specifies what type of data is returned by the result set.", typ: "EnumString",
		elements: []enumElement{
			{name: "None", description: "Allows the structure of the command to be verified, but not executed."},
			{name: "Schema", description: "Contains the XML schema which indicates column information."},
			{name: "Data", description: "Contains the actual data requested."},
			{name: "SchemaData", description: "Contains both the schema and the actual data."},
		},
	},
	{
		name: "DIMENSION_TYPE", description: "The type of a dimension.", typ: "int",
		elements: []enumElement{
			{name: "MD_DIMTYPE_UNKNOWN", value: "0"},
			{name: "MD_DIMTYPE_TIME", value: "1"},
			{name: "MD_DIMTYPE_MEASURE", value: "2"},
			{name: "MD_DIMTYPE_OTHER", value: "3"},
		},
	},
	{
		name: "LEVEL_TYPE", description: "The type of a level.", typ: "int",
		elements: []enumElement{
			{name: "MDLEVEL_TYPE_REGULAR", value: "0"},
			{name: "MDLEVEL_TYPE_ALL", value: "1"},
			{name: "MDLEVEL_TYPE_CALCULATED", value: "2"},
			{name: "MDLEVEL_TYPE_TIME", value: "4"},
			{name: "MDLEVEL_TYPE_TIME_YEARS", value: "20"},
			{name: "MDLEVEL_TYPE_TIME_HALF_YEAR", value: "36"},
			{name: "MDLEVEL_TYPE_TIME_QUARTERS", value: "68"},
			{name: "MDLEVEL_TYPE_TIME_MONTHS", value: "132"},
			{name: "MDLEVEL_TYPE_TIME_WEEKS", value: "260"},
			{name: "MDLEVEL_TYPE_TIME_DAYS", value: "516"},
			{name: "MDLEVEL_TYPE_TIME_HOURS", value: "772"},
			{name: "MDLEVEL_TYPE_TIME_MINUTES", value: "1028"},
			{name: "MDLEVEL_TYPE_TIME_SECONDS", value: "2052"},
		},
	},
	{
		name: "MEASURE_AGGREGATOR", description: "How a measure was derived.", typ: "int",
		elements: []enumElement{
			{name: "MDMEASURE_AGGR_UNKNOWN", value: "0"},
			{name: "MDMEASURE_AGGR_SUM", value: "1"},
			{name: "MDMEASURE_AGGR_COUNT", value: "2"},
			{name: "MDMEASURE_AGGR_MIN", value: "3"},
			{name: "MDMEASURE_AGGR_MAX", value: "4"},
			{name: "MDMEASURE_AGGR_AVG", value: "5"},
			{name: "MDMEASURE_AGGR_VAR", value: "6"},
			{name: "MDMEASURE_AGGR_STD", value: "7"},
			{name: "MDMEASURE_AGGR_DST", value: "8"},
			{name: "MDMEASURE_AGGR_CALCULATED", value: "127"},
		},
	},
	{
		name: "MEMBER_TYPE", description: "The type of a member.", typ: "int",
		elements: []enumElement{
			{name: "MDMEMBER_TYPE_UNKNOWN", value: "0"},
			{name: "MDMEMBER_TYPE_REGULAR", value: "1"},
			{name: "MDMEMBER_TYPE_ALL", value: "2"},
			{name: "MDMEMBER_TYPE_MEASURE", value: "3"},
			{name: "MDMEMBER_TYPE_FORMULA", value: "4"},
		},
	},
	{
		name: "ProviderType", description: "The types of data supported by the provider.", typ: "EnumString",
		elements: []enumElement{
			{name: "TDP", description: "tabular data provider."},
			{name: "MDP", description: "multidimensional data provider."},
			{name: "DMP", description: "data mining provider."},
		},
	},
	{
		name: "STRUCTURE", description: "The structure of a hierarchy.", typ: "int",
		elements: []enumElement{
			{name: "MD_STRUCTURE_FULLYBALANCED", value: "0"},
			{name: "MD_STRUCTURE_RAGGEDBALANCED", value: "1"},
			{name: "MD_STRUCTURE_UNBALANCED", value: "2"},
			{name: "MD_STRUCTURE_NETWORK", value: "3"},
		},
	},
	{
		name: "TREE_OP", description: "The relatives of a member to return.", typ: "int",
		elements: []enumElement{
			{name: "MDTREEOP_CHILDREN", description: "Returns only the immediate children", value: "1"},
			{name: "MDTREEOP_SIBLINGS", description: "Returns members on the same level", value: "2"},
			{name: "MDTREEOP_PARENT", description: "Returns only the immediate parent", value: "4"},
			{name: "MDTREEOP_SELF", description: "Returns the immediate member in the list of returned rows", value: "8"},
			{name: "MDTREEOP_DESCENDANTS", description: "Returns all descendants", value: "16"},
			{name: "MDTREEOP_ANCESTORS", description: "Returns all ancestors", value: "32"},
		},
	},
}
