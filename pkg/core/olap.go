package core

import "context"

// Element is the surface shared by every named metadata object.
type Element interface {
	Name() string
	UniqueName() string
	Caption() string
	Description() string
	Visible() bool
}

// Catalog is the top of the metadata graph.
type Catalog interface {
	Name() string
	Description() string
	Schemas(ctx context.Context) ([]Schema, error)
}

// Schema groups cubes within a catalog.
type Schema interface {
	Name() string
	Catalog() Catalog
	Cubes(ctx context.Context) ([]Cube, error)
}

// Cube is a multidimensional data set.
type Cube interface {
	Element
	Schema() Schema
	Dimensions() []Dimension
	Measures() []Measure
	Sets() []NamedSet

	// LookupMember resolves a fully-qualified member name. It returns
	// (nil, nil) when no member has that name.
	LookupMember(ctx context.Context, uniqueName string) (Member, error)
}

// DimensionType classifies a dimension.
type DimensionType int

const (
	DimensionOther DimensionType = iota
	DimensionTime
	DimensionMeasure
)

// Dimension is a set of hierarchies over one business attribute.
type Dimension interface {
	Element
	Cube() Cube
	Type() DimensionType
	Ordinal() int
	Hierarchies() []Hierarchy
	DefaultHierarchy() Hierarchy
}

// Hierarchy orders the members of a dimension into levels.
type Hierarchy interface {
	Element
	Dimension() Dimension
	Ordinal() int
	Levels() []Level
	HasAll() bool
	DefaultMember(ctx context.Context) (Member, error)
	RootMembers(ctx context.Context) ([]Member, error)
}

// LevelType classifies a level. Values match the XMLA LEVEL_TYPE codes.
type LevelType int

const (
	LevelRegular       LevelType = 0x0000
	LevelAll           LevelType = 0x0001
	LevelCalculated    LevelType = 0x0002
	LevelTime          LevelType = 0x0004
	LevelTimeYears     LevelType = 0x0014
	LevelTimeHalfYears LevelType = 0x0024
	LevelTimeQuarters  LevelType = 0x0044
	LevelTimeMonths    LevelType = 0x0084
	LevelTimeWeeks     LevelType = 0x0104
	LevelTimeDays      LevelType = 0x0204
	LevelTimeHours     LevelType = 0x0304
	LevelTimeMinutes   LevelType = 0x0404
	LevelTimeSeconds   LevelType = 0x0804
)

// Level is one tier of a hierarchy. The all level, when present, has depth 0.
type Level interface {
	Element
	Hierarchy() Hierarchy
	Depth() int
	Type() LevelType
	Members(ctx context.Context) ([]Member, error)
}

// MemberType classifies a member. Values match the XMLA MEMBER_TYPE codes.
type MemberType int

const (
	MemberUnknown MemberType = iota
	MemberRegular
	MemberAll
	MemberMeasure
	MemberFormula
)

// Member is a node in a hierarchy's member tree.
type Member interface {
	Element
	Level() Level
	Type() MemberType
	Ordinal() int
	Depth() int

	// Parent returns nil for root members.
	Parent() Member
	Children(ctx context.Context) ([]Member, error)
}

// Aggregator is how a stored measure rolls up.
type Aggregator string

const (
	AggregatorSum           Aggregator = "sum"
	AggregatorCount         Aggregator = "count"
	AggregatorDistinctCount Aggregator = "distinct-count"
	AggregatorMin           Aggregator = "min"
	AggregatorMax           Aggregator = "max"
	AggregatorAvg           Aggregator = "avg"
	AggregatorVar           Aggregator = "var"
	AggregatorStd           Aggregator = "std"
)

// Measure is a member of the measures dimension.
type Measure interface {
	Member
	Aggregator() Aggregator
	DataType() string
	FormatString() string
	Calculated() bool
}

// NamedSet is a set expression registered on a cube.
type NamedSet interface {
	Name() string
	UniqueName() string
	Caption() string
	Description() string
	Cube() Cube
}
