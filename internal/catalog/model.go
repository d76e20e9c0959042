package catalog

// File is the YAML document describing the metadata served by leapxmla.
type File struct {
	Catalogs []CatalogSpec `yaml:"catalogs"`

	// Seeds are CSV files loaded into the target database before any
	// hierarchy reads its members from it.
	Seeds []SeedSpec `yaml:"seeds"`
}

// SeedSpec loads one CSV file into a table.
type SeedSpec struct {
	Table string `yaml:"table"`
	Path  string `yaml:"path"`
}

// CatalogSpec describes a catalog and its schemas.
type CatalogSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Roles       []string     `yaml:"roles"`
	Schemas     []SchemaSpec `yaml:"schemas"`
}

// SchemaSpec describes a schema and its cubes.
type SchemaSpec struct {
	Name  string     `yaml:"name"`
	Cubes []CubeSpec `yaml:"cubes"`
}

// CubeSpec describes a cube.
type CubeSpec struct {
	Name        string          `yaml:"name"`
	Caption     string          `yaml:"caption"`
	Description string          `yaml:"description"`
	Type        string          `yaml:"type"`
	Hidden      bool            `yaml:"hidden"`
	Dimensions  []DimensionSpec `yaml:"dimensions"`
	Measures    []MeasureSpec   `yaml:"measures"`
	Sets        []SetSpec       `yaml:"sets"`
}

// DimensionSpec describes a dimension. Type is "time" or empty.
type DimensionSpec struct {
	Name        string          `yaml:"name"`
	Caption     string          `yaml:"caption"`
	Description string          `yaml:"description"`
	Type        string          `yaml:"type"`
	Hidden      bool            `yaml:"hidden"`
	Hierarchies []HierarchySpec `yaml:"hierarchies"`
}

// HierarchySpec describes a hierarchy. Members come either inline or from
// Source, never both.
type HierarchySpec struct {
	Name          string       `yaml:"name"`
	Caption       string       `yaml:"caption"`
	Description   string       `yaml:"description"`
	Hidden        bool         `yaml:"hidden"`
	HasAll        *bool        `yaml:"has_all"`
	AllMemberName string       `yaml:"all_member_name"`
	DefaultMember string       `yaml:"default_member"`
	ParentChild   bool         `yaml:"parent_child"`
	Structure     string       `yaml:"structure"`
	Levels        []LevelSpec  `yaml:"levels"`
	Members       []MemberSpec `yaml:"members"`
	Source        *SourceSpec  `yaml:"source"`
}

// SourceSpec names the table a hierarchy reads its members from. Each level
// supplies the column of its own members.
type SourceSpec struct {
	Table string `yaml:"table"`
}

// LevelSpec describes a level below the all level.
type LevelSpec struct {
	Name          string `yaml:"name"`
	Caption       string `yaml:"caption"`
	Description   string `yaml:"description"`
	Type          string `yaml:"type"`
	Column        string `yaml:"column"`
	UniqueMembers *bool  `yaml:"unique_members"`
	Hidden        bool   `yaml:"hidden"`
}

// MemberSpec is a node of an inline member tree. Roots belong to the first
// level and each child to the level below its parent.
type MemberSpec struct {
	Name        string       `yaml:"name"`
	Caption     string       `yaml:"caption"`
	Description string       `yaml:"description"`
	Hidden      bool         `yaml:"hidden"`
	Children    []MemberSpec `yaml:"children"`
}

// MeasureSpec describes a stored or calculated measure.
type MeasureSpec struct {
	Name         string `yaml:"name"`
	Caption      string `yaml:"caption"`
	Description  string `yaml:"description"`
	Aggregator   string `yaml:"aggregator"`
	DataType     string `yaml:"data_type"`
	FormatString string `yaml:"format_string"`
	Formula      string `yaml:"formula"`
	Hidden       bool   `yaml:"hidden"`
}

// SetSpec describes a named set.
type SetSpec struct {
	Name        string `yaml:"name"`
	Caption     string `yaml:"caption"`
	Description string `yaml:"description"`
	Formula     string `yaml:"formula"`
}
