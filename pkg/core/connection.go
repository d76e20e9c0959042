package core

import (
	"context"
	"time"
)

// Connection is a live view of the metadata graph. Callers must Close it.
type Connection interface {
	Catalogs(ctx context.Context) ([]Catalog, error)
	Close() error
}

// ConnectRequest carries the per-request context a backend may scope a
// connection by.
type ConnectRequest struct {
	Catalog      string
	Username     string
	Password     string
	Role         string
	Locale       string
	DrillThrough bool
}

// ConnectionFactory opens metadata connections.
type ConnectionFactory interface {
	Connect(ctx context.Context, req ConnectRequest) (Connection, error)

	// Extra exposes capabilities the metadata contract lacks.
	Extra() Extra
}

// DataSource describes one XMLA data source.
type DataSource struct {
	Name          string
	Description   string
	URL           string
	Info          string
	ProviderName  string
	ProviderTypes []string
	AuthMode      string
}

// HierarchyStructure values match the XMLA STRUCTURE codes.
type HierarchyStructure int

const (
	StructureFullyBalanced HierarchyStructure = iota
	StructureRaggedBalanced
	StructureUnbalanced
	StructureNetwork
)

// Extra is the vendor hook for backend-specific metadata.
type Extra interface {
	Keywords() []string
	DataSources() []DataSource
	CubeType(Cube) string
	SchemaLoadDate(Schema) time.Time
	SchemaRoleNames(Schema) []string
	LevelCardinality(ctx context.Context, l Level) (int, error)
	HierarchyCardinality(ctx context.Context, h Hierarchy) (int, error)
	HierarchyStructure(Hierarchy) HierarchyStructure
	IsHierarchyParentChild(Hierarchy) bool
	IsLevelUnique(Level) bool
}
