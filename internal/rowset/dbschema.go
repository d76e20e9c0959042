package rowset

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

var catalogCols = struct {
	CatalogName, Description, Roles, DateModified *Column
}{
	CatalogName:  col("CATALOG_NAME", TypeString, restrict|required, "Catalog name. Cannot be NULL."),
	Description:  col("DESCRIPTION", TypeString, 0, "Human-readable description of the catalog."),
	Roles:        col("ROLES", TypeString, 0, "A comma delimited list of roles to which the current user belongs."),
	DateModified: col("DATE_MODIFIED", TypeDateTime, 0, "The date that the catalog was last modified."),
}

var dbschemaCatalogs = &Definition{
	Name:        "DBSCHEMA_CATALOGS",
	Description: "Identifies the physical attributes associated with catalogs accessible from the provider.",
	Columns: []*Column{
		catalogCols.CatalogName, catalogCols.Description, catalogCols.Roles, catalogCols.DateModified,
	},
	SortColumns: []*Column{catalogCols.CatalogName},
}

func populateCatalogs(ctx context.Context, rs *Rowset) ([]Row, error) {
	cats, err := rs.catalogs(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, cat := range cats {
		schemas, err := cat.Schemas(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list schemas of %s: %w", cat.Name(), err)
		}
		var roles []string
		for _, sch := range schemas {
			roles = append(roles, rs.extra.SchemaRoleNames(sch)...)
		}

		b := newRow(rs.def).
			set(catalogCols.CatalogName, cat.Name()).
			set(catalogCols.Description, cat.Description()).
			set(catalogCols.Roles, strings.Join(roles, ","))
		if len(schemas) > 0 {
			b.set(catalogCols.DateModified, rs.extra.SchemaLoadDate(schemas[0]))
		}
		rows = append(rows, b.build())
	}
	return rows, nil
}

var schemataCols = struct {
	CatalogName, SchemaName, SchemaOwner *Column
}{
	CatalogName: col("CATALOG_NAME", TypeString, restrict|required, "The provider-specific data source name."),
	SchemaName:  col("SCHEMA_NAME", TypeString, restrict|required, "The unqualified schema name."),
	SchemaOwner: col("SCHEMA_OWNER", TypeString, restrict|required, "The user that owns the schema."),
}

var dbschemaSchemata = &Definition{
	Name:        "DBSCHEMA_SCHEMATA",
	Description: "Identifies the schemas that are owned by a given user.",
	Columns: []*Column{
		schemataCols.CatalogName, schemataCols.SchemaName, schemataCols.SchemaOwner,
	},
	SortColumns: []*Column{schemataCols.CatalogName, schemataCols.SchemaName},
}

func populateSchemata(ctx context.Context, rs *Rowset) ([]Row, error) {
	cats, err := rs.catalogs(ctx)
	if err != nil {
		return nil, err
	}
	schemaCond := condition(rs, schemataCols.SchemaName.Name, schemaName)
	ownerCond := condition(rs, schemataCols.SchemaOwner.Name, func(core.Schema) (string, bool) { return "", true })

	var rows []Row
	for _, cat := range cats {
		schemas, err := cat.Schemas(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list schemas of %s: %w", cat.Name(), err)
		}
		for _, sch := range Filter(schemas, schemaCond, ownerCond) {
			rows = append(rows, newRow(rs.def).
				set(schemataCols.CatalogName, cat.Name()).
				set(schemataCols.SchemaName, sch.Name()).
				set(schemataCols.SchemaOwner, "").
				build())
		}
	}
	return rows, nil
}

func init() {
	register(dbschemaCatalogs, populateCatalogs)
	register(dbschemaSchemata, populateSchemata)
}
