package rowset

import (
	"context"
	"maps"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

var dataSourceCols = struct {
	Name, Description, URL, Info, ProviderName, ProviderType, AuthenticationMode *Column
}{
	Name:               col("DataSourceName", TypeString, restrict|required, "The name of the data source, such as FoodMart 2000."),
	Description:        col("DataSourceDescription", TypeString, 0, "A description of the data source, as entered by the publisher."),
	URL:                col("URL", TypeString, restrict, "The unique path that shows where to invoke the XML for Analysis methods for that data source."),
	Info:               col("DataSourceInfo", TypeString, 0, "A string containing any additional information required to connect to the data source."),
	ProviderName:       col("ProviderName", TypeString, restrict, "The name of the provider behind the data source."),
	ProviderType:       col("ProviderType", TypeEnumerationArray, restrict|required|unbounded, "The types of data supported by the provider."),
	AuthenticationMode: col("AuthenticationMode", TypeEnumString, restrict|required, "Specification of what type of security mode the data source uses."),
}

var discoverDataSources = &Definition{
	Name:        "DISCOVER_DATASOURCES",
	Description: "Returns a list of XML for Analysis data sources available on the server or Web Service.",
	Columns: []*Column{
		dataSourceCols.Name, dataSourceCols.Description, dataSourceCols.URL, dataSourceCols.Info,
		dataSourceCols.ProviderName, dataSourceCols.ProviderType, dataSourceCols.AuthenticationMode,
	},
}

func populateDataSources(_ context.Context, rs *Rowset) ([]Row, error) {
	var rows []Row
	for _, ds := range rs.extra.DataSources() {
		rows = append(rows, newRow(rs.def).
			set(dataSourceCols.Name, ds.Name).
			set(dataSourceCols.Description, ds.Description).
			set(dataSourceCols.URL, ds.URL).
			set(dataSourceCols.Info, ds.Info).
			set(dataSourceCols.ProviderName, ds.ProviderName).
			set(dataSourceCols.ProviderType, ds.ProviderTypes).
			set(dataSourceCols.AuthenticationMode, ds.AuthMode).
			build())
	}
	return rows, nil
}

var schemaRowsetCols = struct {
	SchemaName, SchemaGUID, Restrictions, Description *Column
}{
	SchemaName:   col("SchemaName", TypeStringArray, restrict|required, "The name of the schema/request. This returns the values in the RequestTypes enumeration, plus any additional types supported by the provider."),
	SchemaGUID:   col("SchemaGuid", TypeUUID, 0, "The GUID of the schema."),
	Restrictions: col("Restrictions", TypeArray, 0, "An array of the restrictions supported by provider."),
	Description:  col("Description", TypeString, 0, "A localizable description of the schema"),
}

var discoverSchemaRowsets = &Definition{
	Name:        "DISCOVER_SCHEMA_ROWSETS",
	Description: "Returns the names, values, and other information of all supported RequestType enumeration values.",
	Columns: []*Column{
		schemaRowsetCols.SchemaName, schemaRowsetCols.SchemaGUID,
		schemaRowsetCols.Restrictions, schemaRowsetCols.Description,
	},
}

// rowsetGUIDSpace namespaces the stable GUIDs of rowset kinds.
var rowsetGUIDSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(NamespaceRowset))

func populateSchemaRowsets(_ context.Context, rs *Rowset) ([]Row, error) {
	nameCond := condition(rs, schemaRowsetCols.SchemaName.Name, func(d *Definition) (string, bool) { return d.Name, true })

	var rows []Row
	for _, d := range Filter(Definitions(), nameCond) {
		var restrictions []Fragment
		for _, c := range d.RestrictableColumns() {
			restrictions = append(restrictions, Fragment{
				Tag: schemaRowsetCols.Restrictions.element,
				Children: []Fragment{
					{Tag: "Name", Text: c.Name},
					{Tag: "Type", Text: c.Type.XSD()},
				},
			})
		}
		rows = append(rows, newRow(rs.def).
			set(schemaRowsetCols.SchemaName, d.Name).
			set(schemaRowsetCols.SchemaGUID, uuid.NewSHA1(rowsetGUIDSpace, []byte(d.Name)).String()).
			set(schemaRowsetCols.Restrictions, restrictions).
			set(schemaRowsetCols.Description, d.Description).
			build())
	}
	return rows, nil
}

var enumeratorCols = struct {
	EnumName, EnumDescription, EnumType, ElementName, ElementDescription, ElementValue *Column
}{
	EnumName:           col("EnumName", TypeStringArray, restrict|required, "The name of the enumerator that contains a set of values."),
	EnumDescription:    col("EnumDescription", TypeString, 0, "A description of the enumerator."),
	EnumType:           col("EnumType", TypeString, required, "The data type of the Enum values."),
	ElementName:        col("ElementName", TypeString, required, "The name of one of the value elements in the enumerator set."),
	ElementDescription: col("ElementDescription", TypeString, 0, "A description of the element."),
	ElementValue:       col("ElementValue", TypeString, 0, "The value of the element."),
}

var discoverEnumerators = &Definition{
	Name:        "DISCOVER_ENUMERATORS",
	Description: "Returns a list of names, data types, and enumeration values for enumerators supported by the provider of a specific data source.",
	Columns: []*Column{
		enumeratorCols.EnumName, enumeratorCols.EnumDescription, enumeratorCols.EnumType,
		enumeratorCols.ElementName, enumeratorCols.ElementDescription, enumeratorCols.ElementValue,
	},
}

func populateEnumerators(_ context.Context, rs *Rowset) ([]Row, error) {
	nameCond := condition(rs, enumeratorCols.EnumName.Name, func(e enumeration) (string, bool) { return e.name, true })

	var rows []Row
	for _, e := range Filter(enumerations, nameCond) {
		for _, el := range e.elements {
			b := newRow(rs.def).
				set(enumeratorCols.EnumName, e.name).
				set(enumeratorCols.EnumDescription, e.description).
				set(enumeratorCols.EnumType, e.typ).
				set(enumeratorCols.ElementName, el.name)
			if el.description != "" {
				b.set(enumeratorCols.ElementDescription, el.description)
			}
			if el.value != "" {
				b.set(enumeratorCols.ElementValue, el.value)
			}
			rows = append(rows, b.build())
		}
	}
	return rows, nil
}

var propertyCols = struct {
	Name, Description, Type, AccessType, IsRequired, Value *Column
}{
	Name:        col("PropertyName", TypeStringSometimesArray, restrict|required, "The name of the property."),
	Description: col("PropertyDescription", TypeString, 0, "A localizable text description of the property."),
	Type:        col("PropertyType", TypeString, 0, "The XML data type of the property."),
	AccessType:  col("PropertyAccessType", TypeEnumString, required, "Access for the property. The value can be Read, Write, or ReadWrite."),
	IsRequired:  col("IsRequired", TypeBoolean, 0, "True if a property is required, false if it is not required."),
	Value:       col("Value", TypeString, 0, "The current value of the property."),
}

var discoverProperties = &Definition{
	Name:        "DISCOVER_PROPERTIES",
	Description: "Returns a list of information and values about the requested properties that are supported by the specified data source provider.",
	Columns: []*Column{
		propertyCols.Name, propertyCols.Description, propertyCols.Type,
		propertyCols.AccessType, propertyCols.IsRequired, propertyCols.Value,
	},
}

func populateProperties(_ context.Context, rs *Rowset) ([]Row, error) {
	nameCond := condition(rs, propertyCols.Name.Name, func(p *propertyDef) (string, bool) { return p.name, true })

	var rows []Row
	for _, name := range slices.Sorted(maps.Keys(propertyDefs)) {
		p := propertyDefs[name]
		if !nameCond.Accept(p) {
			continue
		}
		b := newRow(rs.def).
			set(propertyCols.Name, p.name).
			set(propertyCols.Description, p.description).
			set(propertyCols.Type, p.typ).
			set(propertyCols.AccessType, p.access).
			set(propertyCols.IsRequired, false)
		if p.value != "" {
			b.set(propertyCols.Value, p.value)
		}
		rows = append(rows, b.build())
	}
	return rows, nil
}

var keywordCols = struct{ Keyword *Column }{
	Keyword: col("Keyword", TypeStringSometimesArray, restrict|required, "A list of all the keywords reserved by a provider."),
}

var discoverKeywords = &Definition{
	Name:        "DISCOVER_KEYWORDS",
	Description: "Returns an XML list of keywords reserved by the provider.",
	Columns:     []*Column{keywordCols.Keyword},
}

func populateKeywords(_ context.Context, rs *Rowset) ([]Row, error) {
	cond := condition(rs, keywordCols.Keyword.Name, func(k string) (string, bool) { return k, true })

	var rows []Row
	for _, k := range Filter(slices.Sorted(slices.Values(rs.extra.Keywords())), cond) {
		rows = append(rows, newRow(rs.def).set(keywordCols.Keyword, k).build())
	}
	return rows, nil
}

var literalCols = struct {
	Name, Value, InvalidChars, InvalidStartingChars, MaxLength *Column
}{
	Name:                 col("LiteralName", TypeStringSometimesArray, restrict|required, "The name of the literal described in the row."),
	Value:                col("LiteralValue", TypeString, 0, "Contains the actual literal value."),
	InvalidChars:         col("LiteralInvalidChars", TypeString, 0, "The characters, in the literal, that are not valid."),
	InvalidStartingChars: col("LiteralInvalidStartingChars", TypeString, 0, "The characters that are not valid as the first character of the literal."),
	MaxLength:            col("LiteralMaxLength", TypeInteger, 0, "The maximum number of characters in the literal."),
}

var discoverLiterals = &Definition{
	Name:        "DISCOVER_LITERALS",
	Description: "Returns information about literals supported by the provider.",
	Columns: []*Column{
		literalCols.Name, literalCols.Value, literalCols.InvalidChars,
		literalCols.InvalidStartingChars, literalCols.MaxLength,
	},
}

type literal struct {
	name, value, invalid, invalidStart string
	maxLength                          int
}

var literals = []literal{
	{name: "DBLITERAL_CATALOG_NAME", invalid: ".", invalidStart: "0123456789", maxLength: 24},
	{name: "DBLITERAL_CATALOG_SEPARATOR", value: "."},
	{name: "DBLITERAL_COLUMN_ALIAS", invalid: `'"[]`, invalidStart: "0123456789"},
	{name: "DBLITERAL_COLUMN_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_CORRELATION_NAME", invalid: `'"[]`, invalidStart: "0123456789"},
	{name: "DBLITERAL_CUBE_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_DIMENSION_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_HIERARCHY_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_LEVEL_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_MEMBER_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_PROCEDURE_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_PROPERTY_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_QUOTE_PREFIX", value: "["},
	{name: "DBLITERAL_QUOTE_SUFFIX", value: "]"},
	{name: "DBLITERAL_TABLE_NAME", invalid: ".", invalidStart: "0123456789"},
	{name: "DBLITERAL_TEXT_COMMAND"},
	{name: "DBLITERAL_USER_NAME"},
}

func populateLiterals(_ context.Context, rs *Rowset) ([]Row, error) {
	cond := condition(rs, literalCols.Name.Name, func(l literal) (string, bool) { return l.name, true })

	var rows []Row
	for _, l := range Filter(literals, cond) {
		b := newRow(rs.def).
			set(literalCols.Name, l.name).
			set(literalCols.MaxLength, l.maxLength)
		if l.value != "" {
			b.set(literalCols.Value, l.value)
		}
		if l.invalid != "" {
			b.set(literalCols.InvalidChars, l.invalid)
		}
		if l.invalidStart != "" {
			b.set(literalCols.InvalidStartingChars, l.invalidStart)
		}
		rows = append(rows, b.build())
	}
	return rows, nil
}

func init() {
	register(discoverDataSources, populateDataSources)
	register(discoverSchemaRowsets, populateSchemaRowsets)
	register(discoverEnumerators, populateEnumerators)
	register(discoverProperties, populateProperties)
	register(discoverKeywords, populateKeywords)
	register(discoverLiterals, populateLiterals)
}

// itoa is shorthand used by strategies that project integers for matching.
func itoa(n int) (string, bool) { return strconv.Itoa(n), true }
