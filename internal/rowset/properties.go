package rowset

import (
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Content selects which parts of a response are emitted.
type Content int

const (
	ContentSchemaData Content = iota
	ContentSchema
	ContentData
	ContentNone
)

var contentNames = map[string]Content{
	"SchemaData": ContentSchemaData,
	"Schema":     ContentSchema,
	"Data":       ContentData,
	"None":       ContentNone,
}

func (c Content) schema() bool { return c == ContentSchemaData || c == ContentSchema }
func (c Content) data() bool   { return c == ContentSchemaData || c == ContentData }

// settings are the request properties that influence population and output.
type settings struct {
	content       Content
	catalog       string
	locale        language.Tag
	deep          bool
	emitInvisible bool
}

type propertyHandler func(s *settings, value string, logger *slog.Logger) error

// propertyDef describes a recognized XMLA property. A nil handler marks a
// property that is accepted but has no effect on discovery.
type propertyDef struct {
	name        string
	typ         string
	access      string
	description string
	value       string
	handle      propertyHandler
}

var propertyDefs = map[string]*propertyDef{}

func defineProperty(p *propertyDef) {
	propertyDefs[p.name] = p
}

func init() {
	defineProperty(&propertyDef{
		name: "Content", typ: "string", access: "Write", value: "SchemaData",
		description: "An enumerator that specifies what type of data is returned by the result set.",
		handle: func(s *settings, v string, _ *slog.Logger) error {
			c, ok := contentNames[v]
			if !ok {
				return ClientFault(CodeBadPropertyValue, "Invalid value '%s' for property 'Content'", v)
			}
			s.content = c
			return nil
		},
	})
	defineProperty(&propertyDef{
		name: "Format", typ: "string", access: "Write", value: "Tabular",
		description: "Enumerator that determines the format of the returned result set.",
		// Discover output is always tabular; the value is only checked.
		handle: func(_ *settings, v string, _ *slog.Logger) error {
			if v != "Tabular" && v != "Multidimensional" && v != "Native" {
				return ClientFault(CodeBadPropertyValue, "Invalid value '%s' for property 'Format'", v)
			}
			return nil
		},
	})
	defineProperty(&propertyDef{
		name: "Catalog", typ: "string", access: "ReadWrite",
		description: "Specifies the initial catalog or database on which to connect.",
		handle: func(s *settings, v string, _ *slog.Logger) error {
			s.catalog = v
			return nil
		},
	})
	defineProperty(&propertyDef{
		name: "DataSourceInfo", typ: "string", access: "ReadWrite",
		description: "A string containing provider specific information, required to access the data source.",
	})
	defineProperty(&propertyDef{
		name: "LocaleIdentifier", typ: "unsignedInt", access: "ReadWrite",
		description: "Use this to read or set the Locale ID.",
		handle: func(s *settings, v string, logger *slog.Logger) error {
			if tag, ok := parseLocale(v); ok {
				s.locale = tag
				return nil
			}
			logger.Warn("ignoring unparseable locale", "value", v)
			return nil
		},
	})
	defineProperty(&propertyDef{
		name: "Deep", typ: "boolean", access: "ReadWrite", value: "false",
		description: "Whether to include nested rowsets of dependent metadata.",
		handle:      boolProperty("Deep", func(s *settings, b bool) { s.deep = b }),
	})
	defineProperty(&propertyDef{
		name: "EmitInvisibleMembers", typ: "boolean", access: "ReadWrite", value: "false",
		description: "Whether to include members whose visible property is false.",
		handle:      boolProperty("EmitInvisibleMembers", func(s *settings, b bool) { s.emitInvisible = b }),
	})

	for _, p := range []*propertyDef{
		{name: "Timeout", typ: "unsignedInt", access: "ReadWrite", description: "A numeric time-out specifying in seconds the amount of time to wait for a request to be successful."},
		{name: "UserName", typ: "string", access: "Read", description: "Returns the UserName the server associates with the command."},
		{name: "Password", typ: "string", access: "Read", description: "This property is deprecated in XMLA 1.1."},
		{name: "BeginRange", typ: "int", access: "Write", value: "-1", description: "An integer value corresponding to a CellOrdinal used to restrict an MDDataSet returned by a command to a specific range of cells."},
		{name: "EndRange", typ: "int", access: "Write", value: "-1", description: "An integer value corresponding to a CellOrdinal used to restrict an MDDataSet returned by a command to a specific range of cells."},
		{name: "AxisFormat", typ: "string", access: "Write", value: "TupleFormat", description: "Determines the format used within an MDDataSet result set to describe the axes of the multidimensional dataset."},
		{name: "StateSupport", typ: "string", access: "Read", value: "None", description: "Property that specifies the degree of support in the provider for state."},
		{name: "ProviderName", typ: "string", access: "Read", value: "leapxmla", description: "The XMLA Provider name."},
		{name: "ProviderVersion", typ: "string", access: "Read", description: "The version of the server."},
	} {
		defineProperty(p)
	}
}

// boolProperty reads a boolean leniently: anything strconv.ParseBool
// rejects counts as false.
func boolProperty(name string, apply func(*settings, bool)) propertyHandler {
	return func(s *settings, v string, logger *slog.Logger) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			logger.Warn("treating unrecognized boolean property as false", "property", name, "value", v)
		}
		apply(s, b)
		return nil
	}
}

// lcids maps Windows locale identifiers to BCP 47 tags.
var lcids = map[int]string{
	1025: "ar-SA", 1028: "zh-TW", 1029: "cs-CZ", 1030: "da-DK",
	1031: "de-DE", 1032: "el-GR", 1033: "en-US", 1035: "fi-FI",
	1036: "fr-FR", 1037: "he-IL", 1038: "hu-HU", 1040: "it-IT",
	1041: "ja-JP", 1042: "ko-KR", 1043: "nl-NL", 1044: "nb-NO",
	1045: "pl-PL", 1046: "pt-BR", 1049: "ru-RU", 1053: "sv-SE",
	1055: "tr-TR", 1081: "hi-IN", 2052: "zh-CN", 2057: "en-GB",
	2070: "pt-PT", 3076: "zh-HK", 3081: "en-AU", 3082: "es-ES",
	4105: "en-CA", 3084: "fr-CA", 2055: "de-CH", 2067: "nl-BE",
}

// parseLocale accepts a numeric LCID first, then a locale string such as
// "en-US" or "en_US".
func parseLocale(v string) (language.Tag, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return language.Und, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		if s, ok := lcids[n]; ok {
			return language.MustParse(s), true
		}
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(v, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
