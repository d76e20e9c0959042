package rowset

import "github.com/leapstack-labs/leapxmla/pkg/xmlwriter"

const uuidPattern = "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"

// writeSchema writes the inline XSD describing the rows of def.
func writeSchema(w *xmlwriter.Writer, def *Definition) {
	w.StartElement("xsd:schema",
		xmlwriter.A("xmlns:xsd", NamespaceXSD),
		xmlwriter.A("targetNamespace", NamespaceRowset),
		xmlwriter.A("xmlns", NamespaceRowset),
		xmlwriter.A("xmlns:xsi", NamespaceXSI),
		xmlwriter.A("xmlns:sql", NamespaceSQL),
		xmlwriter.A("elementFormDefault", "qualified"))

	w.StartElement("xsd:element", xmlwriter.A("name", "root"))
	w.StartElement("xsd:complexType")
	w.StartElement("xsd:sequence")
	w.Element("xsd:element",
		xmlwriter.A("name", "row"),
		xmlwriter.A("type", "row"),
		xmlwriter.A("minOccurs", 0),
		xmlwriter.A("maxOccurs", "unbounded"))
	w.EndElement()
	w.EndElement()
	w.EndElement()

	w.StartElement("xsd:simpleType", xmlwriter.A("name", "uuid"))
	w.StartElement("xsd:restriction", xmlwriter.A("base", "xsd:string"))
	w.Element("xsd:pattern", xmlwriter.A("value", uuidPattern))
	w.EndElement()
	w.EndElement()

	w.StartElement("xsd:complexType", xmlwriter.A("name", "row"))
	w.StartElement("xsd:sequence")
	for _, c := range def.Columns {
		writeColumnSchema(w, c)
	}
	w.EndElement()
	w.EndElement()

	w.EndElement()
}

func writeColumnSchema(w *xmlwriter.Writer, c *Column) {
	attrs := []xmlwriter.Attr{
		xmlwriter.A("sql:field", c.Name),
		xmlwriter.A("name", c.element),
	}
	if t := c.Type.XSD(); t != "" {
		attrs = append(attrs, xmlwriter.A("type", t))
	}
	if c.Nullable {
		attrs = append(attrs, xmlwriter.A("minOccurs", 0))
	}
	if c.Unbounded {
		attrs = append(attrs, xmlwriter.A("maxOccurs", "unbounded"))
	}
	w.Element("xsd:element", attrs...)
}
