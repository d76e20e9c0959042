package xmlwriter

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXMLNumericEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "Sales", want: "Sales"},
		{name: "ampersand", in: "5 & 6", want: "5 &#38; 6"},
		{name: "markup", in: `<a href="x">'`, want: "&#60;a href=&#34;x&#34;&#62;&#39;"},
		{name: "whitespace controls", in: "a\tb\nc\rd", want: "a&#9;b&#10;c&#13;d"},
		{name: "latin1", in: "café", want: "caf&#233;"},
		{name: "astral", in: "😀", want: "&#128512;"},
		{name: "empty", in: "", want: ""},
		{name: "nul", in: "a\x00b", want: "a&#65533;b"},
		{name: "other c0 controls", in: "\x01\x1f\x0b", want: "&#65533;&#65533;&#65533;"},
		{name: "noncharacters", in: "\uFFFE\uFFFF", want: "&#65533;&#65533;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, XMLNumeric.Escape(tt.in))
		})
	}
}

func TestXMLNumericRoundTrip(t *testing.T) {
	inputs := []string{
		`<>&"'` + "\t\n\r",
		"Überprüfung & <Straße>",
		"line one\r\nline two",
		"日本語 \"quoted\" 'single'",
		"mixed 😀 emoji\tand tabs",
	}

	// Characters XML cannot carry still yield a parseable document.
	var got struct {
		Text string `xml:",chardata"`
	}
	require.NoError(t, xml.Unmarshal([]byte("<t>"+XMLNumeric.Escape("nul\x00bell\x07")+"</t>"), &got))
	assert.Equal(t, "nul\uFFFDbell\uFFFD", got.Text)

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			doc := "<t>" + XMLNumeric.Escape(in) + "</t>"
			assert.True(t, isASCII(doc), "escaped output must be ASCII: %q", doc)

			var got struct {
				Text string `xml:",chardata"`
			}
			require.NoError(t, xml.Unmarshal([]byte(doc), &got))
			assert.Equal(t, in, got.Text)
		})
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder().Define('$', "\\$").Define('é', "e")
	esc := b.Build()

	assert.Equal(t, `\$5 cafe`, esc.Escape("$5 café"))
	assert.Equal(t, "ü", esc.Escape("ü"), "no numeric fallback unless requested")

	// later definitions do not leak into escapers already built
	b.Define('c', "C")
	assert.Equal(t, "cafe", esc.Escape("café"))
	assert.Equal(t, "Cafe", b.Build().Escape("café"))
}

func isASCII(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r > 127 }) < 0
}
