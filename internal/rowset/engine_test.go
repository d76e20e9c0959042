package rowset

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapxmla/internal/session"
	"github.com/leapstack-labs/leapxmla/internal/testutil"
	"github.com/leapstack-labs/leapxmla/pkg/xmlwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareFaults(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		name string
		req  Request
		code string
	}{
		{
			name: "unknown rowset",
			req:  Request{RowsetName: "MDSCHEMA_FUNCTIONS_X"},
			code: CodeUnknownRowset,
		},
		{
			name: "unknown column",
			req: Request{RowsetName: "MDSCHEMA_CUBES",
				Restrictions: map[string]Restriction{"CUBE_COLOUR": Values("red")}},
			code: CodeUnknownColumn,
		},
		{
			name: "column not restrictable",
			req: Request{RowsetName: "MDSCHEMA_MEMBERS",
				Restrictions: map[string]Restriction{"MEMBER_ORDINAL": Values("1")}},
			code: CodeNotRestrictable,
		},
		{
			name: "several values on a scalar column",
			req: Request{RowsetName: "MDSCHEMA_CUBES",
				Restrictions: map[string]Restriction{"CUBE_NAME": Values("Sales", "Warehouse")}},
			code: CodeMultiValue,
		},
		{
			name: "unsupported property",
			req:  Request{RowsetName: "MDSCHEMA_CUBES", Properties: map[string]string{"Colour": "red"}},
			code: CodeUnsupportedProp,
		},
		{
			name: "bad content",
			req:  Request{RowsetName: "MDSCHEMA_CUBES", Properties: map[string]string{"Content": "Everything"}},
			code: CodeBadPropertyValue,
		},
		{
			name: "bad format",
			req:  Request{RowsetName: "MDSCHEMA_CUBES", Properties: map[string]string{"Format": "Pretty"}},
			code: CodeBadPropertyValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := e.Discover(context.Background(), tt.req, &buf)
			require.Error(t, err)
			assert.True(t, IsFault(err, tt.code), "got %v", err)

			var f *Fault
			require.ErrorAs(t, err, &f)
			assert.Equal(t, FaultClient, f.FaultCode)
			assert.Empty(t, buf.String(), "a rejected request writes nothing")
		})
	}
}

func TestPrepareAcceptsInertProperties(t *testing.T) {
	e := newTestEngine(t, nil)
	rows := discover(t, e, Request{
		RowsetName: "MDSCHEMA_CUBES",
		Properties: map[string]string{
			"Timeout": "30", "AxisFormat": "TupleFormat", "LocaleIdentifier": "1033",
			"DataSourceInfo": "Provider=Other", "Format": "Multidimensional",
		},
	})
	assert.Len(t, rows, 2)
}

func TestPrepareUnrecognizedBooleanIsFalse(t *testing.T) {
	e := newTestEngine(t, nil)
	for _, v := range []string{"yes", "maybe", ""} {
		rows := discover(t, e, Request{
			RowsetName: "MDSCHEMA_CUBES",
			Properties: map[string]string{"Deep": v, "EmitInvisibleMembers": v, "Content": "Data"},
		})
		require.Len(t, rows, 2, "value %q", v)
		assert.Nil(t, rows[0].Get("DIMENSIONS"), "value %q reads as Deep=false", v)
	}
}

func TestPrepareMultiValueArrayColumn(t *testing.T) {
	e := newTestEngine(t, nil)
	rows := discover(t, e, Request{
		RowsetName:   "MDSCHEMA_MEMBERS",
		Restrictions: map[string]Restriction{"MEMBER_UNIQUE_NAME": Values("[Store].[USA]", "[Store].[Canada]")},
	})
	assert.ElementsMatch(t, []any{"USA", "Canada"}, column(rows, "MEMBER_NAME"))
}

func TestDiscoverDocument(t *testing.T) {
	e := newTestEngine(t, nil)

	var buf bytes.Buffer
	err := e.Discover(context.Background(), Request{
		RowsetName:   "DISCOVER_KEYWORDS",
		Restrictions: map[string]Restriction{"Keyword": Values("Select")},
	}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<root xmlns="`+NamespaceRowset+`"`), out)
	assert.Contains(t, out, `<xsd:schema`)
	assert.Contains(t, out, `<row><Keyword>Select</Keyword></row>`)
	assert.Equal(t, 1, strings.Count(out, "<row>"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</root>"))
}

func TestDiscoverContent(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		content    string
		wantSchema bool
		wantRows   bool
	}{
		{"SchemaData", true, true},
		{"Schema", true, false},
		{"Data", false, true},
		{"None", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			var buf bytes.Buffer
			err := e.Discover(context.Background(), Request{
				RowsetName: "DBSCHEMA_CATALOGS",
				Properties: map[string]string{"Content": tt.content},
			}, &buf)
			require.NoError(t, err)

			out := buf.String()
			assert.Contains(t, out, "<root")
			assert.Equal(t, tt.wantSchema, strings.Contains(out, "xsd:schema"))
			assert.Equal(t, tt.wantRows, strings.Contains(out, "<CATALOG_NAME>FoodMart</CATALOG_NAME>"))
		})
	}
}

func TestDiscoverIndented(t *testing.T) {
	e := newTestEngine(t, nil)

	var buf bytes.Buffer
	err := e.Discover(context.Background(), Request{
		RowsetName: "DBSCHEMA_CATALOGS",
		Properties: map[string]string{"Content": "Data"},
	}, &buf, xmlwriter.WithIndent("  "))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\n  <row>")
}

func TestDiscoverDeepNesting(t *testing.T) {
	e := newTestEngine(t, nil)

	var buf bytes.Buffer
	err := e.Discover(context.Background(), Request{
		RowsetName:   "MDSCHEMA_CUBES",
		Restrictions: map[string]Restriction{"CUBE_NAME": Values("Warehouse")},
		Properties:   map[string]string{"Deep": "true", "Content": "Data"},
	}, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<DIMENSIONS><row>")
	assert.Contains(t, out, "<HIERARCHIES><row>")
	assert.Contains(t, out, "<LEVEL_UNIQUE_NAME>[Warehouse].[Country]</LEVEL_UNIQUE_NAME>")
	assert.Contains(t, out, "<MEASURE_NAME>Units Shipped</MEASURE_NAME>")
	assert.NotContains(t, out, "<CUBE_NAME>Sales</CUBE_NAME>", "nested rowsets stay within their cube")
}

func TestEmitNonNullableNull(t *testing.T) {
	name := col("NAME", TypeString, required, "")
	d := bind(&Definition{Name: "TEST_REQUIRED", Columns: []*Column{name}})
	res := &Result{
		rs:   &Rowset{def: d, settings: settings{content: ContentData}, conn: &connHolder{}},
		rows: []Row{newRow(d).build()},
	}

	var buf bytes.Buffer
	err := res.Emit(xmlwriter.New(&buf))
	assert.True(t, IsFault(err, CodeNonNullableNull), "got %v", err)

	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, FaultServer, f.FaultCode)
}

func TestEmitNestingLimit(t *testing.T) {
	d := bind(&Definition{Name: "TEST_NESTED", Columns: []*Column{col("CHILD", TypeRowset, 0, "")}})
	res := &Result{
		rs:   &Rowset{def: d, settings: settings{content: ContentData}, conn: &connHolder{}, depth: maxNesting - 1},
		rows: []Row{newRow(d).set(d.Columns[0], Nested{Def: d}).build()},
		ctx:  context.Background(),
	}

	var buf bytes.Buffer
	err := res.Emit(xmlwriter.New(&buf))
	assert.True(t, IsFault(err, CodeUnknown), "got %v", err)
}

func TestCancelledSession(t *testing.T) {
	sessions := session.New(session.Config{Logger: testutil.NewTestLogger(t)})
	e := newTestEngine(t, sessions)

	sessions.CancelSession("s1")
	_, err := e.Prepare(context.Background(), Request{RowsetName: "MDSCHEMA_CUBES", SessionID: "s1"})
	assert.True(t, IsFault(err, CodeCancelled), "got %v", err)

	rows := discover(t, e, Request{RowsetName: "MDSCHEMA_CUBES", SessionID: "s2"})
	assert.Len(t, rows, 2, "other sessions are unaffected")
}

func TestSessionStatementReleased(t *testing.T) {
	sessions := session.New(session.Config{})
	e := newTestEngine(t, sessions)

	res, err := e.Prepare(context.Background(), Request{RowsetName: "MDSCHEMA_CUBES", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.Snapshot()[0].Active)
	assert.Equal(t, "DISCOVER MDSCHEMA_CUBES", sessions.Snapshot()[0].LastCommand)

	require.NoError(t, res.Close())
	require.NoError(t, res.Close())
	assert.Equal(t, 0, sessions.Snapshot()[0].Active)
}

func TestParentContextCancelled(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Prepare(ctx, Request{RowsetName: "MDSCHEMA_CUBES"})
	require.Error(t, err)
	assert.True(t, IsFault(err, CodeCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAsFault(t *testing.T) {
	f := ClientFault(CodeBadRequest, "bad %s", "thing")
	assert.Same(t, f, AsFault(f))
	assert.Equal(t, "bad thing (00HSBC07)", f.Error())

	backend := AsFault(errors.New("disk on fire"))
	assert.Equal(t, CodeBackend, backend.Code)
	assert.Equal(t, FaultServer, backend.FaultCode)
	assert.Contains(t, backend.Error(), "disk on fire")
}
