package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapxmla/internal/rowset"
	"github.com/leapstack-labs/leapxmla/pkg/xmlwriter"
	"github.com/spf13/cobra"
)

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <REQUEST_TYPE>",
		Short: "Run one Discover request against the catalog",
		Long: `Run a Discover request against the catalog file and print the rowset.

Restrictions take one or more comma-separated values. A single value
containing % is matched as a pattern.`,
		Example: `  leapxmla discover MDSCHEMA_CUBES
  leapxmla discover MDSCHEMA_MEMBERS -r CUBE_NAME=Sales -r "MEMBER_UNIQUE_NAME=[Store].[USA]" -r TREE_OP=1
  leapxmla discover MDSCHEMA_LEVELS -r "DIMENSION_UNIQUE_NAME=[Time]" -o table`,
		Args: cobra.ExactArgs(1),
		RunE: runDiscover,
	}

	cmd.Flags().StringArrayP("restriction", "r", nil, "Restriction as COLUMN=value[,value...] (repeatable)")
	cmd.Flags().StringArrayP("property", "p", nil, "Property as NAME=VALUE (repeatable)")
	cmd.Flags().StringP("output", "o", "xml", "Output format (xml|table)")
	cmd.Flags().Bool("indent", true, "Indent XML output")

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	restrictionArgs, _ := cmd.Flags().GetStringArray("restriction")
	propertyArgs, _ := cmd.Flags().GetStringArray("property")
	output, _ := cmd.Flags().GetString("output")
	indent, _ := cmd.Flags().GetBool("indent")

	req := rowset.Request{RowsetName: strings.ToUpper(args[0])}
	if req.Restrictions, err = parseRestrictions(restrictionArgs); err != nil {
		return err
	}
	if req.Properties, err = parseProperties(propertyArgs); err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := cc.OpenBackend(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	engine := rowset.New(rowset.Config{Factory: backend.Factory, Logger: cc.Logger})

	switch output {
	case "xml":
		var opts []xmlwriter.Option
		if indent {
			opts = append(opts, xmlwriter.WithIndent("  "))
		}
		if err := engine.Discover(ctx, req, cmd.OutOrStdout(), opts...); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		return nil
	case "table":
		res, err := engine.Prepare(ctx, req)
		if err != nil {
			return err
		}
		defer func() { _ = res.Close() }()
		renderRowset(cmd.OutOrStdout(), res.Definition(), res.Rows())
		return nil
	default:
		return fmt.Errorf("unknown output format %q: expected xml or table", output)
	}
}

// parseRestrictions turns COLUMN=v1,v2 arguments into restrictions. A
// column given twice accumulates values.
func parseRestrictions(args []string) (map[string]rowset.Restriction, error) {
	values := make(map[string][]string)
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid restriction %q: expected COLUMN=value", arg)
		}
		name = strings.ToUpper(strings.TrimSpace(name))
		values[name] = append(values[name], splitValues(value)...)
	}

	out := make(map[string]rowset.Restriction, len(values))
	for name, vs := range values {
		if len(vs) == 1 {
			out[name] = rowset.Scalar(vs[0])
		} else {
			out[name] = rowset.Values(vs...)
		}
	}
	return out, nil
}

// splitValues splits on commas outside square brackets, so member unique
// names such as [Store].[USA, North] stay whole.
func splitValues(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func parseProperties(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q: expected NAME=VALUE", arg)
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, nil
}

func renderRowset(w io.Writer, def *rowset.Definition, rows []rowset.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(def.Columns))
	for i, c := range def.Columns {
		header[i] = c.Name
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(def.Columns))
		for i, c := range def.Columns {
			row[i] = cellText(r.Value(c))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(rows))})
	t.Render()
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case rowset.Nested:
		return "(" + t.Def.Name + ")"
	case []rowset.Fragment:
		parts := make([]string, len(t))
		for i, f := range t {
			parts[i] = fragmentText(f)
		}
		return strings.Join(parts, "; ")
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func fragmentText(f rowset.Fragment) string {
	if len(f.Children) == 0 {
		return f.Tag + "=" + f.Text
	}
	parts := make([]string, len(f.Children))
	for i, c := range f.Children {
		parts[i] = fragmentText(c)
	}
	return f.Tag + "{" + strings.Join(parts, ", ") + "}"
}
