package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapxmla/internal/rowset"
)

// generateRowsetDocs writes an index of every rowset kind and one page per
// kind listing its columns.
func generateRowsetDocs(outDir string) error {
	log.Printf("Generating rowset docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	defs := rowset.Definitions()
	if err := generateRowsetIndex(defs, outDir); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	for _, def := range defs {
		if err := generateRowsetPage(def, outDir); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", def.Name, err)
		}
		log.Printf("  Generated %s.md", rowsetSlug(def))
	}
	return nil
}

func generateRowsetIndex(defs []*rowset.Definition, outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Rowsets", "Discover request types answered by leapxmla")
	w.GeneratedMarker()

	w.Header(1, "Rowsets")
	w.Paragraph("Each Discover request names one of these request types. Restrictions filter on the listed columns.")

	var rows [][]string
	for _, def := range defs {
		link := fmt.Sprintf("[%s](/rowsets/%s)", InlineCode(def.Name), rowsetSlug(def))
		rows = append(rows, []string{link, cleanDescription(def.Description)})
	}
	w.Table([]string{"Request type", "Description"}, rows)

	w.Header(2, "Example")
	w.CodeBlock("bash", `leapxmla discover MDSCHEMA_MEMBERS \
  -r CUBE_NAME=Sales \
  -r "MEMBER_UNIQUE_NAME=[Store].[USA]" \
  -r TREE_OP=1`)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func generateRowsetPage(def *rowset.Definition, outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter(def.Name, cleanDescription(def.Description))
	w.GeneratedMarker()

	w.Header(1, def.Name)
	w.Paragraph(def.Description)

	w.Header(2, "Columns")
	var rows [][]string
	for _, c := range def.Columns {
		rows = append(rows, []string{
			InlineCode(c.Name),
			c.Type.XSD(),
			yesNo(c.Restrictable),
			yesNo(c.Nullable),
			cleanDescription(c.Description),
		})
	}
	w.Table([]string{"Column", "Type", "Restriction", "Nullable", "Description"}, rows)

	if len(def.SortColumns) > 0 {
		w.Header(2, "Ordering")
		names := make([]string, len(def.SortColumns))
		for i, c := range def.SortColumns {
			names[i] = InlineCode(c.Name)
		}
		w.Paragraph("Rows are sorted by " + strings.Join(names, ", ") + ".")
	}

	return os.WriteFile(filepath.Join(outDir, rowsetSlug(def)+".md"), w.Bytes(), 0600)
}

func rowsetSlug(def *rowset.Definition) string {
	return strings.ToLower(def.Name)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
