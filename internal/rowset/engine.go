// Package rowset answers XMLA Discover requests: it validates a request
// against the declared shape of a rowset kind, populates rows from the
// metadata graph, sorts them and streams them as XML.
package rowset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapxmla/internal/session"
	"github.com/leapstack-labs/leapxmla/pkg/core"
	"github.com/leapstack-labs/leapxmla/pkg/xmlwriter"
	"golang.org/x/text/language"
)

// XML namespaces used in rowset responses.
const (
	NamespaceXMLA   = "urn:schemas-microsoft-com:xml-analysis"
	NamespaceRowset = "urn:schemas-microsoft-com:xml-analysis:rowset"
	NamespaceXSD    = "http://www.w3.org/2001/XMLSchema"
	NamespaceXSI    = "http://www.w3.org/2001/XMLSchema-instance"
	NamespaceSQL    = "urn:schemas-microsoft-com:xml-sql"
)

// maxNesting bounds how deep nested rowsets may expand.
const maxNesting = 4

// Config holds the collaborators of an Engine.
type Config struct {
	Factory core.ConnectionFactory

	// Sessions, when set, tracks each request as a statement of its session
	// so the session can cancel it.
	Sessions *session.Tracker
	Logger   *slog.Logger
}

// Engine serves Discover requests. It is safe for concurrent use.
type Engine struct {
	factory  core.ConnectionFactory
	sessions *session.Tracker
	logger   *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		factory:  cfg.Factory,
		sessions: cfg.Sessions,
		logger:   logger,
	}
}

// Result is a populated, sorted rowset ready for emission. It holds the
// metadata connection until Close.
type Result struct {
	rs     *Rowset
	rows   []Row
	ctx    context.Context
	stmt   *session.Statement
	engine *Engine
	closed bool
}

// Prepare validates req, populates the rowset and sorts it. Nothing is
// written until Emit, so a failed Prepare produces no output.
func (e *Engine) Prepare(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	def, ok := Lookup(req.RowsetName)
	if !ok {
		err := ClientFault(CodeUnknownRowset, "Unknown rowset '%s'", req.RowsetName)
		requestsTotal.WithLabelValues("unknown", outcome(err)).Inc()
		return nil, err
	}

	res, err := e.prepare(ctx, def, req)
	requestsTotal.WithLabelValues(def.Name, outcome(err)).Inc()
	populateDuration.WithLabelValues(def.Name).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	rowsEmitted.WithLabelValues(def.Name).Add(float64(len(res.rows)))
	return res, nil
}

func (e *Engine) prepare(ctx context.Context, def *Definition, req Request) (*Result, error) {
	rs, err := validate(def, req, e.logger)
	if err != nil {
		return nil, err
	}

	rs.extra = e.factory.Extra()
	rs.conn = &connHolder{
		factory: e.factory,
		req: core.ConnectRequest{
			Catalog:      rs.settings.catalog,
			Username:     req.Username,
			Password:     req.Password,
			DrillThrough: req.DrillThrough,
		},
		logger: e.logger,
	}
	if rs.settings.locale != language.Und {
		rs.conn.req.Locale = rs.settings.locale.String()
	}

	res := &Result{rs: rs, ctx: ctx, engine: e}
	if e.sessions != nil && req.SessionID != "" {
		res.stmt = e.sessions.RegisterStatement(ctx, req.SessionID, "DISCOVER "+def.Name)
		res.ctx = res.stmt.Context()
	}
	if err := res.ctx.Err(); err != nil {
		_ = res.Close()
		return nil, AsFault(err)
	}

	rows, err := def.populate(res.ctx, rs)
	if err != nil {
		_ = res.Close()
		return nil, AsFault(err)
	}
	sortRows(def, rows)
	res.rows = rows

	e.logger.Debug("populated rowset",
		"rowset", def.Name,
		"restrictions", len(rs.restrictions),
		"rows", len(rows),
		"session", req.SessionID)
	return res, nil
}

// Discover prepares req and writes the complete response document to out.
func (e *Engine) Discover(ctx context.Context, req Request, out io.Writer, opts ...xmlwriter.Option) error {
	res, err := e.Prepare(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close() }()

	w := xmlwriter.New(out, opts...)
	if err := res.Emit(w); err != nil {
		return err
	}
	if err := w.EndDocument(); err != nil {
		return ServerFault(CodeWriter, err, "Failed to write response")
	}
	return nil
}

// Definition returns the rowset kind of the result.
func (r *Result) Definition() *Definition {
	return r.rs.def
}

// Rows returns the sorted top-level rows.
func (r *Result) Rows() []Row {
	return r.rows
}

// Close releases the metadata connection and the session statement. It is
// safe to call more than once.
func (r *Result) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.rs.conn.release()
	if r.stmt != nil {
		r.engine.sessions.UnregisterStatement(r.stmt)
	}
	return nil
}

// Emit writes the <root> element holding the schema and rows selected by
// the Content property.
func (r *Result) Emit(w *xmlwriter.Writer) error {
	w.StartElement("root",
		xmlwriter.A("xmlns", NamespaceRowset),
		xmlwriter.A("xmlns:xsi", NamespaceXSI),
		xmlwriter.A("xmlns:xsd", NamespaceXSD))

	content := r.rs.settings.content
	if content.schema() {
		writeSchema(w, r.rs.def)
	}
	if content.data() {
		for _, row := range r.rows {
			if err := r.emitRow(w, r.rs, row); err != nil {
				return err
			}
		}
	}
	w.EndElement()

	if err := w.Err(); err != nil {
		return ServerFault(CodeWriter, err, "Failed to write response")
	}
	return nil
}

func (r *Result) emitRow(w *xmlwriter.Writer, rs *Rowset, row Row) error {
	w.StartElement("row")
	for _, c := range rs.def.Columns {
		v := row.values[c.index]
		if v == nil {
			if !c.Nullable {
				return ServerFault(CodeNonNullableNull, nil,
					"Rowset '%s' column '%s' is not nullable but has no value", rs.def.Name, c.Name)
			}
			continue
		}

		switch t := v.(type) {
		case []string:
			for _, s := range t {
				w.TextElement(c.element, s)
			}
		case []Fragment:
			for _, f := range t {
				writeFragment(w, f)
			}
		case Nested:
			if err := r.emitNested(w, rs, c, t); err != nil {
				return err
			}
		default:
			w.TextElement(c.element, formatScalar(v))
		}
	}
	w.EndElement()
	return nil
}

// emitNested populates and writes a sub-rowset inside the column element.
func (r *Result) emitNested(w *xmlwriter.Writer, parent *Rowset, c *Column, n Nested) error {
	if parent.depth+1 >= maxNesting {
		return ServerFault(CodeUnknown, nil, "Rowset '%s' nests deeper than %d levels", n.Def.Name, maxNesting)
	}
	child, err := parent.child(n)
	if err != nil {
		return err
	}
	rows, err := n.Def.populate(r.ctx, child)
	if err != nil {
		return AsFault(err)
	}
	sortRows(n.Def, rows)

	w.StartSequence(c.element)
	for _, row := range rows {
		if err := r.emitRow(w, child, row); err != nil {
			return err
		}
	}
	w.EndSequence()
	return nil
}

func writeFragment(w *xmlwriter.Writer, f Fragment) {
	if len(f.Children) == 0 {
		w.TextElement(f.Tag, f.Text)
		return
	}
	w.StartElement(f.Tag)
	for _, child := range f.Children {
		writeFragment(w, child)
	}
	w.EndElement()
}

const dateTimeLayout = "2006-01-02T15:04:05"

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.Format(dateTimeLayout)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
