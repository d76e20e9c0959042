package xmlwriter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// state is the cursor position of a Writer.
type state int

const (
	// stateEndElement is the initial state and the state after a close tag.
	stateEndElement state = iota
	// stateInTag means a start tag is open and still accepts attributes.
	stateInTag
	// stateAfterTag means a start tag was completed and children may follow.
	stateAfterTag
	// stateCharacters means text was the last thing written.
	stateCharacters
)

// ErrUnbalanced is returned when elements are closed that were never opened,
// or a document ends with elements still open.
var ErrUnbalanced = errors.New("xmlwriter: unbalanced elements")

// Attr is an attribute of a start tag. Attributes with a nil Value are omitted.
type Attr struct {
	Name  string
	Value any
}

// A is shorthand for an Attr literal.
func A(name string, value any) Attr {
	return Attr{Name: name, Value: value}
}

// frame is one entry of the open-element stack. A frame with an empty name
// is a sequence marker that produced no element.
type frame struct {
	name string
}

// Writer emits XML to an underlying io.Writer.
//
// The first write error is sticky: later calls do nothing and Err, Flush and
// EndDocument report it. A Writer is not safe for concurrent use.
type Writer struct {
	out    *bufio.Writer
	esc    *Escaper
	indent string
	depth  int
	stack  []frame
	state  state
	err    error
}

// Option configures a Writer.
type Option func(*Writer)

// WithIndent pretty-prints nested elements, indenting each level by unit.
func WithIndent(unit string) Option {
	return func(w *Writer) { w.indent = unit }
}

// WithEscaper replaces the XMLNumeric escaper.
func WithEscaper(e *Escaper) Option {
	return func(w *Writer) { w.esc = e }
}

// New returns a compact Writer on out.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:   bufio.NewWriter(out),
		esc:   XMLNumeric,
		state: stateEndElement,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// StartDocument writes the XML declaration.
func (w *Writer) StartDocument() {
	w.write(`<?xml version="1.0" encoding="UTF-8"?>`)
	if w.indent != "" {
		w.write("\n")
	}
}

// EndDocument flushes the output. It fails if any element is still open.
func (w *Writer) EndDocument() error {
	if w.err == nil && len(w.stack) != 0 {
		w.err = fmt.Errorf("%w: document ended inside <%s>", ErrUnbalanced, w.openName())
	}
	return w.Flush()
}

// StartElement opens tag with the given attributes.
func (w *Writer) StartElement(tag string, attrs ...Attr) {
	w.checkTag()
	if w.indent != "" && w.depth > 0 {
		w.newline()
	}
	w.depth++
	w.write("<")
	w.write(tag)
	for _, a := range attrs {
		if a.Value == nil {
			continue
		}
		w.write(" ")
		w.write(a.Name)
		w.write(`="`)
		w.write(w.esc.Escape(formatValue(a.Value)))
		w.write(`"`)
	}
	w.state = stateInTag
	w.stack = append(w.stack, frame{name: tag})
}

// EndElement closes the innermost open element.
func (w *Writer) EndElement() {
	if len(w.stack) == 0 {
		w.fail(fmt.Errorf("%w: end element with nothing open", ErrUnbalanced))
		return
	}
	f := w.pop()
	if f.name == "" {
		w.fail(fmt.Errorf("%w: end element inside an unnamed sequence", ErrUnbalanced))
		return
	}
	w.closeTag(f.name)
}

// Element writes an empty element.
func (w *Writer) Element(tag string, attrs ...Attr) {
	w.StartElement(tag, attrs...)
	w.EndElement()
}

// Characters writes escaped text inside the current element.
func (w *Writer) Characters(text string) {
	w.checkTag()
	w.write(w.esc.Escape(text))
	w.state = stateCharacters
}

// TextElement writes <tag>text</tag>. Line breaks in text become spaces.
func (w *Writer) TextElement(tag string, text string) {
	w.StartElement(tag)
	w.Characters(flattenLines(text))
	w.EndElement()
}

// StartSequence opens tag to hold a run of repeated children. An empty tag
// emits nothing but still needs a matching EndSequence.
func (w *Writer) StartSequence(tag string) {
	if tag == "" {
		w.stack = append(w.stack, frame{})
		return
	}
	w.StartElement(tag)
}

// EndSequence closes what the matching StartSequence opened.
func (w *Writer) EndSequence() {
	if n := len(w.stack); n > 0 && w.stack[n-1].name == "" {
		w.pop()
		return
	}
	w.EndElement()
}

// CompleteBeforeElement closes every open element up to and including the
// innermost element named tag. It does nothing if tag is not open.
func (w *Writer) CompleteBeforeElement(tag string) {
	at := -1
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].name == tag {
			at = i
			break
		}
	}
	if at < 0 {
		return
	}
	for len(w.stack) > at {
		f := w.pop()
		if f.name != "" {
			w.closeTag(f.name)
		}
	}
}

// Verbatim writes text without escaping.
func (w *Writer) Verbatim(text string) {
	w.checkTag()
	w.write(text)
}

// Depth reports the number of open elements.
func (w *Writer) Depth() int {
	return w.depth
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.out.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) closeTag(name string) {
	w.depth--
	if w.state == stateInTag {
		w.write("/>")
	} else {
		if w.state != stateCharacters && w.indent != "" {
			w.newline()
		}
		w.write("</")
		w.write(name)
		w.write(">")
	}
	w.state = stateEndElement
}

// checkTag completes an open start tag.
func (w *Writer) checkTag() {
	if w.state == stateInTag {
		w.state = stateAfterTag
		w.write(">")
	}
}

func (w *Writer) newline() {
	w.write("\n")
	for range w.depth {
		w.write(w.indent)
	}
}

func (w *Writer) pop() frame {
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return f
}

func (w *Writer) openName() string {
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].name != "" {
			return w.stack[i].name
		}
	}
	return ""
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.out.WriteString(s); err != nil {
		w.err = err
	}
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flattenLines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return lineBreaks.Replace(s)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
