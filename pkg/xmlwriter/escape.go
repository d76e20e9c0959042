// Package xmlwriter streams well-formed XML with every attribute value and
// text node passed through an Escaper.
package xmlwriter

import (
	"strconv"
	"strings"
)

// Escaper maps characters to escape sequences.
// An Escaper is immutable once built and safe for concurrent use.
type Escaper struct {
	ascii        [128]string
	others       map[rune]string
	numericAbove rune
}

// XMLNumeric escapes markup characters and whitespace control characters as
// numeric character references, and every code point above 127 as &#N;.
// Code points XML 1.0 cannot carry, such as NUL, become U+FFFD.
var XMLNumeric = xmlNumeric()

func xmlNumeric() *Escaper {
	b := NewBuilder().
		Define('&', "&#38;").
		Define('"', "&#34;").
		Define('\'', "&#39;").
		Define('<', "&#60;").
		Define('>', "&#62;").
		NumericAbove(127)
	for r := rune(0); r < 0x20; r++ {
		b.Define(r, replacementRef)
	}
	b.Define('\t', "&#9;").Define('\n', "&#10;").Define('\r', "&#13;")
	b.Define(0xFFFE, replacementRef).Define(0xFFFF, replacementRef)
	return b.Build()
}

const replacementRef = "&#65533;"

// Escape returns s with every mapped character replaced.
func (e *Escaper) Escape(s string) string {
	i := strings.IndexFunc(s, e.escapes)
	if i < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	b.WriteString(s[:i])
	for _, r := range s[i:] {
		if rep, ok := e.lookup(r); ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (e *Escaper) escapes(r rune) bool {
	_, ok := e.lookup(r)
	return ok
}

func (e *Escaper) lookup(r rune) (string, bool) {
	if r >= 0 && r < 128 {
		rep := e.ascii[r]
		return rep, rep != ""
	}
	if rep, ok := e.others[r]; ok {
		return rep, true
	}
	if e.numericAbove > 0 && r > e.numericAbove {
		return "&#" + strconv.Itoa(int(r)) + ";", true
	}
	return "", false
}

// Builder accumulates escape definitions for an Escaper.
type Builder struct {
	table        map[rune]string
	numericAbove rune
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{table: make(map[rune]string)}
}

// Define maps r to replacement. A later definition for the same rune wins.
func (b *Builder) Define(r rune, replacement string) *Builder {
	b.table[r] = replacement
	return b
}

// NumericAbove escapes every rune greater than limit, and not otherwise
// defined, as a decimal character reference.
func (b *Builder) NumericAbove(limit rune) *Builder {
	b.numericAbove = limit
	return b
}

// Build returns an immutable Escaper. The Builder may be reused afterwards.
func (b *Builder) Build() *Escaper {
	e := &Escaper{numericAbove: b.numericAbove}
	for r, rep := range b.table {
		if r >= 0 && r < 128 {
			e.ascii[r] = rep
			continue
		}
		if e.others == nil {
			e.others = make(map[rune]string)
		}
		e.others[r] = rep
	}
	return e
}
