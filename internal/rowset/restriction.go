package rowset

import (
	"slices"
	"strconv"
	"strings"
)

type restrictionKind int

const (
	restrictNone restrictionKind = iota
	restrictSingle
	restrictMany
)

// Restriction is a client filter on one column: nothing, a single SQL-style
// wildcard pattern, or a list of exact values. The zero value restricts
// nothing.
type Restriction struct {
	kind    restrictionKind
	pattern string
	values  []string
}

// Wildcard restricts to values matching pattern, where % matches any run of
// characters and _ matches exactly one.
func Wildcard(pattern string) Restriction {
	return Restriction{kind: restrictSingle, pattern: pattern}
}

// Values restricts to values equal to one of vs.
func Values(vs ...string) Restriction {
	return Restriction{kind: restrictMany, values: slices.Clone(vs)}
}

// Scalar interprets a single transport value: a value containing % is a
// wildcard pattern, anything else is an exact value.
func Scalar(v string) Restriction {
	if strings.Contains(v, "%") {
		return Wildcard(v)
	}
	return Values(v)
}

// IsSet reports whether r restricts anything.
func (r Restriction) IsSet() bool {
	return r.kind != restrictNone
}

// String renders r for logs.
func (r Restriction) String() string {
	switch r.kind {
	case restrictSingle:
		return "like " + strconv.Quote(r.pattern)
	case restrictMany:
		return "in " + strings.Join(r.values, ",")
	default:
		return "none"
	}
}

// single returns the only exact value of r.
func (r Restriction) single() (string, bool) {
	if r.kind != restrictMany || len(r.values) != 1 {
		return "", false
	}
	return r.values[0], true
}

// literals returns the values of r taken verbatim, including a wildcard
// pattern.
func (r Restriction) literals() []string {
	switch r.kind {
	case restrictSingle:
		return []string{r.pattern}
	case restrictMany:
		return r.values
	}
	return nil
}
