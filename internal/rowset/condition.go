package rowset

import (
	"fmt"
	"regexp"
	"strings"
)

// Condition is a predicate built from a restriction. The zero Condition
// accepts everything and is recognizable through Trivial.
type Condition[E any] struct {
	accept func(E) bool
}

// Projection extracts the value a restriction is matched against. The
// boolean is false when the element has no value.
type Projection[E any] func(E) (string, bool)

// NewCondition builds the predicate for r over values extracted by project.
func NewCondition[E any](r Restriction, project Projection[E]) Condition[E] {
	switch r.kind {
	case restrictNone:
		return Condition[E]{}
	case restrictSingle:
		re := wildcardRegexp(r.pattern)
		return Condition[E]{accept: func(e E) bool {
			v, _ := project(e)
			return re.MatchString(v)
		}}
	case restrictMany:
		set := make(map[string]struct{}, len(r.values))
		for _, v := range r.values {
			set[v] = struct{}{}
		}
		_, emptyListed := set[""]
		return Condition[E]{accept: func(e E) bool {
			v, ok := project(e)
			if !ok {
				return emptyListed
			}
			_, found := set[v]
			return found
		}}
	}
	panic(fmt.Sprintf("rowset: unexpected restriction kind %d", r.kind))
}

// Trivial reports whether c accepts every element.
func (c Condition[E]) Trivial() bool {
	return c.accept == nil
}

// Accept evaluates c.
func (c Condition[E]) Accept(e E) bool {
	return c.accept == nil || c.accept(e)
}

// And combines conditions, dropping trivial ones.
func And[E any](conds ...Condition[E]) Condition[E] {
	var live []func(E) bool
	for _, c := range conds {
		if !c.Trivial() {
			live = append(live, c.accept)
		}
	}
	switch len(live) {
	case 0:
		return Condition[E]{}
	case 1:
		return Condition[E]{accept: live[0]}
	}
	return Condition[E]{accept: func(e E) bool {
		for _, f := range live {
			if !f(e) {
				return false
			}
		}
		return true
	}}
}

// Filter returns the elements of items accepted by every condition.
func Filter[E any](items []E, conds ...Condition[E]) []E {
	c := And(conds...)
	if c.Trivial() {
		return items
	}
	var out []E
	for _, it := range items {
		if c.accept(it) {
			out = append(out, it)
		}
	}
	return out
}

// wildcardRegexp compiles a SQL LIKE pattern into an anchored regexp.
func wildcardRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?s)^(?:")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(")$")
	return regexp.MustCompile(b.String())
}
