package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapxmla/pkg/adapter"
	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// memberSource reads the members of a hierarchy from a table.
type memberSource struct {
	table   string
	adapter core.Adapter
	logger  *slog.Logger
}

// load builds the member tree of a table-backed hierarchy. A failed load
// is retried on the next access.
func (h *Hierarchy) load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded {
		return nil
	}

	var columns []string
	for _, l := range h.levels {
		if l.typ != core.LevelAll {
			columns = append(columns, l.column)
		}
	}
	tuples, err := adapter.DistinctTuples(ctx, h.source.adapter, h.source.table, columns)
	if err != nil {
		return fmt.Errorf("failed to load members of %s: %w", h.uniqueName, err)
	}
	h.setMembers(specsFromTuples(tuples))
	h.source.logger.Debug("loaded hierarchy members",
		"hierarchy", h.uniqueName, "table", h.source.table, "members", h.count)
	return nil
}

// specsFromTuples folds distinct level tuples into a member tree. An empty
// value ends its branch, so NULLs in deeper columns make ragged trees.
func specsFromTuples(tuples [][]string) []MemberSpec {
	type node struct {
		spec     MemberSpec
		children []*node
		index    map[string]*node
	}
	root := &node{index: map[string]*node{}}
	for _, t := range tuples {
		cur := root
		for _, v := range t {
			if v == "" {
				break
			}
			next, ok := cur.index[v]
			if !ok {
				next = &node{spec: MemberSpec{Name: v}, index: map[string]*node{}}
				cur.index[v] = next
				cur.children = append(cur.children, next)
			}
			cur = next
		}
	}

	var fold func(ns []*node) []MemberSpec
	fold = func(ns []*node) []MemberSpec {
		if len(ns) == 0 {
			return nil
		}
		out := make([]MemberSpec, len(ns))
		for i, n := range ns {
			out[i] = n.spec
			out[i].Children = fold(n.children)
		}
		return out
	}
	return fold(root.children)
}

// setMembers replaces the member tree. Ordinals number members in
// pre-order starting with the all member.
func (h *Hierarchy) setMembers(specs []MemberSpec) {
	for _, l := range h.levels {
		l.members = nil
	}
	h.all, h.top, h.count = nil, nil, 0

	first := 0
	if h.hasAll {
		all := h.levels[0]
		h.all = &Member{
			element: element{name: h.allName, uniqueName: qualify(h.uniqueName, h.allName)},
			level:   all,
			typ:     core.MemberAll,
		}
		all.members = []*Member{h.all}
		h.count++
		first = 1
	}

	var build func(specs []MemberSpec, depth int, parent *Member, prefix string) []*Member
	build = func(specs []MemberSpec, depth int, parent *Member, prefix string) []*Member {
		if depth >= len(h.levels) || len(specs) == 0 {
			return nil
		}
		level := h.levels[depth]
		out := make([]*Member, 0, len(specs))
		for _, s := range specs {
			m := &Member{
				element: element{
					name:        s.Name,
					uniqueName:  qualify(prefix, s.Name),
					caption:     s.Caption,
					description: s.Description,
					hidden:      s.Hidden,
				},
				level:   level,
				typ:     core.MemberRegular,
				ordinal: h.count,
				parent:  parent,
			}
			h.count++
			level.members = append(level.members, m)
			m.children = build(s.Children, depth+1, m, m.uniqueName)
			out = append(out, m)
		}
		return out
	}
	h.top = build(specs, first, h.all, h.uniqueName)
	if h.all != nil {
		h.all.children = h.top
	}
	h.loaded = true
}
