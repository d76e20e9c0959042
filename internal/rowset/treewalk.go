package rowset

import (
	"context"
	"iter"

	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// TreeOp selects which relatives of a member a members request returns.
// Values match the XMLA TREE_OP bitmask.
type TreeOp int

const (
	TreeOpChildren    TreeOp = 0x01
	TreeOpSiblings    TreeOp = 0x02
	TreeOpParent      TreeOp = 0x04
	TreeOpSelf        TreeOp = 0x08
	TreeOpDescendants TreeOp = 0x10
	TreeOpAncestors   TreeOp = 0x20
)

func (op TreeOp) has(flag TreeOp) bool {
	return op&flag == flag
}

// Walk yields the members op selects relative to m: the member itself, its
// siblings, its children or descendants, then its parent or ancestors.
// Overlapping flags may yield a member more than once. Iteration stops at
// the first error, which is yielded with a nil member.
func Walk(ctx context.Context, m core.Member, op TreeOp) iter.Seq2[core.Member, error] {
	return concat(
		walkSelf(m, op),
		walkSiblings(ctx, m, op),
		walkDown(ctx, m, op),
		walkUp(ctx, m, op),
	)
}

func walkSelf(m core.Member, op TreeOp) iter.Seq2[core.Member, error] {
	return func(yield func(core.Member, error) bool) {
		if op.has(TreeOpSelf) {
			yield(m, nil)
		}
	}
}

// walkSiblings yields the other children of m's parent, or the other root
// members when m has no parent.
func walkSiblings(ctx context.Context, m core.Member, op TreeOp) iter.Seq2[core.Member, error] {
	return func(yield func(core.Member, error) bool) {
		if !op.has(TreeOpSiblings) {
			return
		}
		siblings, err := siblingsOf(ctx, m)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, s := range siblings {
			if s.UniqueName() == m.UniqueName() {
				continue
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func siblingsOf(ctx context.Context, m core.Member) ([]core.Member, error) {
	if p := m.Parent(); p != nil {
		return p.Children(ctx)
	}
	return m.Level().Hierarchy().RootMembers(ctx)
}

// walkDown recurses into every child: with descendants when requested,
// otherwise with the child alone.
func walkDown(ctx context.Context, m core.Member, op TreeOp) iter.Seq2[core.Member, error] {
	return func(yield func(core.Member, error) bool) {
		var childOp TreeOp
		switch {
		case op.has(TreeOpDescendants):
			childOp = TreeOpSelf | TreeOpDescendants
		case op.has(TreeOpChildren):
			childOp = TreeOpSelf
		default:
			return
		}

		children, err := m.Children(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, c := range children {
			for x, err := range Walk(ctx, c, childOp) {
				if !yield(x, err) || err != nil {
					return
				}
			}
		}
	}
}

// walkUp recurses into the parent: with its ancestors when requested,
// otherwise the parent alone.
func walkUp(ctx context.Context, m core.Member, op TreeOp) iter.Seq2[core.Member, error] {
	return func(yield func(core.Member, error) bool) {
		var parentOp TreeOp
		switch {
		case op.has(TreeOpAncestors):
			parentOp = TreeOpSelf | TreeOpAncestors
		case op.has(TreeOpParent):
			parentOp = TreeOpSelf
		default:
			return
		}

		p := m.Parent()
		if p == nil {
			return
		}
		for x, err := range Walk(ctx, p, parentOp) {
			if !yield(x, err) || err != nil {
				return
			}
		}
	}
}

func concat(seqs ...iter.Seq2[core.Member, error]) iter.Seq2[core.Member, error] {
	return func(yield func(core.Member, error) bool) {
		for _, seq := range seqs {
			for m, err := range seq {
				if !yield(m, err) || err != nil {
					return
				}
			}
		}
	}
}
