package engine

import (
	"fmt"
	"strings"

	"github.com/vk/exprgrid/internal/expr"
)

// PrepareBatch applies common subexpression elimination across a batch of
// expression trees. Each tree is rebuilt from shallow clones with cleared
// results, and structurally identical subtrees collapse onto a single shared
// node, so an operator runs at most once per distinct parameter binding for
// the whole batch. The input trees are left untouched.
func PrepareBatch(exprs []*expr.Expression) []*expr.Expression {
	in := &interner{
		handles: make(map[*expr.Expression]int),
		byKey:   make(map[string]*expr.Expression),
	}
	out := make([]*expr.Expression, len(exprs))
	for i, x := range exprs {
		out[i] = in.intern(x)
	}
	return out
}

// interner canonicalizes expression nodes within one batch. Each canonical
// node gets an integer handle; a node's key is its operator identity plus the
// handles of its already-canonicalized children, so equality checks never
// recurse.
type interner struct {
	handles map[*expr.Expression]int
	byKey   map[string]*expr.Expression
}

func (in *interner) intern(x *expr.Expression) *expr.Expression {
	c := x.CloneShallow()

	var key strings.Builder
	key.WriteString(x.Op.ID().String())
	key.WriteByte('(')
	for i, pb := range x.Params() {
		sub := in.intern(pb.Expr)
		c.SetParam(pb.Name, sub)
		if i > 0 {
			key.WriteByte(',')
		}
		fmt.Fprintf(&key, "%s=%d", pb.Name, in.handles[sub])
	}
	key.WriteByte(')')

	if existing, ok := in.byKey[key.String()]; ok {
		return existing
	}
	in.handles[c] = len(in.handles)
	in.byKey[key.String()] = c
	return c
}
