package expr

import (
	"github.com/google/uuid"

	"github.com/vk/exprgrid/internal/operator"
)

// ParamBinding associates a parameter name with the sub-expression that
// produces its value. Order follows the operator's declaration order.
type ParamBinding struct {
	Name string
	Expr *Expression
}

// Expression is an operator bound to concrete parameter sub-expressions.
// The tree shape is immutable; results accumulate on the node and can be
// discarded without rebuilding the tree.
type Expression struct {
	Op     *operator.Operator
	params []ParamBinding

	// Data is the mutable per-run data map shared by every value computed
	// under this root expression.
	Data   map[string]any
	DataID uuid.UUID

	results []*Seq
}

// New builds an expression node. params must follow the operator's parameter
// order; omitted optional parameters are simply absent.
func New(op *operator.Operator, params []ParamBinding) *Expression {
	return &Expression{
		Op:     op,
		params: append([]ParamBinding(nil), params...),
		Data:   make(map[string]any),
		DataID: uuid.New(),
	}
}

// Params returns the bound parameters in declaration order.
func (x *Expression) Params() []ParamBinding { return x.params }

// Param returns the sub-expression bound to the named parameter.
func (x *Expression) Param(name string) (*Expression, bool) {
	for _, pb := range x.params {
		if pb.Name == name {
			return pb.Expr, true
		}
	}
	return nil, false
}

// CloneShallow copies the node with an empty result list. The operator,
// parameter bindings and run data map are shared with the original.
func (x *Expression) CloneShallow() *Expression {
	return &Expression{
		Op:     x.Op,
		params: append([]ParamBinding(nil), x.params...),
		Data:   x.Data,
		DataID: x.DataID,
	}
}

// SetParam rebinds a parameter to a different sub-expression. Used only by
// batch deduplication on cloned nodes.
func (x *Expression) SetParam(name string, sub *Expression) {
	for i, pb := range x.params {
		if pb.Name == name {
			x.params[i].Expr = sub
			return
		}
	}
}

// StructuralEqual reports whether two expressions have the same operator
// identity and recursively equal parameter bindings.
func StructuralEqual(a, b *Expression) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Op.ID() != b.Op.ID() || len(a.params) != len(b.params) {
		return false
	}
	for i := range a.params {
		if a.params[i].Name != b.params[i].Name {
			return false
		}
		if !StructuralEqual(a.params[i].Expr, b.params[i].Expr) {
			return false
		}
	}
	return true
}

// Results returns the result sequences accumulated so far.
func (x *Expression) Results() []*Seq { return x.results }

// AddResult appends a new per-binding result sequence.
func (x *Expression) AddResult(s *Seq) { x.results = append(x.results, s) }

// DiscardResults drops accumulated results without discarding the tree.
func (x *Expression) DiscardResults() { x.results = nil }

// AllValues returns every value produced so far, across all bindings, in
// production order per binding.
func (x *Expression) AllValues() []*Value {
	var out []*Value
	for _, s := range x.results {
		out = append(out, s.Values()...)
	}
	return out
}

// FindResults returns the recorded sequences whose parameter binding is a
// superset of the given binding, matching values by identity. Passing only
// the reusable parameters finds sequences replayable for that binding.
func (x *Expression) FindResults(binding map[string]*Value) []*Seq {
	var out []*Seq
	for _, s := range x.results {
		match := true
		for name, v := range binding {
			sv, ok := s.Params[name]
			if !ok || !SameIdentity(sv, v) {
				match = false
				break
			}
		}
		if match {
			out = append(out, s)
		}
	}
	return out
}

// Walk visits the expression tree depth-first, parents before children.
func (x *Expression) Walk(fn func(*Expression) bool) {
	x.walk(fn)
}

func (x *Expression) walk(fn func(*Expression) bool) bool {
	if !fn(x) {
		return false
	}
	for _, pb := range x.params {
		if !pb.Expr.walk(fn) {
			return false
		}
	}
	return true
}

// Validate checks the tree's internal consistency: no produced type may be
// attributed to two different operators, and no two distinct types used in
// the tree may be mutually compatible (which would make the tree's meaning
// ambiguous).
func (x *Expression) Validate(compat map[operator.Type][]operator.Type) bool {
	types := make(map[operator.Type]uuid.UUID)
	if !x.populateTypes(types) {
		return false
	}

	for declared, compatible := range compat {
		bag := make(map[operator.Type]bool, len(compatible)+1)
		bag[declared] = true
		for _, t := range compatible {
			bag[t] = true
		}
		used := 0
		for t := range types {
			if bag[t] {
				used++
			}
		}
		if used > 1 {
			return false
		}
	}
	return true
}

func (x *Expression) populateTypes(types map[operator.Type]uuid.UUID) bool {
	t := x.Op.Produces()
	if owner, ok := types[t]; ok && owner != x.Op.ID() {
		return false
	}
	types[t] = x.Op.ID()

	for _, pb := range x.params {
		if !pb.Expr.populateTypes(types) {
			return false
		}
	}
	return true
}
