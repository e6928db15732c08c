package builder

import (
	"context"
	"fmt"

	"github.com/vk/exprgrid/internal/ctxlog"
	"github.com/vk/exprgrid/internal/expr"
	"github.com/vk/exprgrid/internal/operator"
)

// Pool maps each produced type to the operators able to produce it.
type Pool map[operator.Type][]*operator.Operator

// CompatMap maps a declared parameter type to every type acceptable in its
// place (the declared type itself plus any more specific types).
type CompatMap map[operator.Type][]operator.Type

// Clone returns a shallow copy of the pool; candidate slices are shared.
func (p Pool) Clone() Pool {
	out := make(Pool, len(p))
	for t, ops := range p {
		out[t] = ops
	}
	return out
}

// BuildAll assembles every valid expression tree producing each goal
// operator's type. Two synthetic operators are injected into the pool before
// building: one producing the per-run data map and one resolving to the
// consuming operator, so producers can depend on either without a circular
// type dependency.
func BuildAll(ctx context.Context, goals []*operator.Operator, pool Pool, compat CompatMap, opts Options) ([]*expr.Expression, error) {
	logger := ctxlog.FromContext(ctx)

	pool = pool.Clone()

	// A declared type stays in the compatibility map only if at least one of
	// its compatible types actually has a producer; keeping it would mislead
	// the recursion into thinking the type can be built.
	pruned := make(CompatMap, len(compat))
	for declared, compatible := range compat {
		for _, t := range compatible {
			if len(pool[t]) > 0 {
				pruned[declared] = compatible
				break
			}
		}
	}

	for _, synthetic := range []*operator.Operator{operator.NewConsumer(), operator.NewRunData()} {
		t := synthetic.Produces()
		pool[t] = []*operator.Operator{synthetic}
		pruned[t] = []operator.Type{t}
	}

	b := &build{pool: pool, compat: pruned, opts: opts}

	var out []*expr.Expression
	for _, goal := range goals {
		candidates, err := b.buildExpr(goal, nil)
		if err != nil {
			return nil, err
		}
		kept := 0
		for _, x := range candidates {
			if x.Validate(b.compat) {
				out = append(out, x)
				kept++
			}
		}
		logger.Debug("Built expressions for goal.",
			"goal", goal.Name(), "candidates", len(candidates), "valid", kept)
	}
	return out, nil
}

type build struct {
	pool   Pool
	compat CompatMap
	opts   Options
}

// buildExpr recursively assembles every expression rooted at op. stack holds
// the operators on the current resolution path, innermost first.
func (b *build) buildExpr(op *operator.Operator, stack []*operator.Operator) ([]*expr.Expression, error) {
	for _, ancestor := range stack {
		if ancestor == op {
			chain := append([]*operator.Operator{op}, stack...)
			switch b.opts.OnCycle {
			case Ignore:
				return nil, nil
			case Callback:
				if b.opts.CycleFunc != nil {
					b.opts.CycleFunc(chain)
				}
				return nil, nil
			default:
				return nil, &CycleError{Chain: chain}
			}
		}
	}
	stack = append([]*operator.Operator{op}, stack...)

	params := op.ResolutionParams()
	if len(params) == 0 {
		return []*expr.Expression{expr.New(op, nil)}, nil
	}

	// Candidate types per parameter, with the receiver of a method-like
	// operator restricted to types actually declaring the method.
	candTypes := make([][]operator.Type, len(params))
	for i, p := range params {
		candTypes[i] = b.compat[p.Type]
		if i == 0 && op.MethodLike() {
			var owned []operator.Type
			for _, t := range candTypes[i] {
				if op.OwnsMethod(t) {
					owned = append(owned, t)
				}
			}
			candTypes[i] = owned
		}
	}

	// Drop optional parameters with no candidate producer; apply the
	// unresolved-dependency policy to required ones.
	var (
		kept     []operator.Param
		keptCand [][]operator.Type
	)
	for i, p := range params {
		if len(candTypes[i]) > 0 {
			kept = append(kept, p)
			keptCand = append(keptCand, candTypes[i])
			continue
		}
		if p.Optional {
			continue
		}
		switch b.opts.OnUnresolved {
		case Ignore:
			return nil, nil
		case Callback:
			if b.opts.UnresolvedFunc != nil {
				b.opts.UnresolvedFunc(p.Type, op, p.Name, stack)
			}
			return nil, nil
		default:
			return nil, &NoOperatorError{Missing: p.Type, Op: op, Param: p.Name, Path: stack}
		}
	}

	var out []*expr.Expression
	err := product(keptCand, func(typeCombo []operator.Type) error {
		opLists := make([][]*operator.Operator, len(typeCombo))
		for i, t := range typeCombo {
			ops := b.pool[t]
			if len(ops) == 0 {
				// Another combination may pick a produced subtype instead.
				return nil
			}
			opLists[i] = ops
		}

		return product(opLists, func(opCombo []*operator.Operator) error {
			subLists := make([][]*expr.Expression, len(opCombo))
			for i, sub := range opCombo {
				exprs, err := b.buildExpr(sub, stack)
				if err != nil {
					return err
				}
				subLists[i] = exprs
			}

			return product(subLists, func(subCombo []*expr.Expression) error {
				bindings := make([]expr.ParamBinding, len(kept))
				for i, p := range kept {
					bindings[i] = expr.ParamBinding{Name: p.Name, Expr: subCombo[i]}
				}
				out = append(out, expr.New(op, bindings))
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// product invokes fn with every combination drawing one element from each
// list. A product over zero lists yields one empty combination; any empty
// list yields none.
func product[T any](lists [][]T, fn func(combo []T) error) error {
	for _, list := range lists {
		if len(list) == 0 {
			return nil
		}
	}

	idx := make([]int, len(lists))
	for {
		combo := make([]T, len(lists))
		for i, list := range lists {
			combo[i] = list[idx[i]]
		}
		if err := fn(combo); err != nil {
			return err
		}

		pos := len(lists) - 1
		for ; pos >= 0; pos-- {
			idx[pos]++
			if idx[pos] < len(lists[pos]) {
				break
			}
			idx[pos] = 0
		}
		if pos < 0 {
			return nil
		}
	}
}

// GoalOperators returns the pool's producers for the named goal type.
func GoalOperators(pool Pool, goal operator.Type) ([]*operator.Operator, error) {
	ops := pool[goal]
	if len(ops) == 0 {
		return nil, fmt.Errorf("no operator produces goal type %q", goal)
	}
	return ops, nil
}
