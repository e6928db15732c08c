package engine

import (
	"context"

	"github.com/vk/exprgrid/internal/ctxlog"
	"github.com/vk/exprgrid/internal/expr"
	"github.com/vk/exprgrid/internal/operator"
)

// Options configures an engine instance.
type Options struct {
	// OnValue, when set, observes every value as it is produced or replayed.
	OnValue expr.OnValue
}

// Engine evaluates expressions. It holds no per-run state; each Execute call
// is an independent lazy evaluation.
type Engine struct {
	opts Options
}

// New returns an engine with the given options.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Execution pairs a deduplicated expression with the lazy stream over its
// values. Source is the caller's original, pre-deduplication tree.
type Execution struct {
	Source *expr.Expression
	Expr   *expr.Expression
	Values expr.Stream
}

// ExecuteAll deduplicates the batch and returns one lazy execution per input
// expression, in input order. The inputs are never mutated; callers that need
// the pre-dedup trees keep their own reference via Source.
func (e *Engine) ExecuteAll(ctx context.Context, exprs []*expr.Expression) []Execution {
	logger := ctxlog.FromContext(ctx)

	deduped := PrepareBatch(exprs)
	out := make([]Execution, len(exprs))
	for i, x := range deduped {
		out[i] = Execution{Source: exprs[i], Expr: x, Values: e.Execute(ctx, x)}
	}
	logger.Debug("Prepared batch for execution.", "expressions", len(exprs))
	return out
}

// Execute returns the lazy stream of values produced by one expression.
// Nothing runs until the stream is pulled.
func (e *Engine) Execute(ctx context.Context, x *expr.Expression) expr.Stream {
	return e.evaluate(x, nil)
}

// evaluate builds the pull stream for x. stack holds the expressions
// consuming x's value, outermost first; x itself is appended before its
// parameters are evaluated so synthetic operators can resolve their caller.
func (e *Engine) evaluate(x *expr.Expression, stack []*expr.Expression) expr.Stream {
	stack = append(append([]*expr.Expression(nil), stack...), x)

	var reusableNames []string
	var reusableStreams []expr.Stream
	for _, pb := range x.Params() {
		if pb.Expr.Op.Reusable() {
			reusableNames = append(reusableNames, pb.Name)
			reusableStreams = append(reusableStreams, e.evaluate(pb.Expr, stack))
		}
	}

	combos := e.comboProduct(reusableStreams)
	var inner expr.Stream

	return func() (*expr.Value, bool) {
		for {
			if inner != nil {
				if v, ok := inner(); ok {
					return v, true
				}
				inner = nil
			}
			combo, ok := combos()
			if !ok {
				return nil, false
			}
			inner = e.evalCombo(x, stack, reusableNames, combo)
		}
	}
}

// evalCombo resolves one reusable-parameter combination into a value stream:
// a memoized replay when the binding was already computed, or a fresh
// invocation otherwise.
func (e *Engine) evalCombo(x *expr.Expression, stack []*expr.Expression, reusableNames []string, combo []*expr.Value) expr.Stream {
	binding := make(map[string]*expr.Value, len(x.Params()))
	for i, v := range combo {
		binding[reusableNames[i]] = v
	}
	reusableComplete := len(combo) == len(reusableNames)

	// Replay an existing result sequence for exactly this reusable binding
	// instead of re-invoking the operator.
	if x.Op.Reusable() && reusableComplete {
		if seqs := x.FindResults(binding); len(seqs) > 0 {
			return seqs[0].Iter()
		}
	}

	// Non-reusable parameters are only worth computing when every reusable
	// one resolved to an actual value. They are recomputed per consumption
	// and only their first value is taken, never a cartesian product.
	if reusableComplete && !anyNotComputed(binding) {
		for _, pb := range x.Params() {
			if pb.Expr.Op.Reusable() {
				continue
			}
			s := e.evaluate(pb.Expr, stack)
			if v, ok := s(); ok {
				binding[pb.Name] = v
			}
		}
	}

	// Short-circuit: a parameter is missing or carries no value, so this
	// expression's operator must not run. Recording the sequence means a
	// repeated query for the same unresolved binding replays it.
	if len(binding) != len(x.Params()) || anyNotComputed(binding) {
		v := expr.NewNotComputed(x, binding)
		if e.opts.OnValue != nil {
			e.opts.OnValue(v, false)
		}
		x.AddResult(expr.FromValue(x, v, binding, e.opts.OnValue))
		return oneShot(v)
	}

	seq := expr.NewSeq(x, binding, e.producer(x, stack, binding), e.opts.OnValue)
	x.AddResult(seq)
	return seq.Iter()
}

// producer returns the tail producer computing x's values for one binding.
// Synthetic operators are resolved here as atomic injection points; everything
// else goes through the single invoke-and-capture call site.
func (e *Engine) producer(x *expr.Expression, stack []*expr.Expression, binding map[string]*expr.Value) expr.Stream {
	switch x.Op.Kind() {
	case operator.KindConsumer:
		// stack is [...grandparent, parent, x]. The parameter belongs to the
		// parent's operator, so the value it introspects is the parent's own
		// caller: the grandparent's operator.
		done := false
		return func() (*expr.Value, bool) {
			if done {
				return nil, false
			}
			done = true
			var consumer *operator.Operator
			if len(stack) >= 3 {
				consumer = stack[len(stack)-3].Op
			}
			return &expr.Value{
				Expr:   x,
				State:  expr.Computed,
				V:      consumer,
				Params: binding,
			}, true
		}

	case operator.KindRunData:
		// The run data map lives on the root of the evaluation and is shared
		// by identity across the entire tree, never recomputed per branch.
		done := false
		return func() (*expr.Value, bool) {
			if done {
				return nil, false
			}
			done = true
			root := stack[0]
			return &expr.Value{
				Expr:    x,
				State:   expr.Computed,
				V:       root.Data,
				ValueID: root.DataID,
				Params:  binding,
			}, true
		}

	default:
		args := make(operator.Args, len(binding))
		for name, v := range binding {
			args[name] = v.V
		}
		var emit operator.EmitFunc
		return func() (*expr.Value, bool) {
			if emit == nil {
				emit = x.Op.Invoke(args)
			}
			em, ok := emit()
			if !ok {
				return nil, false
			}
			return expr.NewValue(x, binding, em), true
		}
	}
}

func anyNotComputed(binding map[string]*expr.Value) bool {
	for _, v := range binding {
		if !v.HasValue() {
			return true
		}
	}
	return false
}

func oneShot(v *expr.Value) expr.Stream {
	done := false
	return func() (*expr.Value, bool) {
		if done {
			return nil, false
		}
		done = true
		return v, true
	}
}
