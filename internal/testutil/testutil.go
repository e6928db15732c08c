// Package testutil holds small fixtures shared by the engine test suites.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/exprgrid/internal/builder"
	"github.com/vk/exprgrid/internal/expr"
	"github.com/vk/exprgrid/internal/operator"
)

// NewOp derives an operator from a spec and fails the test on annotation
// errors.
func NewOp(t *testing.T, spec operator.Spec, opts operator.Options) *operator.Operator {
	t.Helper()
	op, err := operator.New(spec, opts)
	require.NoError(t, err)
	return op
}

// Pool groups operators by produced type.
func Pool(ops ...*operator.Operator) builder.Pool {
	pool := make(builder.Pool)
	for _, op := range ops {
		pool[op.Produces()] = append(pool[op.Produces()], op)
	}
	return pool
}

// SelfCompat maps every type mentioned by the pool to itself.
func SelfCompat(pool builder.Pool) builder.CompatMap {
	compat := make(builder.CompatMap)
	add := func(ty operator.Type) {
		if _, ok := compat[ty]; !ok {
			compat[ty] = []operator.Type{ty}
		}
	}
	for ty, ops := range pool {
		add(ty)
		for _, op := range ops {
			for _, p := range op.ResolutionParams() {
				add(p.Type)
			}
		}
	}
	return compat
}

// Drain pulls a stream to exhaustion.
func Drain(s expr.Stream) []*expr.Value {
	var out []*expr.Value
	for {
		v, ok := s()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Computed extracts the payloads of the computed values, skipping failures
// and short-circuits.
func Computed(values []*expr.Value) []any {
	var out []any
	for _, v := range values {
		if v.HasValue() {
			out = append(out, v.V)
		}
	}
	return out
}
