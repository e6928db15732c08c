package expr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/exprgrid/internal/operator"
)

func newOp(t *testing.T, name string, produces operator.Type, params ...operator.Param) *operator.Operator {
	t.Helper()
	op, err := operator.New(operator.Spec{
		Name:     name,
		Produces: produces,
		Params:   params,
		Call:     func(args operator.Args) (any, error) { return nil, nil },
	}, operator.Options{})
	require.NoError(t, err)
	return op
}

func computedValue(x *Expression, v any) *Value {
	return &Value{Expr: x, State: Computed, V: v, ValueID: uuid.New()}
}

func TestStructuralEqual(t *testing.T) {
	seedOp := newOp(t, "make_seed", "Seed")
	incOp := newOp(t, "increment", "Value", operator.Param{Name: "seed", Type: "Seed"})

	seed := New(seedOp, nil)
	a := New(incOp, []ParamBinding{{Name: "seed", Expr: seed}})
	b := New(incOp, []ParamBinding{{Name: "seed", Expr: New(seedOp, nil)}})

	assert.True(t, StructuralEqual(a, a))
	assert.True(t, StructuralEqual(a, b), "same operators in the same shape")

	otherSeedOp := newOp(t, "other_seed", "Seed")
	c := New(incOp, []ParamBinding{{Name: "seed", Expr: New(otherSeedOp, nil)}})
	assert.False(t, StructuralEqual(a, c), "different producer for the seed")
}

func TestFindResults(t *testing.T) {
	seedOp := newOp(t, "make_seed", "Seed")
	incOp := newOp(t, "increment", "Value", operator.Param{Name: "seed", Type: "Seed"})

	seed := New(seedOp, nil)
	inc := New(incOp, []ParamBinding{{Name: "seed", Expr: seed}})

	seedVal := computedValue(seed, 5)
	otherSeedVal := computedValue(seed, 7)

	seq := NewSeq(inc, map[string]*Value{"seed": seedVal}, nil, nil)
	inc.AddResult(seq)

	t.Run("matches by value identity", func(t *testing.T) {
		found := inc.FindResults(map[string]*Value{"seed": seedVal})
		require.Len(t, found, 1)
		assert.Same(t, seq, found[0])
	})

	t.Run("identity token matches across distinct instances", func(t *testing.T) {
		copied := &Value{Expr: seed, State: Computed, V: 5, ValueID: seedVal.ValueID}
		found := inc.FindResults(map[string]*Value{"seed": copied})
		require.Len(t, found, 1)
	})

	t.Run("different value does not match", func(t *testing.T) {
		assert.Empty(t, inc.FindResults(map[string]*Value{"seed": otherSeedVal}))
	})

	t.Run("subset binding matches", func(t *testing.T) {
		found := inc.FindResults(nil)
		require.Len(t, found, 1)
	})
}

func TestSeq(t *testing.T) {
	seedOp := newOp(t, "make_seed", "Seed")

	newCountingSeq := func(n int, calls *int, onValue OnValue) *Seq {
		x := New(seedOp, nil)
		i := 0
		producer := func() (*Value, bool) {
			if i >= n {
				return nil, false
			}
			i++
			*calls++
			return computedValue(x, i), true
		}
		return NewSeq(x, nil, producer, onValue)
	}

	t.Run("values are computed once and replayed", func(t *testing.T) {
		calls := 0
		s := newCountingSeq(3, &calls, nil)

		first := drain(s.Iter())
		require.Len(t, first, 3)
		assert.Equal(t, 3, calls)

		second := drain(s.Iter())
		require.Len(t, second, 3)
		assert.Equal(t, 3, calls, "replay must not re-invoke the producer")
		assert.Same(t, first[0], second[0])
	})

	t.Run("concurrent readers see every value exactly once", func(t *testing.T) {
		calls := 0
		s := newCountingSeq(3, &calls, nil)

		outer := s.Iter()
		v1, ok := outer()
		require.True(t, ok)

		// A second reader drains the whole sequence while the first one is
		// mid-iteration.
		inner := drain(s.Iter())
		require.Len(t, inner, 3)
		assert.Same(t, v1, inner[0])

		rest := drain(outer)
		require.Len(t, rest, 2, "outer reader picks up values appended behind its back")
		assert.Equal(t, 3, calls)
	})

	t.Run("callback fires once fresh then as reused", func(t *testing.T) {
		type event struct {
			v      *Value
			reused bool
		}
		var events []event
		calls := 0
		s := newCountingSeq(2, &calls, func(v *Value, reused bool) {
			events = append(events, event{v, reused})
		})

		drain(s.Iter())
		require.Len(t, events, 2)
		assert.False(t, events[0].reused)
		assert.False(t, events[1].reused)

		drain(s.Iter())
		require.Len(t, events, 4)
		assert.True(t, events[2].reused)
		assert.True(t, events[3].reused)
	})

	t.Run("from value is already exhausted", func(t *testing.T) {
		x := New(seedOp, nil)
		v := NewNotComputed(x, nil)
		s := FromValue(x, v, nil, nil)

		got := drain(s.Iter())
		require.Len(t, got, 1)
		assert.Same(t, v, got[0])
	})
}

func drain(s Stream) []*Value {
	var out []*Value
	for {
		v, ok := s()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestValueAncestry(t *testing.T) {
	seedOp := newOp(t, "make_seed", "Seed")
	incOp := newOp(t, "increment", "Value", operator.Param{Name: "seed", Type: "Seed"})

	seed := New(seedOp, nil)
	inc := New(incOp, []ParamBinding{{Name: "seed", Expr: seed}})

	seedVal := &Value{Expr: seed, State: Failed, Err: errors.New("no seed available"), ErrID: uuid.New()}
	incVal := &Value{Expr: inc, State: NotComputed, Params: map[string]*Value{"seed": seedVal}}

	t.Run("failed ancestry surfaces the root cause", func(t *testing.T) {
		failed := incVal.FailedAncestry()
		require.Len(t, failed, 1)
		assert.Same(t, seedVal, failed[0])
	})

	t.Run("ancestor values map every expression on the path", func(t *testing.T) {
		m := incVal.AncestorValues()
		assert.Same(t, incVal, m[inc])
		assert.Same(t, seedVal, m[seed])
	})
}

func TestSameIdentity(t *testing.T) {
	id := uuid.New()
	a := &Value{State: Computed, ValueID: id}
	b := &Value{State: Computed, ValueID: id}
	c := &Value{State: Computed, ValueID: uuid.New()}

	assert.True(t, SameIdentity(a, a))
	assert.True(t, SameIdentity(a, b))
	assert.False(t, SameIdentity(a, c))
	assert.False(t, SameIdentity(nil, a))

	// Values without a token only match by pointer.
	d := &Value{State: NotComputed}
	e := &Value{State: NotComputed}
	assert.True(t, SameIdentity(d, d))
	assert.False(t, SameIdentity(d, e))
}

func TestID(t *testing.T) {
	seedOp := newOp(t, "make_seed", "Seed")
	styleOp := newOp(t, "plain_style", "Style")
	incOp := newOp(t, "increment", "Value", operator.Param{Name: "seed", Type: "Seed"})
	descOp := newOp(t, "describe", "Description",
		operator.Param{Name: "value", Type: "Value"},
		operator.Param{Name: "style", Type: "Style"},
	)

	seed := New(seedOp, nil)
	style := New(styleOp, nil)
	inc := New(incOp, []ParamBinding{{Name: "seed", Expr: seed}})
	desc := New(descOp, []ParamBinding{
		{Name: "value", Expr: inc},
		{Name: "style", Expr: style},
	})

	t.Run("prefix notation", func(t *testing.T) {
		assert.Equal(t, "make_seed", seed.ID(nil))
		assert.Equal(t, "make_seed:increment", inc.ID(nil))
		assert.Equal(t, "make_seed:increment:describe(style=plain_style)", desc.ID(nil))
	})

	t.Run("hidden operators are elided", func(t *testing.T) {
		hidden := Hidden{"plain_style": true}
		assert.Equal(t, "make_seed:increment:describe", desc.ID(hidden))
	})

	t.Run("value tags are appended", func(t *testing.T) {
		tagged, err := operator.New(operator.Spec{
			Name:     "make_seed_tagged",
			Produces: "Seed",
			Call:     func(args operator.Args) (any, error) { return nil, nil },
		}, operator.Options{
			Tags: func(v any) map[string]string {
				return map[string]string{"": fmt.Sprint(v)}
			},
		})
		require.NoError(t, err)

		x := New(tagged, nil)
		v := computedValue(x, 5)
		assert.Equal(t, "make_seed_tagged[5]", v.ID(nil))
	})
}
