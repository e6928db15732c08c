package operator

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("derives operator from a valid spec", func(t *testing.T) {
		op, err := New(Spec{
			Name:     "make_report",
			Produces: "Report",
			Params: []Param{
				{Name: "input", Type: "Input"},
				{Name: "opts", Type: "Opts", Optional: true},
			},
			Call: func(args Args) (any, error) { return nil, nil },
		}, Options{})
		require.NoError(t, err)

		assert.Equal(t, "make_report", op.Name())
		assert.Equal(t, Type("Report"), op.Produces())
		assert.Equal(t, KindFunc, op.Kind())
		assert.True(t, op.Reusable())
		assert.Len(t, op.Params(), 2)
	})

	t.Run("rejects missing type declarations", func(t *testing.T) {
		_, err := New(Spec{
			Name:     "broken",
			Produces: "Report",
			Params:   []Param{{Name: "input"}},
			Call:     func(args Args) (any, error) { return nil, nil },
		}, Options{})

		var annErr *AnnotationError
		require.ErrorAs(t, err, &annErr)
		assert.Equal(t, "broken", annErr.Op)
		assert.Equal(t, "input", annErr.Param)
	})

	t.Run("rejects missing produced type", func(t *testing.T) {
		_, err := New(Spec{
			Name: "broken",
			Call: func(args Args) (any, error) { return nil, nil },
		}, Options{})

		var annErr *AnnotationError
		require.ErrorAs(t, err, &annErr)
	})

	t.Run("rejects missing entry point", func(t *testing.T) {
		_, err := New(Spec{Name: "broken", Produces: "Report"}, Options{})
		require.Error(t, err)

		_, err = New(Spec{Name: "broken", Produces: "Report", MultiValued: true}, Options{})
		require.Error(t, err)
	})

	t.Run("ignored params need no type", func(t *testing.T) {
		op, err := New(Spec{
			Name:     "with_ignored",
			Produces: "Report",
			Params: []Param{
				{Name: "input", Type: "Input"},
				{Name: "debug", Ignored: true},
			},
			Call: func(args Args) (any, error) { return nil, nil },
		}, Options{})
		require.NoError(t, err)

		assert.Len(t, op.Params(), 2)
		assert.Len(t, op.ResolutionParams(), 1)
		assert.Equal(t, "input", op.ResolutionParams()[0].Name)
	})

	t.Run("factory narrowing replaces the produced type", func(t *testing.T) {
		op, err := New(Spec{
			Name:           "make_special",
			Produces:       "Base",
			ActualProduces: "Special",
			Call:           func(args Args) (any, error) { return nil, nil },
		}, Options{})
		require.NoError(t, err)
		assert.Equal(t, Type("Special"), op.Produces())
	})

	t.Run("non-reusable declaration applies to the produced type", func(t *testing.T) {
		op, err := New(Spec{
			Name:     "fresh",
			Produces: "Conn",
			Call:     func(args Args) (any, error) { return nil, nil },
		}, Options{NonReusable: map[Type]bool{"Conn": true}})
		require.NoError(t, err)
		assert.False(t, op.Reusable())
	})
}

func TestMethodLike(t *testing.T) {
	op, err := New(Spec{
		Name:       "measure",
		Produces:   "Measurement",
		MethodLike: true,
		Params: []Param{
			{Name: "self", Type: "Board"},
		},
		Receivers: []Type{"Board", "DevBoard"},
		Call:      func(args Args) (any, error) { return nil, nil },
	}, Options{})
	require.NoError(t, err)

	assert.True(t, op.MethodLike())
	assert.True(t, op.OwnsMethod("Board"))
	assert.True(t, op.OwnsMethod("DevBoard"))
	assert.False(t, op.OwnsMethod("Simulator"))
}

func TestNewPrebuilt(t *testing.T) {
	t.Run("single value stays single-valued", func(t *testing.T) {
		op := NewPrebuilt(PrebuiltSpec{Produces: "Seed", Values: []any{5}}, Options{})
		assert.Equal(t, KindPrebuilt, op.Kind())
		assert.False(t, op.MultiValued())
		assert.Equal(t, "Seed", op.Name())
	})

	t.Run("multiple values behave as multi-valued", func(t *testing.T) {
		op := NewPrebuilt(PrebuiltSpec{Name: "seeds", Produces: "Seed", Values: []any{5, 7}}, Options{})
		assert.True(t, op.MultiValued())
	})

	t.Run("pinned identity tokens survive", func(t *testing.T) {
		pinned := uuid.New()
		op := NewPrebuilt(PrebuiltSpec{
			Produces: "Seed",
			Values:   []any{5, 7},
			ValueIDs: []uuid.UUID{pinned},
		}, Options{})

		_, ids := op.PrebuiltValues()
		require.Len(t, ids, 2)
		assert.Equal(t, pinned, ids[0])
		assert.NotEqual(t, uuid.Nil, ids[1])
	})
}

func drainEmissions(emit EmitFunc) []Emission {
	var out []Emission
	for {
		em, ok := emit()
		if !ok {
			return out
		}
		out = append(out, em)
	}
}

func TestInvoke(t *testing.T) {
	t.Run("single value", func(t *testing.T) {
		op, err := New(Spec{
			Name:     "answer",
			Produces: "Int",
			Call:     func(args Args) (any, error) { return 42, nil },
		}, Options{})
		require.NoError(t, err)

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 1)
		assert.True(t, ems[0].HasValue)
		assert.Equal(t, 42, ems[0].Value)
		assert.NotEqual(t, uuid.Nil, ems[0].ValueID)
	})

	t.Run("returned error becomes the failure arm", func(t *testing.T) {
		op, err := New(Spec{
			Name:     "boom",
			Produces: "Int",
			Call:     func(args Args) (any, error) { return nil, errors.New("boom") },
		}, Options{})
		require.NoError(t, err)

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 1)
		assert.False(t, ems[0].HasValue)
		assert.ErrorContains(t, ems[0].Err, "boom")
		assert.NotEqual(t, uuid.Nil, ems[0].ErrID)
	})

	t.Run("panic is captured as an error", func(t *testing.T) {
		op, err := New(Spec{
			Name:     "panics",
			Produces: "Int",
			Call:     func(args Args) (any, error) { panic("unexpected input") },
		}, Options{})
		require.NoError(t, err)

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 1)
		assert.ErrorContains(t, ems[0].Err, "unexpected input")
	})

	t.Run("multi-valued producer emits lazily", func(t *testing.T) {
		op, err := New(Spec{
			Name:        "count",
			Produces:    "Int",
			MultiValued: true,
			CallMulti: func(args Args) PullFunc {
				i := 0
				return func() (any, error, bool) {
					if i >= 3 {
						return nil, nil, false
					}
					i++
					return i, nil, true
				}
			},
		}, Options{})
		require.NoError(t, err)

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 3)
		assert.Equal(t, 1, ems[0].Value)
		assert.Equal(t, 3, ems[2].Value)
	})

	t.Run("empty multi-valued producer surfaces one empty emission", func(t *testing.T) {
		op, err := New(Spec{
			Name:        "empty",
			Produces:    "Int",
			MultiValued: true,
			CallMulti: func(args Args) PullFunc {
				return func() (any, error, bool) { return nil, nil, false }
			},
		}, Options{})
		require.NoError(t, err)

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 1)
		assert.False(t, ems[0].HasValue)
		assert.NoError(t, ems[0].Err)
	})

	t.Run("fault mid-sequence ends the sequence", func(t *testing.T) {
		op, err := New(Spec{
			Name:        "flaky",
			Produces:    "Int",
			MultiValued: true,
			CallMulti: func(args Args) PullFunc {
				i := 0
				return func() (any, error, bool) {
					i++
					if i == 2 {
						return nil, errors.New("lost midway"), false
					}
					return i, nil, true
				}
			},
		}, Options{})
		require.NoError(t, err)

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 2)
		assert.Equal(t, 1, ems[0].Value)
		assert.ErrorContains(t, ems[1].Err, "lost midway")
	})

	t.Run("prebuilt replays its values with pinned identity", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		op := NewPrebuilt(PrebuiltSpec{Produces: "Seed", Values: []any{5, 7}, ValueIDs: ids}, Options{})

		ems := drainEmissions(op.Invoke(nil))
		require.Len(t, ems, 2)
		assert.Equal(t, 5, ems[0].Value)
		assert.Equal(t, ids[0], ems[0].ValueID)
		assert.Equal(t, 7, ems[1].Value)
		assert.Equal(t, ids[1], ems[1].ValueID)
	})

	t.Run("synthetic operators refuse direct invocation", func(t *testing.T) {
		ems := drainEmissions(NewConsumer().Invoke(nil))
		require.Len(t, ems, 1)
		assert.Error(t, ems[0].Err)
	})
}
