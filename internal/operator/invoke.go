package operator

import (
	"fmt"

	"github.com/google/uuid"
)

// Emission is one captured outcome of an operator invocation. Exactly one of
// the value and failure arms is populated; an emission with neither means the
// producer yielded nothing and downstream code should observe "not computed".
type Emission struct {
	HasValue bool
	Value    any
	ValueID  uuid.UUID

	Err   error
	ErrID uuid.UUID
}

// EmitFunc pulls captured emissions one at a time; false ends the sequence.
type EmitFunc func() (Emission, bool)

// Invoke runs the operator with the resolved arguments and returns a lazy
// stream of captured emissions. This is the only place a producer is ever
// called: returned errors and recovered panics become the failure arm of an
// emission and never cross the engine boundary as faults. The stream always
// yields at least one emission, even for a producer that emits nothing.
func (o *Operator) Invoke(args Args) EmitFunc {
	switch o.kind {
	case KindPrebuilt:
		i := 0
		return func() (Emission, bool) {
			if i >= len(o.values) {
				return Emission{}, false
			}
			em := Emission{HasValue: true, Value: o.values[i], ValueID: o.valueIDs[i]}
			i++
			return em, true
		}

	case KindConsumer, KindRunData:
		// Synthetic operators are resolved by the engine, not invoked.
		done := false
		return func() (Emission, bool) {
			if done {
				return Emission{}, false
			}
			done = true
			return Emission{
				Err:   fmt.Errorf("synthetic operator %q cannot be invoked directly", o.name),
				ErrID: uuid.New(),
			}, true
		}

	case KindFunc:
		if o.multiValued {
			return o.invokeMulti(args)
		}
		return o.invokeSingle(args)

	default:
		done := false
		return func() (Emission, bool) {
			if done {
				return Emission{}, false
			}
			done = true
			return Emission{
				Err:   fmt.Errorf("operator %q has unknown kind %d", o.name, o.kind),
				ErrID: uuid.New(),
			}, true
		}
	}
}

func (o *Operator) invokeSingle(args Args) EmitFunc {
	done := false
	return func() (Emission, bool) {
		if done {
			return Emission{}, false
		}
		done = true

		value, err := capture(func() (any, error) { return o.call(args) })
		if err != nil {
			return Emission{Err: err, ErrID: uuid.New()}, true
		}
		return Emission{HasValue: true, Value: value, ValueID: uuid.New()}, true
	}
}

func (o *Operator) invokeMulti(args Args) EmitFunc {
	var (
		pull    PullFunc
		yielded bool
		done    bool
	)
	return func() (Emission, bool) {
		if done {
			return Emission{}, false
		}

		if pull == nil {
			_, err := capture(func() (any, error) {
				pull = o.callMulti(args)
				return nil, nil
			})
			if err != nil || pull == nil {
				done = true
				if err == nil {
					err = fmt.Errorf("operator %q returned a nil pull function", o.name)
				}
				return Emission{Err: err, ErrID: uuid.New()}, true
			}
		}

		var (
			value any
			ok    bool
		)
		_, err := capture(func() (any, error) {
			var pullErr error
			value, pullErr, ok = pull()
			return nil, pullErr
		})
		if err != nil {
			// A fault ends the sequence: the failed emission is the last one.
			done = true
			return Emission{Err: err, ErrID: uuid.New()}, true
		}
		if !ok {
			done = true
			if !yielded {
				// A producer that emits nothing still surfaces one empty
				// emission so observers never see an ambiguous empty set.
				return Emission{}, true
			}
			return Emission{}, false
		}

		yielded = true
		return Emission{HasValue: true, Value: value, ValueID: uuid.New()}, true
	}
}

// capture runs fn and converts a panic into an ordinary error.
func capture(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("producer panicked: %w", rerr)
			} else {
				err = fmt.Errorf("producer panicked: %v", r)
			}
		}
	}()
	return fn()
}
