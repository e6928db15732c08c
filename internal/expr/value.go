package expr

import (
	"github.com/google/uuid"

	"github.com/vk/exprgrid/internal/operator"
)

// State classifies the outcome carried by a Value. It is a dedicated
// three-state sum rather than a nullable value, because "not computed due to
// an upstream failure" must stay distinguishable from "computed as empty".
type State int

const (
	// NotComputed means the operator was never invoked for this binding,
	// either because an upstream dependency failed or because a multi-valued
	// producer emitted nothing.
	NotComputed State = iota

	// Computed means V holds the produced value.
	Computed

	// Failed means Err holds the fault captured while invoking the operator.
	Failed
)

// Value is one produced result of an Expression. Immutable after creation.
type Value struct {
	Expr  *Expression
	State State

	V   any
	Err error

	// ValueID and ErrID are stable identity tokens, preserved across
	// serialization round trips so re-derivation is idempotent.
	ValueID uuid.UUID
	ErrID   uuid.UUID

	// Params maps parameter names to the values actually used to compute
	// this one.
	Params map[string]*Value
}

// NewValue builds a Value from a captured emission.
func NewValue(x *Expression, params map[string]*Value, em operator.Emission) *Value {
	v := &Value{Expr: x, Params: params}
	switch {
	case em.Err != nil:
		v.State = Failed
		v.Err = em.Err
		v.ErrID = em.ErrID
	case em.HasValue:
		v.State = Computed
		v.V = em.Value
		v.ValueID = em.ValueID
	default:
		v.State = NotComputed
	}
	return v
}

// NewNotComputed builds the short-circuit Value recorded when the operator
// was not invoked because a dependency could not be resolved.
func NewNotComputed(x *Expression, params map[string]*Value) *Value {
	return &Value{Expr: x, State: NotComputed, Params: params}
}

// HasValue reports whether the value arm is populated.
func (v *Value) HasValue() bool { return v.State == Computed }

// Walk visits v and, depth-first, every parameter value it was computed
// from. Returning false from fn stops the walk.
func (v *Value) Walk(fn func(val *Value) bool) {
	v.walk(fn)
}

func (v *Value) walk(fn func(val *Value) bool) bool {
	if !fn(v) {
		return false
	}
	for _, pv := range v.Params {
		if !pv.walk(fn) {
			return false
		}
	}
	return true
}

// FailedAncestry returns every value in v's ancestry (v included) whose
// failure arm is set.
func (v *Value) FailedAncestry() []*Value {
	var out []*Value
	v.Walk(func(val *Value) bool {
		if val.State == Failed {
			out = append(out, val)
		}
		return true
	})
	return out
}

// AncestorValues maps every expression in v's ancestry to the value it
// resolved to along this particular computation path.
func (v *Value) AncestorValues() map[*Expression]*Value {
	m := make(map[*Expression]*Value)
	v.Walk(func(val *Value) bool {
		m[val.Expr] = val
		return true
	})
	return m
}

// SameIdentity reports whether two values are the same produced result,
// either by pointer or by matching identity token.
func SameIdentity(a, b *Value) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.ValueID != uuid.Nil && a.ValueID == b.ValueID
}
