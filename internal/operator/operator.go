package operator

import (
	"fmt"

	"github.com/google/uuid"
)

// Type identifies a produced or required value type in the operator pool.
// Types are declared explicitly at registration; the engine never inspects
// Go types to resolve dependencies.
type Type string

const (
	// ConsumerType is produced by the synthetic operator that resolves to
	// the operator currently consuming the value.
	ConsumerType Type = "exprgrid.Consumer"

	// RunDataType is produced by the synthetic operator that resolves to the
	// mutable per-run data map shared by every expression in a run.
	RunDataType Type = "exprgrid.RunData"
)

// Kind discriminates how an operator produces its values.
type Kind int

const (
	// KindFunc invokes a registered producer function.
	KindFunc Kind = iota
	// KindPrebuilt replays a fixed list of externally supplied values.
	KindPrebuilt
	// KindConsumer resolves to the consuming operator; never invoked.
	KindConsumer
	// KindRunData resolves to the per-run data map; never invoked.
	KindRunData
)

// Param describes one declared parameter of an operator.
type Param struct {
	Name string
	Type Type

	// Optional parameters have a usable default inside the producer, so the
	// absence of any producer for their type is not fatal.
	Optional bool

	// Ignored parameters take no part in type resolution at all.
	Ignored bool
}

// Args carries resolved parameter values into a producer invocation.
type Args map[string]any

// SingleFunc is the entry point of a single-valued operator.
type SingleFunc func(args Args) (any, error)

// PullFunc produces the values of a multi-valued operator one at a time.
// ok reports whether a value was produced; false ends the sequence.
type PullFunc func() (value any, err error, ok bool)

// MultiFunc is the entry point of a multi-valued operator. It is called once
// per invocation and returns a pull function consumed lazily by the engine.
type MultiFunc func(args Args) PullFunc

// TagsFunc derives descriptive tags for a produced value, used only when
// formatting identifiers.
type TagsFunc func(value any) map[string]string

// Spec declares an operator for registration. New validates it and derives
// the immutable Operator the rest of the engine works with.
type Spec struct {
	Name     string
	Produces Type

	// ActualProduces optionally narrows Produces to the more specific type a
	// factory-style producer is known to always return. When set, it
	// replaces Produces as the operator's produced type, letting a single
	// producer satisfy several declared goal types in a hierarchy.
	ActualProduces Type

	Params []Param

	// MultiValued operators may lazily emit zero, one or many values per
	// invocation and must set CallMulti; single-valued operators emit
	// exactly one and must set Call.
	MultiValued bool

	// MethodLike marks the first parameter as an implicit receiver. Graph
	// building then only considers receiver types listed in Receivers.
	MethodLike bool

	// Receivers lists the types on which this method-like operator is
	// declared (including types that inherit it). Defaults to the declared
	// type of the first parameter.
	Receivers []Type

	// SrcLoc optionally records where the producer is defined, for export.
	SrcLoc string

	Call      SingleFunc
	CallMulti MultiFunc
}

// Options carries caller-supplied policy applied while deriving an Operator.
type Options struct {
	// NonReusable lists produced types whose values must never be cached or
	// shared between consumers.
	NonReusable map[Type]bool

	// Tags is attached to the operator for identifier formatting.
	Tags TagsFunc
}

// Operator is a registered producer with its resolved contract. It is
// immutable after construction; identity is the ID token.
type Operator struct {
	id          uuid.UUID
	name        string
	kind        Kind
	produces    Type
	params      []Param
	reusable    bool
	multiValued bool
	methodLike  bool
	receivers   []Type
	srcLoc      string

	call      SingleFunc
	callMulti MultiFunc
	tags      TagsFunc

	// prebuilt payload
	values   []any
	valueIDs []uuid.UUID
}

// New derives an Operator from a Spec, failing with *AnnotationError when the
// declared contract is incomplete.
func New(spec Spec, opts Options) (*Operator, error) {
	if spec.Name == "" {
		return nil, &AnnotationError{Op: "(unnamed)", Reason: "operator has no name"}
	}
	produces := spec.Produces
	if spec.ActualProduces != "" {
		produces = spec.ActualProduces
	}
	if produces == "" {
		return nil, &AnnotationError{Op: spec.Name, Reason: "missing produced type declaration"}
	}

	for _, p := range spec.Params {
		if p.Ignored {
			continue
		}
		if p.Type == "" {
			return nil, &AnnotationError{Op: spec.Name, Param: p.Name, Reason: "missing type declaration"}
		}
	}

	if spec.MultiValued {
		if spec.CallMulti == nil {
			return nil, &AnnotationError{Op: spec.Name, Reason: "multi-valued operator has no CallMulti entry point"}
		}
	} else if spec.Call == nil {
		return nil, &AnnotationError{Op: spec.Name, Reason: "operator has no Call entry point"}
	}

	receivers := spec.Receivers
	if spec.MethodLike {
		if len(spec.Params) == 0 {
			return nil, &AnnotationError{Op: spec.Name, Reason: "method-like operator has no receiver parameter"}
		}
		if len(receivers) == 0 {
			receivers = []Type{spec.Params[0].Type}
		}
	}

	return &Operator{
		id:          uuid.New(),
		name:        spec.Name,
		kind:        KindFunc,
		produces:    produces,
		params:      append([]Param(nil), spec.Params...),
		reusable:    !opts.NonReusable[produces],
		multiValued: spec.MultiValued,
		methodLike:  spec.MethodLike,
		receivers:   receivers,
		srcLoc:      spec.SrcLoc,
		call:        spec.Call,
		callMulti:   spec.CallMulti,
		tags:        opts.Tags,
	}, nil
}

// NewConsumer returns the synthetic operator resolving to whichever operator
// is consuming the value. Always non-reusable; handled by the engine as an
// injection point, never invoked.
func NewConsumer() *Operator {
	return &Operator{
		id:       uuid.New(),
		name:     "consumer",
		kind:     KindConsumer,
		produces: ConsumerType,
		reusable: false,
	}
}

// NewRunData returns the synthetic operator resolving to the per-run mutable
// data map. Always non-reusable; handled by the engine as an injection point.
func NewRunData() *Operator {
	return &Operator{
		id:       uuid.New(),
		name:     "rundata",
		kind:     KindRunData,
		produces: RunDataType,
		reusable: false,
	}
}

// ID returns the operator's identity token.
func (o *Operator) ID() uuid.UUID { return o.id }

// Name returns the registered name.
func (o *Operator) Name() string { return o.name }

// Kind reports how the operator produces values.
func (o *Operator) Kind() Kind { return o.kind }

// Produces returns the produced type, after any factory narrowing.
func (o *Operator) Produces() Type { return o.produces }

// Params returns the declared parameters in order.
func (o *Operator) Params() []Param { return o.params }

// ResolutionParams returns the parameters that take part in type resolution.
func (o *Operator) ResolutionParams() []Param {
	out := make([]Param, 0, len(o.params))
	for _, p := range o.params {
		if !p.Ignored {
			out = append(out, p)
		}
	}
	return out
}

// Reusable reports whether produced values may be cached and shared.
func (o *Operator) Reusable() bool { return o.reusable }

// MultiValued reports whether one invocation may emit more than one value.
func (o *Operator) MultiValued() bool { return o.multiValued }

// MethodLike reports whether the first parameter is an implicit receiver.
func (o *Operator) MethodLike() bool { return o.methodLike }

// OwnsMethod reports whether receiver type t declares (or inherits) this
// method-like operator.
func (o *Operator) OwnsMethod(t Type) bool {
	for _, r := range o.receivers {
		if r == t {
			return true
		}
	}
	return false
}

// SrcLoc returns the recorded source location, if any.
func (o *Operator) SrcLoc() string { return o.srcLoc }

// Tags derives display tags for a produced value.
func (o *Operator) Tags(value any) map[string]string {
	if o.tags == nil {
		return nil
	}
	return o.tags(value)
}

func (o *Operator) String() string {
	return fmt.Sprintf("operator %s -> %s", o.name, o.produces)
}
