package operator

import "github.com/google/uuid"

// PrebuiltSpec declares an operator that replays a fixed list of already
// available values instead of invoking a producer.
type PrebuiltSpec struct {
	Name     string
	Produces Type
	Values   []any

	// ValueIDs optionally pins the identity token of each value, so values
	// reloaded from a persisted store keep the identity they were saved
	// with. When shorter than Values, missing entries get fresh tokens.
	ValueIDs []uuid.UUID
}

// NewPrebuilt wraps a fixed value list as an operator. It behaves as
// multi-valued exactly when more than one value is supplied.
func NewPrebuilt(spec PrebuiltSpec, opts Options) *Operator {
	ids := make([]uuid.UUID, len(spec.Values))
	for i := range spec.Values {
		if i < len(spec.ValueIDs) && spec.ValueIDs[i] != uuid.Nil {
			ids[i] = spec.ValueIDs[i]
		} else {
			ids[i] = uuid.New()
		}
	}

	name := spec.Name
	if name == "" {
		name = string(spec.Produces)
	}

	return &Operator{
		id:          uuid.New(),
		name:        name,
		kind:        KindPrebuilt,
		produces:    spec.Produces,
		reusable:    !opts.NonReusable[spec.Produces],
		multiValued: len(spec.Values) > 1,
		tags:        opts.Tags,
		values:      append([]any(nil), spec.Values...),
		valueIDs:    ids,
	}
}

// PrebuiltValues returns the wrapped values and their identity tokens.
// It returns nils for non-prebuilt operators.
func (o *Operator) PrebuiltValues() ([]any, []uuid.UUID) {
	if o.kind != KindPrebuilt {
		return nil, nil
	}
	return o.values, o.valueIDs
}
