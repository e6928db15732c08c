// Package adaptor defines the customization surface between the generic
// expression engine and a concrete domain: which types are non-reusable, how
// the operator pool is filtered, which prebuilt values seed a run, and how
// results are presented.
package adaptor

import (
	"fmt"
	"strings"

	"github.com/vk/exprgrid/internal/builder"
	"github.com/vk/exprgrid/internal/expr"
	"github.com/vk/exprgrid/internal/operator"
	"github.com/vk/exprgrid/internal/store"
)

// Adaptor customizes a run. Implementations embed Base and override the hooks
// they care about.
type Adaptor interface {
	// Name identifies the adaptor in configuration and logs.
	Name() string

	// NonReusableTypes lists produced types whose values must be recomputed
	// for every consumer instead of being cached and shared.
	NonReusableTypes() map[operator.Type]bool

	// Tags derives display tags attached to value identifiers.
	Tags(value any) map[string]string

	// UpdateRunData seeds the per-run data map before execution starts.
	UpdateRunData(data map[string]any)

	// FilterPool restricts the operator pool before graph building.
	FilterPool(pool builder.Pool) builder.Pool

	// PrebuiltOperators returns extra operators wrapping already available
	// values, merged into the pool after filtering.
	PrebuiltOperators() ([]*operator.Operator, error)

	// HiddenOperators selects operators elided from value identifiers.
	HiddenOperators() expr.Hidden

	// FormatResult renders one value for display.
	FormatResult(v *expr.Value) string

	// LoadStore reopens a persisted value store, typically to seed prebuilt
	// operators from a previous run.
	LoadStore(path string) (*store.Store, error)
}

// Base provides the default behavior for every hook.
type Base struct{}

func (Base) Name() string { return "default" }

func (Base) NonReusableTypes() map[operator.Type]bool { return nil }

// Tags labels plain numbers with their value and everything else with
// nothing.
func (Base) Tags(value any) map[string]string {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return map[string]string{"": fmt.Sprint(value)}
	}
	return nil
}

func (Base) UpdateRunData(data map[string]any) {}

// FilterPool keeps only operators that take at least one parameter; sources
// of constants are expected to be registered as prebuilt values instead.
func (Base) FilterPool(pool builder.Pool) builder.Pool {
	out := make(builder.Pool, len(pool))
	for t, ops := range pool {
		var kept []*operator.Operator
		for _, op := range ops {
			if op.Kind() == operator.KindPrebuilt || len(op.ResolutionParams()) > 0 {
				kept = append(kept, op)
			}
		}
		if len(kept) > 0 {
			out[t] = kept
		}
	}
	return out
}

func (Base) PrebuiltOperators() ([]*operator.Operator, error) { return nil, nil }

func (Base) HiddenOperators() expr.Hidden { return nil }

// FormatResult renders the computed value, or the first failure found in the
// value's ancestry when nothing was computed.
func (Base) FormatResult(v *expr.Value) string {
	if v.HasValue() && v.V != nil {
		return fmt.Sprint(v.V)
	}
	for _, failed := range v.FailedAncestry() {
		return fmt.Sprintf("EXCEPTION (%T): %v", failed.Err, failed.Err)
	}
	return "No result computed"
}

func (Base) LoadStore(path string) (*store.Store, error) {
	return store.Load(path)
}

// KeepAllPool is a FilterPool helper returning the pool unchanged, for
// adaptors that register parameterless producers on purpose.
func KeepAllPool(pool builder.Pool) builder.Pool { return pool }

// FormatResults renders one line per value, identifiers left-aligned to the
// widest one.
func FormatResults(a Adaptor, values []*expr.Value) string {
	hidden := a.HiddenOperators()
	ids := make([]string, len(values))
	width := 0
	for i, v := range values {
		ids[i] = v.ID(hidden)
		if len(ids[i]) > width {
			width = len(ids[i])
		}
	}

	var b strings.Builder
	for i, v := range values {
		fmt.Fprintf(&b, "%-*s %s\n", width, ids[i], a.FormatResult(v))
	}
	return b.String()
}
