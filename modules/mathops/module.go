// Package mathops is a small demonstration module: it derives values from
// integer seeds and renders them as descriptions. Seeds are expected to come
// from a `prebuilt` block or a reloaded value store.
package mathops

import (
	"fmt"

	"github.com/vk/exprgrid/internal/operator"
	"github.com/vk/exprgrid/internal/registry"
)

// Type names produced by this module.
const (
	TypeSeed        operator.Type = "mathops.Seed"
	TypeValue       operator.Type = "mathops.Value"
	TypeDescription operator.Type = "mathops.Description"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Increment derives a value from a seed.
func Increment(args operator.Args) (any, error) {
	seed, err := asInt(args["seed"])
	if err != nil {
		return nil, fmt.Errorf("increment: %w", err)
	}
	return seed + 1, nil
}

// Describe renders a derived value as text. The optional prefix defaults when
// no producer for it exists.
func Describe(args operator.Args) (any, error) {
	value, err := asInt(args["value"])
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	prefix := "value"
	if p, ok := args["prefix"].(string); ok {
		prefix = p
	}
	return fmt.Sprintf("%s: %d", prefix, value), nil
}

// asInt tolerates the numeric shapes configuration loaders produce.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

// Register declares the module's operators.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(operator.Spec{
		Name:     "increment",
		Produces: TypeValue,
		Params: []operator.Param{
			{Name: "seed", Type: TypeSeed},
		},
		SrcLoc: "modules/mathops/module.go",
		Call:   Increment,
	})
	r.RegisterOperator(operator.Spec{
		Name:     "describe",
		Produces: TypeDescription,
		Params: []operator.Param{
			{Name: "value", Type: TypeValue},
			{Name: "prefix", Type: "mathops.Prefix", Optional: true},
		},
		SrcLoc: "modules/mathops/module.go",
		Call:   Describe,
	})
}
