package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/exprgrid/internal/adaptor"
	"github.com/vk/exprgrid/internal/builder"
	"github.com/vk/exprgrid/internal/ctxlog"
	"github.com/vk/exprgrid/internal/operator"
)

// Module is the interface all operator modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry collects operator declarations before a run. Declarations are kept
// as specs and only turned into operators at Build time, so one registry can
// be built against different adaptors.
type Registry struct {
	specs     []operator.Spec
	specNames map[string]bool
	prebuilts []operator.PrebuiltSpec
	compat    map[operator.Type][]operator.Type
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		specNames: make(map[string]bool),
		compat:    make(map[operator.Type][]operator.Type),
	}
}

// RegisterOperator declares a producer. Registering two operators with the
// same name is a programming error.
func (r *Registry) RegisterOperator(spec operator.Spec) {
	if spec.Name != "" && r.specNames[spec.Name] {
		panic(fmt.Sprintf("operator with name '%s' already registered", spec.Name))
	}
	r.specNames[spec.Name] = true
	r.specs = append(r.specs, spec)
}

// RegisterPrebuilt declares a fixed list of already available values.
func (r *Registry) RegisterPrebuilt(spec operator.PrebuiltSpec) {
	r.prebuilts = append(r.prebuilts, spec)
}

// DeclareCompat declares that parameters of the declared type also accept
// values of the given produced types. Every type is always compatible with
// itself; this only adds the extra edges.
func (r *Registry) DeclareCompat(declared operator.Type, produced ...operator.Type) {
	r.compat[declared] = append(r.compat[declared], produced...)
}

// Build derives the operator pool and compatibility map for a run. All
// declaration errors are aggregated rather than stopping at the first, so a
// module author sees every broken spec at once. The adaptor filters the pool
// before prebuilt operators are merged in, so externally supplied values are
// never filtered away.
func (r *Registry) Build(ctx context.Context, a adaptor.Adaptor) (builder.Pool, builder.CompatMap, error) {
	logger := ctxlog.FromContext(ctx)

	opts := operator.Options{
		NonReusable: a.NonReusableTypes(),
		Tags:        a.Tags,
	}

	var errs *multierror.Error
	pool := make(builder.Pool)
	for _, spec := range r.specs {
		op, err := operator.New(spec, opts)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		pool[op.Produces()] = append(pool[op.Produces()], op)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, nil, fmt.Errorf("building operator pool: %w", err)
	}

	pool = a.FilterPool(pool)

	for _, spec := range r.prebuilts {
		op := operator.NewPrebuilt(spec, opts)
		pool[op.Produces()] = append(pool[op.Produces()], op)
	}
	extra, err := a.PrebuiltOperators()
	if err != nil {
		return nil, nil, fmt.Errorf("loading adaptor prebuilt operators: %w", err)
	}
	for _, op := range extra {
		pool[op.Produces()] = append(pool[op.Produces()], op)
	}

	compat := r.buildCompat(pool)
	logger.Debug("Built operator pool.", "adaptor", a.Name(), "types", len(pool))
	return pool, compat, nil
}

// buildCompat maps every type mentioned by the pool to itself plus any
// declared compatible produced types.
func (r *Registry) buildCompat(pool builder.Pool) builder.CompatMap {
	compat := make(builder.CompatMap)
	add := func(t operator.Type) {
		if _, ok := compat[t]; !ok {
			compat[t] = []operator.Type{t}
		}
	}
	for t, ops := range pool {
		add(t)
		for _, op := range ops {
			for _, p := range op.ResolutionParams() {
				add(p.Type)
			}
		}
	}
	for declared, produced := range r.compat {
		add(declared)
		for _, t := range produced {
			if t == declared {
				continue
			}
			compat[declared] = append(compat[declared], t)
		}
	}
	return compat
}

// Goals resolves the producers of each named goal type.
func Goals(pool builder.Pool, goals []operator.Type) ([]*operator.Operator, error) {
	var out []*operator.Operator
	for _, g := range goals {
		ops, err := builder.GoalOperators(pool, g)
		if err != nil {
			return nil, err
		}
		out = append(out, ops...)
	}
	return out, nil
}
