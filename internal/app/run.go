package app

import (
	"context"
	"fmt"

	"github.com/vk/exprgrid/internal/adaptor"
	"github.com/vk/exprgrid/internal/builder"
	"github.com/vk/exprgrid/internal/config"
	"github.com/vk/exprgrid/internal/ctxlog"
	"github.com/vk/exprgrid/internal/engine"
	"github.com/vk/exprgrid/internal/export"
	"github.com/vk/exprgrid/internal/expr"
	"github.com/vk/exprgrid/internal/operator"
	"github.com/vk/exprgrid/internal/registry"
	"github.com/vk/exprgrid/internal/store"
)

// Run executes every configured run: build the expressions for its goals,
// evaluate them, print the results, and finally persist the values when a
// store path is configured.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	pool, compat, err := a.registry.Build(ctx, a.adaptor)
	if err != nil {
		return fmt.Errorf("failed to build operator pool: %w", err)
	}

	if len(a.config.Runs) == 0 {
		a.logger.Warn("No runs configured, nothing to execute.")
		return nil
	}

	var allRoots [][]*expr.Value
	for _, run := range a.config.Runs {
		roots, err := a.runOne(ctx, run, pool, compat, appConfig.Describe)
		if err != nil {
			return fmt.Errorf("run '%s': %w", run.Name, err)
		}
		allRoots = append(allRoots, roots...)
	}

	if a.config.StorePath != "" && !appConfig.Describe {
		snap := store.Snapshot(allRoots, a.adaptor.HiddenOperators())
		if err := snap.Save(a.config.StorePath); err != nil {
			return fmt.Errorf("saving value store: %w", err)
		}
		a.logger.Info("Value store saved.", "path", a.config.StorePath)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// runOne builds and executes one configured run, returning the root values of
// each executed expression.
func (a *App) runOne(ctx context.Context, run *config.Run, pool builder.Pool, compat builder.CompatMap, describe bool) ([][]*expr.Value, error) {
	logger := ctxlog.FromContext(ctx)

	opts, err := a.buildOptions(ctx, run)
	if err != nil {
		return nil, err
	}

	goals := make([]operator.Type, len(run.Goals))
	for i, g := range run.Goals {
		goals[i] = operator.Type(g)
	}
	goalOps, err := registry.Goals(pool, goals)
	if err != nil {
		return nil, err
	}

	exprs, err := builder.BuildAll(ctx, goalOps, pool, compat, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Expressions built.", "run", run.Name, "count", len(exprs))

	hidden := a.adaptor.HiddenOperators()
	if describe {
		for _, x := range exprs {
			fmt.Fprintln(a.outW, x.ID(hidden))
			fmt.Fprint(a.outW, export.RenderTree(x))
		}
		return nil, nil
	}

	for _, x := range exprs {
		for k, v := range run.Data {
			x.Data[k] = v
		}
		a.adaptor.UpdateRunData(x.Data)
	}

	eng := engine.New(engine.Options{
		OnValue: func(v *expr.Value, reused bool) {
			if v.State == expr.Failed {
				logger.Warn("Operator failed.", "id", v.ID(hidden), "error", v.Err)
			}
		},
	})

	var roots [][]*expr.Value
	failed := 0
	for _, exec := range eng.ExecuteAll(ctx, exprs) {
		var values []*expr.Value
		for {
			v, ok := exec.Values()
			if !ok {
				break
			}
			values = append(values, v)
			if v.State == expr.Failed {
				failed++
			}
		}
		fmt.Fprint(a.outW, adaptor.FormatResults(a.adaptor, values))
		roots = append(roots, values)
	}
	if failed > 0 {
		logger.Warn("Run finished with failures.", "run", run.Name, "failed", failed)
	} else {
		logger.Info("Run finished.", "run", run.Name)
	}
	return roots, nil
}

// buildOptions translates the run's policy strings into builder options.
// The "log" policy reports dropped branches through the logger and carries on.
func (a *App) buildOptions(ctx context.Context, run *config.Run) (builder.Options, error) {
	logger := ctxlog.FromContext(ctx)

	onCycle, err := parsePolicy(run.OnCycle)
	if err != nil {
		return builder.Options{}, fmt.Errorf("on_cycle: %w", err)
	}
	onUnresolved, err := parsePolicy(run.OnUnresolved)
	if err != nil {
		return builder.Options{}, fmt.Errorf("on_unresolved: %w", err)
	}

	opts := builder.Options{OnCycle: onCycle, OnUnresolved: onUnresolved}
	if onCycle == builder.Callback {
		opts.CycleFunc = func(chain []*operator.Operator) {
			names := make([]string, len(chain))
			for i, op := range chain {
				names[i] = op.Name()
			}
			logger.Warn("Dropped cyclic dependency chain.", "chain", names)
		}
	}
	if onUnresolved == builder.Callback {
		opts.UnresolvedFunc = func(missing operator.Type, op *operator.Operator, param string, path []*operator.Operator) {
			logger.Warn("Dropped branch with unresolvable type.",
				"missing", missing, "operator", op.Name(), "param", param)
		}
	}
	return opts, nil
}

func parsePolicy(s string) (builder.Policy, error) {
	switch s {
	case "", "raise":
		return builder.Raise, nil
	case "ignore":
		return builder.Ignore, nil
	case "log":
		return builder.Callback, nil
	default:
		return 0, fmt.Errorf("invalid policy %q: must be 'raise', 'ignore' or 'log'", s)
	}
}
