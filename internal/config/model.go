package config

import "context"

// Model is the format-agnostic representation of a run batch configuration.
type Model struct {
	Runs      []*Run
	Prebuilts []*Prebuilt

	// StorePath, when set, is where the run's values are persisted.
	StorePath string
}

// Run names a set of goal types whose expressions are built and executed
// together.
type Run struct {
	Name  string
	Goals []string

	// OnCycle and OnUnresolved select how graph building reacts to a
	// dependency cycle or an unproducible required type: "raise" (default),
	// "ignore" or "log".
	OnCycle      string
	OnUnresolved string

	// Data seeds the per-run data map shared by every expression in the run.
	Data map[string]any
}

// Prebuilt declares externally supplied values for a type, injected into the
// operator pool instead of being computed.
type Prebuilt struct {
	Name   string
	Type   string
	Values []any
}

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model. Later paths override earlier ones only by
	// accumulation; blocks are never merged.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
