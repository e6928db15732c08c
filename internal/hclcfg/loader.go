// Package hclcfg loads run configuration from HCL files into the
// format-agnostic config model.
package hclcfg

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/exprgrid/internal/config"
	"github.com/vk/exprgrid/internal/ctxlog"
)

// Loader parses HCL configuration files.
type Loader struct{}

// NewLoader creates an HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every path and accumulates the blocks into one model. The last
// `store` block wins.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, path := range paths {
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", path, diags)
		}

		var f file
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", path, diags)
		}

		for _, rb := range f.Runs {
			run, err := translateRun(rb)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", path, err)
			}
			model.Runs = append(model.Runs, run)
		}
		for _, pb := range f.Prebuilts {
			p, err := translatePrebuilt(pb)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", path, err)
			}
			model.Prebuilts = append(model.Prebuilts, p)
		}
		if f.Store != nil {
			model.StorePath = f.Store.Path
		}

		logger.Debug("Loaded configuration file.",
			"path", path, "runs", len(f.Runs), "prebuilts", len(f.Prebuilts))
	}
	return model, nil
}

func translateRun(rb *runBlock) (*config.Run, error) {
	run := &config.Run{
		Name:         rb.Name,
		Goals:        rb.Goals,
		OnCycle:      rb.OnCycle,
		OnUnresolved: rb.OnUnresolved,
	}
	if rb.Data != nil {
		val, diags := rb.Data.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("run '%s': invalid data: %w", rb.Name, diags)
		}
		if !val.IsNull() {
			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("run '%s': data: %w", rb.Name, err)
			}
			data, ok := native.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("run '%s': data must be an object", rb.Name)
			}
			run.Data = data
		}
	}
	return run, nil
}

func translatePrebuilt(pb *prebuiltBlock) (*config.Prebuilt, error) {
	val, diags := pb.Values.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("prebuilt '%s': invalid values: %w", pb.Name, diags)
	}
	native, err := ctyToNative(val)
	if err != nil {
		return nil, fmt.Errorf("prebuilt '%s': values: %w", pb.Name, err)
	}
	values, ok := native.([]any)
	if !ok {
		return nil, fmt.Errorf("prebuilt '%s': values must be a list", pb.Name)
	}
	return &config.Prebuilt{Name: pb.Name, Type: pb.Type, Values: values}, nil
}

var _ config.Loader = (*Loader)(nil)
