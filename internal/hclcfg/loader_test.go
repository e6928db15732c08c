package hclcfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
run "nightly" {
  goals         = ["mathops.Description"]
  on_cycle      = "ignore"
  on_unresolved = "log"
  data = {
    label = "night run"
  }
}

prebuilt "seeds" {
  type   = "mathops.Seed"
  values = [5, 7]
}

store {
  path = "results.yaml.gz"
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, model.Runs, 1)
	run := model.Runs[0]
	assert.Equal(t, "nightly", run.Name)
	assert.Equal(t, []string{"mathops.Description"}, run.Goals)
	assert.Equal(t, "ignore", run.OnCycle)
	assert.Equal(t, "log", run.OnUnresolved)
	assert.Equal(t, map[string]any{"label": "night run"}, run.Data)

	require.Len(t, model.Prebuilts, 1)
	pb := model.Prebuilts[0]
	assert.Equal(t, "seeds", pb.Name)
	assert.Equal(t, "mathops.Seed", pb.Type)
	assert.Equal(t, []any{5, 7}, pb.Values)

	assert.Equal(t, "results.yaml.gz", model.StorePath)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
run "minimal" {
  goals = ["osinfo.Report"]
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Runs, 1)

	run := model.Runs[0]
	assert.Empty(t, run.OnCycle)
	assert.Empty(t, run.OnUnresolved)
	assert.Nil(t, run.Data)
	assert.Empty(t, model.StorePath)
}

func TestLoadMultipleFiles(t *testing.T) {
	a := writeConfig(t, `
run "first" {
  goals = ["A"]
}
`)
	b := writeConfig(t, `
run "second" {
  goals = ["B"]
}

store {
  path = "late.yaml.gz"
}
`)

	model, err := NewLoader().Load(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, model.Runs, 2)
	assert.Equal(t, "first", model.Runs[0].Name)
	assert.Equal(t, "second", model.Runs[1].Name)
	assert.Equal(t, "late.yaml.gz", model.StorePath)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
		assert.Error(t, err)
	})

	t.Run("malformed syntax", func(t *testing.T) {
		path := writeConfig(t, `run "broken" {`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.Error(t, err)
	})

	t.Run("non-list prebuilt values", func(t *testing.T) {
		path := writeConfig(t, `
prebuilt "bad" {
  type   = "Seed"
  values = "not-a-list"
}
`)
		_, err := NewLoader().Load(context.Background(), path)
		assert.ErrorContains(t, err, "must be a list")
	})
}

func TestCtyToNative(t *testing.T) {
	path := writeConfig(t, `
prebuilt "mixed" {
  type   = "Config"
  values = [
    { name = "alpha", retries = 3, ratio = 0.5, enabled = true },
  ]
}
`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Prebuilts, 1)

	require.Len(t, model.Prebuilts[0].Values, 1)
	obj, ok := model.Prebuilts[0].Values[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alpha", obj["name"])
	assert.Equal(t, 3, obj["retries"], "whole numbers decode as int")
	assert.Equal(t, 0.5, obj["ratio"])
	assert.Equal(t, true, obj["enabled"])
}
