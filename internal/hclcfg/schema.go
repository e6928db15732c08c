package hclcfg

import "github.com/hashicorp/hcl/v2"

// file is the top-level structure of a configuration file.
type file struct {
	Runs      []*runBlock      `hcl:"run,block"`
	Prebuilts []*prebuiltBlock `hcl:"prebuilt,block"`
	Store     *storeBlock      `hcl:"store,block"`
}

// runBlock is a `run` block naming the goal types to build and execute.
type runBlock struct {
	Name         string         `hcl:"name,label"`
	Goals        []string       `hcl:"goals"`
	OnCycle      string         `hcl:"on_cycle,optional"`
	OnUnresolved string         `hcl:"on_unresolved,optional"`
	Data         hcl.Expression `hcl:"data,optional"`
}

// prebuiltBlock is a `prebuilt` block supplying ready-made values for a type.
// Values stay as an expression so arbitrary literals can be translated to
// native Go values rather than forced into one static type.
type prebuiltBlock struct {
	Name   string         `hcl:"name,label"`
	Type   string         `hcl:"type"`
	Values hcl.Expression `hcl:"values"`
}

// storeBlock configures value persistence.
type storeBlock struct {
	Path string `hcl:"path"`
}
