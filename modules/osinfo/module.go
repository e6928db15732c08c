// Package osinfo is a demonstration module producing a report about the host
// the run executes on. It exercises the run data map: the report picks up a
// "label" entry when one is configured.
package osinfo

import (
	"fmt"
	"os"
	"runtime"

	"github.com/vk/exprgrid/internal/operator"
	"github.com/vk/exprgrid/internal/registry"
)

// Type names produced by this module.
const (
	TypePlatform operator.Type = "osinfo.Platform"
	TypeReport   operator.Type = "osinfo.Report"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Platform describes the build target the binary runs on.
type Platform struct {
	OS   string
	Arch string
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Report renders the host report for a platform, labelled from the run data
// map when a "label" entry is present.
func Report(args operator.Args) (any, error) {
	platform, ok := args["platform"].(Platform)
	if !ok {
		return nil, fmt.Errorf("report: expected a platform, got %T", args["platform"])
	}

	label := ""
	if data, ok := args["data"].(map[string]any); ok {
		if l, ok := data["label"].(string); ok {
			label = l + ": "
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("report: resolving hostname: %w", err)
	}
	return fmt.Sprintf("%s%s on %s", label, hostname, platform), nil
}

// Register declares the module's operators and the prebuilt platform value.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPrebuilt(operator.PrebuiltSpec{
		Name:     "platform",
		Produces: TypePlatform,
		Values:   []any{Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}},
	})
	r.RegisterOperator(operator.Spec{
		Name:     "report",
		Produces: TypeReport,
		Params: []operator.Param{
			{Name: "platform", Type: TypePlatform},
			{Name: "data", Type: operator.RunDataType},
		},
		SrcLoc: "modules/osinfo/module.go",
		Call:   Report,
	})
}
