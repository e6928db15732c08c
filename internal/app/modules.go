package app

import (
	"github.com/vk/exprgrid/internal/registry"
	"github.com/vk/exprgrid/modules/mathops"
	"github.com/vk/exprgrid/modules/osinfo"
)

// coreModules is the definitive list of all modules compiled into the
// exprgrid binary.
var coreModules = []registry.Module{
	&mathops.Module{},
	&osinfo.Module{},
}
