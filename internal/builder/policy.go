package builder

import (
	"fmt"
	"strings"

	"github.com/vk/exprgrid/internal/operator"
)

// Policy selects how the builder reacts to a dependency cycle or to a
// required type with no producer.
type Policy int

const (
	// Raise fails the whole build with a descriptive error.
	Raise Policy = iota
	// Ignore silently drops the affected branch.
	Ignore
	// Callback drops the branch after reporting it to the configured handler.
	Callback
)

// CycleFunc receives the cyclic operator chain, innermost first.
type CycleFunc func(chain []*operator.Operator)

// UnresolvedFunc receives the type that has no producer, the operator and
// parameter that required it, and the resolution path, innermost first.
type UnresolvedFunc func(missing operator.Type, op *operator.Operator, param string, path []*operator.Operator)

// Options configures a build.
type Options struct {
	OnCycle   Policy
	CycleFunc CycleFunc

	OnUnresolved   Policy
	UnresolvedFunc UnresolvedFunc
}

// CycleError reports a dependency cycle found during graph building.
// Chain lists the operators on the cyclic path, innermost first.
type CycleError struct {
	Chain []*operator.Operator
}

func (e *CycleError) Error() string {
	return "cyclic dependency found: " + joinOpNames(e.Chain)
}

// NoOperatorError reports a required type with no producer in the pool.
type NoOperatorError struct {
	Missing operator.Type
	Op      *operator.Operator
	Param   string
	Path    []*operator.Operator
}

func (e *NoOperatorError) Error() string {
	return fmt.Sprintf("no operator can produce values of %s needed for %s (parameter %q along path %s)",
		e.Missing, e.Op.Name(), e.Param, joinOpNames(e.Path))
}

func joinOpNames(ops []*operator.Operator) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	return strings.Join(names, " -> ")
}
