package operator

import "fmt"

// AnnotationError reports a producer registered with an incomplete contract,
// such as a required parameter without a declared type. It is fatal at
// registration time and never silently ignored.
type AnnotationError struct {
	Op     string
	Param  string
	Reason string
}

func (e *AnnotationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("operator %q: parameter %q: %s", e.Op, e.Param, e.Reason)
	}
	return fmt.Sprintf("operator %q: %s", e.Op, e.Reason)
}
