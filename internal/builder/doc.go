// Package builder assembles every valid expression tree that can produce a
// requested goal type from a pool of typed operators.
//
// Construction is a depth-first recursion over operator parameters with an
// explicit path stack for cycle detection. Cycles and unresolved required
// types are handled according to caller-configured policies: fail the build,
// silently drop the branch, or report through a callback. Candidate trees
// that attribute one produced type to two different operators are discarded
// after generation.
package builder
