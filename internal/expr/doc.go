// Package expr defines the expression DAG and its produced values.
//
// An Expression binds an operator to concrete sub-expressions for each of its
// parameters. Expressions are immutable trees once built; the only mutable
// state they carry is the accumulating list of result sequences produced over
// their lifetime, which can be discarded without discarding the tree.
//
// A Value is one produced result: a computed value, a captured failure, or
// the NotComputed sentinel meaning an upstream dependency failed and the
// operator was never invoked. A Seq is the append-only, reentrant-iterable
// sequence of Values produced for one (expression, parameter-binding) pair.
package expr
