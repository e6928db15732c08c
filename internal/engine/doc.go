// Package engine lazily evaluates expression trees into streams of produced
// values, maximizing reuse.
//
// Evaluation is pull-based and single-threaded: nothing is computed until a
// consumer asks for the next value, and a consumer that stops pulling leaves
// the remaining combinatorial alternatives unexplored. Reusable parameters
// are enumerated as a cartesian product of their alternative values, filtered
// so that a shared reusable ancestor always contributes the same value to
// every parameter that reaches it. Results for reusable operators are
// memoized per parameter binding and replayed instead of recomputed.
//
// Before a batch of trees is executed together, ExecuteAll rewrites each tree
// on a copy so that structurally identical subexpressions collapse onto one
// shared node, guaranteeing each operator runs at most once per distinct
// binding across the whole batch.
package engine
