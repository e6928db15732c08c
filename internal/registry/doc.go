// Package registry is the central glue between operator modules and the
// engine. Modules declare their producers, prebuilt values and type
// compatibility edges against a Registry; building it against an adaptor
// yields the operator pool and compatibility map the graph builder consumes.
package registry
