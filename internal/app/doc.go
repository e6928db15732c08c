// Package app wires configuration, the operator registry, the graph builder
// and the engine into a runnable application with an isolated logger.
package app
