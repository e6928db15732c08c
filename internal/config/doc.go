// Package config defines the format-agnostic configuration model for a run
// batch and the Loader interface format-specific loaders implement.
package config
