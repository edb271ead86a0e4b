// Package state keeps per-user conversation sessions in memory.
// The state type is chosen by the caller, so the package knows nothing about
// the flows built on top of it.
package state
