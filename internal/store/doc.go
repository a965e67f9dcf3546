// Package store persists the trajectory a pipeline.Pipeline produces
// to a SQLite database, one row per AddFrame call. It is not imported
// by internal/slam/*: the core solver has no notion of persistence,
// only cmd/ drivers depend on this package.
package store
