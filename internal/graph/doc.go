// Package graph builds the active dependency graph for a task set and derives
// the two answers callers need from it: which tasks can start right now, and
// the ordered waves in which the remaining tasks can be integrated.
//
// Everything here is a pure function over an immutable *task.Set. Each call
// allocates its own adjacency and in-degree structures, so computations over
// different sets (or the same set) may run concurrently.
package graph
