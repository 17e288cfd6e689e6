// Package stage defines the contract between the workflow manager and the
// pipeline stages, plus the context-carried progress callback stages use to
// report fine-grained completion.
package stage
