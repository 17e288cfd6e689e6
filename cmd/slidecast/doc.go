// Package main hosts the slidecast CLI entrypoint and command graph.
//
// The Cobra-based command tree covers deck submission, queue inspection and
// maintenance, run detail rendering, configuration scaffolding, and a
// foreground daemon mode. Commands operate on the same SQLite run store the
// daemon uses, so the CLI works whether or not a daemon is running.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
