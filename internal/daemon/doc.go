// Package daemon wires the long-running slidecast services together: the
// workflow manager, the inbox watcher, and the HTTP API. A file lock in the
// log directory enforces a single daemon instance per host.
package daemon
