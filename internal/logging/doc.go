// Package logging centralizes slog handler construction for the daemon and
// CLI. It provides a console handler for interactive use, a JSON handler for
// machine consumption, standardized field names, and context-derived
// attribute extraction so run/stage/slide identifiers appear consistently in
// every record.
package logging
