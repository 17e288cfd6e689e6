// Package textutil provides small text helpers: filename and path-segment
// sanitization for output and staging files, word counting for narration
// length heuristics, and one-line previews for progress messages.
package textutil
