// Package polishing implements the optional fourth pipeline stage. The full
// narration script goes through a single batched refinement call that smooths
// transitions between consecutive slides.
package polishing
