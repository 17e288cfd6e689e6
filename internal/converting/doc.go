// Package converting implements the first pipeline stage. It renders the
// submitted deck into per-slide images, extracts slide text and speaker
// notes, and seeds the run's slide records for the downstream stages.
package converting
