// Package workflow drives queued runs through the narration pipeline.
//
// A Manager owns a pool of workers. Each worker claims the oldest queued run
// and walks it through the fixed stage chain (converting, analyzing,
// generating, polishing, finalizing) while a per-run heartbeat loop keeps the
// database record visibly alive. Runs abandoned by a crashed worker are
// reclaimed by the heartbeat monitor and re-queued from the start; the
// pipeline has no resumable intermediate state.
package workflow
