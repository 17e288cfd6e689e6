// Package narration generates and refines per-slide narration text. The
// generator walks slides strictly in order, each call conditioned on the
// trailing window of previously generated narrations, then an optional
// refinement pass smooths phrasing in one batched call. Both stages degrade
// rather than fail: a broken model call falls back to the best text already
// in hand.
package narration
