// Package finalizing implements the last pipeline stage. The completed
// narration script is written in every configured format and the run's
// staging workspace is removed.
package finalizing
