// Package outputs writes finalized narration scripts in the configured
// formats: plain text, JSON, and Word documents.
package outputs
