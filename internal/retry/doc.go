// Package retry provides bounded retry with classified exponential backoff.
//
// Model calls fail in two fundamentally different ways: transient conditions
// (timeouts, quota pressure, server errors) that deserve another attempt, and
// permanent failures (bad requests, auth problems) where retrying only wastes
// the attempt budget. The Policy type encodes that split so callers wrap one
// operation and get the right behavior for both.
package retry
