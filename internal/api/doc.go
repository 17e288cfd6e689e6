// Package api provides the run-queue service layer shared by the CLI and the
// daemon's HTTP surface. It translates store records into stable view types
// so both callers present runs the same way.
package api
