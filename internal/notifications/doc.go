// Package notifications delivers run milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The workflow manager emits an event when a run completes or fails
// so operators can walk away from long queues.
//
// Extend this package if you need alternative transports; workflow code
// depends only on the Service interface.
package notifications
