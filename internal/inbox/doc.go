// Package inbox watches a drop directory and enqueues every new deck it
// sees, so decks can be submitted by copying a file instead of calling the
// CLI or the HTTP API.
package inbox
