package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrMalformedResponse marks model output that could not be repaired into
	// a structured payload after every parse strategy was exhausted.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrTimeout marks a timeout or deadline signature on an external call.
	ErrTimeout = errors.New("timeout")
	// ErrTransient marks an upstream fault (rate limits, 5xx) kept distinct
	// from permanent failures for diagnostics; the retry policy still
	// surfaces it immediately.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks a model-call failure that retrying cannot fix.
	ErrPermanent = errors.New("permanent failure")
	// ErrRendering marks a failure of the external slide renderer.
	ErrRendering = errors.New("rendering failure")
	// ErrTooManyFailures marks a run aborted because the per-slide failure
	// threshold was breached.
	ErrTooManyFailures = errors.New("too many slide failures")
	// ErrValidation marks bad input that needs the caller to fix it.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup miss.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether an error carries a timeout or deadline
// signature. Only those retry; any other failure, transient-tagged included,
// is assumed not to resolve within the per-slide time budget and surfaces
// immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
