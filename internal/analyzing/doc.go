// Package analyzing implements the second pipeline stage. Each slide's
// rendered image and extracted text are sent through the model rewriter to
// produce clean descriptive content for narration.
package analyzing
