// Package renderer converts slide decks into per-slide artifacts: PNG images
// rendered through LibreOffice and poppler, plus speaker notes and original
// slide text read directly from the pptx package. Rasterization failures
// degrade to a text-only deck rather than failing the run.
package renderer
