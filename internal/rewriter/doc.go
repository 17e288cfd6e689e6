// Package rewriter turns rendered slide images into normalized descriptive
// text through the model, with repair parsing and string coercion so callers
// never see a structural payload.
package rewriter
