// Package llmjson recovers structured payloads from unreliable model output.
//
// Generative models asked for JSON return it wrapped in code fences, trailing
// prose, or with stray control characters often enough that strict parsing
// would make the pipeline fragile. This package layers progressively more
// aggressive extraction strategies so callers get either a decoded value or a
// single malformed-response error carrying the raw text.
package llmjson
