// Package gemini wraps the Google Gemini API for slide narration calls.
//
// The client accepts multiple API keys and rotates to the next one whenever a
// call fails with a quota signature, so a single exhausted key does not stall
// a long deck. Every call carries a hard timeout and returns errors tagged
// with the services sentinels so the retry policy can tell transient
// conditions from permanent ones.
package gemini
