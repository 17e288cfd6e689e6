// Package generating implements the third pipeline stage. It walks the deck
// in order and produces one narration per slide, carrying a sliding window of
// prior narrations so consecutive slides read as one continuous talk.
package generating
