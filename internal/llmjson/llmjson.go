package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"

	"slidecast/internal/services"
)

// Decode extracts a single JSON value from noisy model output into target.
//
// Model responses are approximately valid JSON: they may be wrapped in code
// fences or trailing prose, and occasionally carry raw control characters
// inside string values. Decode attempts, in order: strip a fence block, parse
// directly, parse the balanced object or array substring, and finally retry
// after removing control characters. All failures surface
// services.ErrMalformedResponse with a snippet of the raw text for diagnostics.
func Decode(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("%w: empty payload", services.ErrMalformedResponse)
	}

	candidate := stripCodeFenceBlock(trimmed)
	if err := json.Unmarshal([]byte(candidate), target); err == nil {
		return nil
	}

	extracted := extractBalanced(candidate, '{', '}')
	if extracted == "" {
		extracted = extractBalanced(candidate, '[', ']')
	}
	if extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		cleaned := stripControlChars(extracted)
		if cleaned != extracted {
			if err := json.Unmarshal([]byte(cleaned), target); err == nil {
				return nil
			}
		}
	}

	return fmt.Errorf("%w (payload snippet: %s)", services.ErrMalformedResponse, summarizeSnippet(trimmed))
}

// DecodeObject decodes the response into a generic key/value mapping.
func DecodeObject(content string) (map[string]any, error) {
	var parsed map[string]any
	if err := Decode(content, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// Kind discriminates the shapes a decoded field value can take.
type Kind int

const (
	// KindText is a plain string value.
	KindText Kind = iota
	// KindList is a list of values, usually strings.
	KindList
	// KindOther is any shape the model was not asked for.
	KindOther
)

// Value is a tagged view over a decoded field. Models asked for a string
// sometimes return a list or an unexpected structure; Value names the shape
// once at the boundary so callers do not scatter type switches.
type Value struct {
	Kind Kind
	Text string
	List []any
	Raw  any
}

// ValueOf classifies a decoded field value.
func ValueOf(raw any) Value {
	switch typed := raw.(type) {
	case string:
		return Value{Kind: KindText, Text: typed, Raw: raw}
	case []any:
		return Value{Kind: KindList, List: typed, Raw: raw}
	default:
		return Value{Kind: KindOther, Raw: raw}
	}
}

// String normalizes the value into plain text. Lists are joined with
// newlines; any other shape falls back to its string form. The caller always
// receives a string, never a structural type.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindList:
		parts := make([]string, 0, len(v.List))
		for _, element := range v.List {
			parts = append(parts, ValueOf(element).String())
		}
		return strings.Join(parts, "\n")
	default:
		return stringifyScalar(v.Raw)
	}
}

// CoerceString flattens a decoded field value into plain text.
func CoerceString(value any) string {
	return ValueOf(value).String()
}

func stringifyScalar(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case json.Number:
		return typed.String()
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", typed), "0"), ".")
	default:
		return fmt.Sprintf("%v", typed)
	}
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// extractBalanced returns the substring from the first open delimiter to its
// matching close delimiter. The depth counter ignores delimiters inside
// quoted strings and honours backslash escapes, so a brace embedded in a
// string value never terminates the scan early.
func extractBalanced(content string, open, closing byte) string {
	start := strings.IndexByte(content, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

func stripControlChars(content string) string {
	var builder strings.Builder
	builder.Grow(len(content))
	for i := 0; i < len(content); i++ {
		if content[i] < 0x20 {
			continue
		}
		builder.WriteByte(content[i])
	}
	return builder.String()
}

func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
