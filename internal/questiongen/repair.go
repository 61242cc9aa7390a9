package questiongen

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model output is untrusted text: it may be wrapped in prose or markdown
// fencing, use single quotes, carry trailing commas, or leave object keys
// unquoted. decodeLoose runs a ladder of pure text transforms, re-attempting a
// decode after each one, and gives up only when every rung fails. Each
// transform is idempotent and independently testable.

var (
	fenceRe       = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")
	arrayRe       = regexp.MustCompile(`(?s)(\[.*\])`)
	objectRe      = regexp.MustCompile(`(?s)(\{.*\})`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe     = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

func decodeLoose(raw string) (interface{}, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	candidates := []string{stripFences(text)}
	if extracted := extractBracketed(text); extracted != "" {
		candidates = append(candidates, extracted)
	}

	transforms := []func(string) string{
		func(s string) string { return s },
		normalizeQuotes,
		stripTrailingCommas,
		quoteBareKeys,
	}

	for _, candidate := range candidates {
		s := candidate
		for _, t := range transforms {
			s = t(s)
			var v interface{}
			if err := json.Unmarshal([]byte(s), &v); err == nil {
				return v, true
			}
		}
	}
	return nil, false
}

// stripFences unwraps a ```json ... ``` block if one is present.
func stripFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// extractBracketed pulls the widest bracketed array (preferred) or object out
// of surrounding prose.
func extractBracketed(s string) string {
	if m := arrayRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := objectRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// normalizeQuotes rewrites single-quoted strings to double-quoted ones,
// leaving content inside existing double-quoted strings untouched.
func normalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	inSingle := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (inDouble || inSingle):
			b.WriteByte(c)
			i++
			b.WriteByte(s[i])
		case c == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteByte(c)
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteByte('"')
		case c == '"' && inSingle:
			// embedded double quote inside a single-quoted string needs escaping
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stripTrailingCommas removes commas sitting directly before a closing
// bracket or brace.
func stripTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

// quoteBareKeys wraps unquoted object keys in double quotes.
func quoteBareKeys(s string) string {
	return bareKeyRe.ReplaceAllString(s, `$1"$2":`)
}
