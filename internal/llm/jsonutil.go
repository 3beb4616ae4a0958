package llm

import (
	"regexp"
	"strings"
)

var (
	// fencedJSONPattern matches a JSON object inside a markdown code block.
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONObject pulls a JSON object out of a raw oracle response.
// Models wrap objects in markdown fences or surround them with prose even
// when told not to; this strips both, then removes trailing commas. It
// returns "" when no object is present.
func ExtractJSONObject(content string) string {
	raw := rawJSONObject(content)
	if raw == "" {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

func rawJSONObject(content string) string {
	if matches := fencedJSONPattern.FindStringSubmatch(content); len(matches) > 1 {
		return matches[1]
	}
	// Fall back to the span from the first '{' to the last '}'.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}
