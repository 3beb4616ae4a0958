// Package intake implements the conversational intake workflow: field
// extraction, completion checking, reply generation, and the orchestrating
// state machine.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/Elevated-Garage/contact-solomon/internal/llm"
)

// Extractor derives intake fields from a conversation transcript by asking
// the oracle for a JSON object. It is strictly best-effort: any oracle or
// parse failure yields an empty mapping, never an error to the caller.
type Extractor struct {
	oracle llm.Client
	model  string
}

// NewExtractor creates an extractor using the given oracle and model.
func NewExtractor(oracle llm.Client, model string) *Extractor {
	return &Extractor{oracle: oracle, model: model}
}

// Extract returns the fields the oracle is confident about. Absent keys
// are not asserted as empty. The photo field is never set here; only the
// upload and skip actions may populate it.
func (e *Extractor) Extract(ctx context.Context, transcript []domain.Message) map[string]string {
	fields := make(map[string]string)

	latest := lastUserMessage(transcript)
	if IsSmallTalk(latest) {
		// Extracting from "hi Solomon" produces garbage.
		return fields
	}

	raw, err := e.oracle.Complete(ctx, []llm.Message{
		{Role: "system", Content: extractionPrompt + renderTranscript(transcript)},
	}, llm.CompleteOptions{Model: e.model, Temperature: 0.2})
	if err != nil {
		slog.Warn("Field extraction oracle call failed", "error", err)
		return fields
	}

	obj := llm.ExtractJSONObject(raw)
	if obj == "" {
		slog.Warn("Field extraction returned no JSON object", "raw_len", len(raw))
		return fields
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		slog.Warn("Field extraction returned unparseable JSON", "error", err)
		return fields
	}

	for key, value := range parsed {
		if !domain.KnownField(key) || key == domain.FieldGaragePhotoUpload {
			continue
		}
		s := stringifyValue(value)
		if strings.TrimSpace(s) == "" {
			continue
		}
		fields[key] = strings.TrimSpace(s)
	}
	return fields
}

// renderTranscript flattens the transcript into "role: content" lines, the
// shape the extraction prompt expects.
func renderTranscript(transcript []domain.Message) string {
	var b strings.Builder
	for _, m := range transcript {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func lastUserMessage(transcript []domain.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == domain.RoleUser {
			return transcript[i].Content
		}
	}
	return ""
}

// greetingWords are openers that carry no intake information on their own.
var greetingWords = map[string]struct{}{
	"hi":      {},
	"hello":   {},
	"hey":     {},
	"yo":      {},
	"howdy":   {},
	"morning": {},
	"solomon": {},
	"thanks":  {},
	"ok":      {},
	"okay":    {},
}

// IsSmallTalk reports whether a message is a bare greeting or assistant
// callout with nothing worth extracting.
func IsSmallTalk(message string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(message))
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '!', '.', ',', '?':
			return -1
		}
		return r
	}, cleaned)

	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return true
	}
	if len(words) > 3 {
		return false
	}
	for _, w := range words {
		if _, ok := greetingWords[w]; !ok {
			return false
		}
	}
	return true
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// The oracle occasionally emits square footage or budget as a number.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return ""
	}
}
