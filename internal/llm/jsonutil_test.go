package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"full_name": "Jane Doe"}`,
			want:  `{"full_name": "Jane Doe"}`,
		},
		{
			name:  "fenced object",
			input: "```json\n{\"email\": \"jane@x.com\"}\n```",
			want:  `{"email": "jane@x.com"}`,
		},
		{
			name:  "fence without language tag",
			input: "```\n{\"phone\": \"555-1212\"}\n```",
			want:  `{"phone": "555-1212"}`,
		},
		{
			name:  "surrounding prose",
			input: "Sure! Here is the data you asked for: {\"budget\": \"$20k\"} Hope that helps.",
			want:  `{"budget": "$20k"}`,
		},
		{
			name:  "trailing comma",
			input: `{"start_date": "June", }`,
			want:  `{"start_date": "June" }`,
		},
		{
			name:  "no object at all",
			input: "I could not find any intake details in that message.",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONObject(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got != "" && !json.Valid([]byte(got)) {
				t.Errorf("Extracted JSON is not valid: %q", got)
			}
		})
	}
}

func TestExtractJSONObjectNestedBraces(t *testing.T) {
	input := `prefix {"fields": {"full_name": "Jane"}} suffix`
	got := ExtractJSONObject(input)
	if got != `{"fields": {"full_name": "Jane"}}` {
		t.Errorf("Expected outermost object, got %q", got)
	}
}
