package extractor

import (
	"strings"
	"testing"

	"visit-insights-go/internal/slots"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounded by prose", `Here you go: {"intent": "unclear"} hope that helps`, `{"intent": "unclear"}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"no object", "nothing here", ""},
		{"unbalanced", `{"a":1`, ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractContentFromChoices(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"budget\\\": \\\"300万\\\"}\\n```" + `"}}]}`)
	got := extractContentFromChoices(body)
	if got != `{"budget": "300万"}` {
		t.Fatalf("got %q", got)
	}

	if got := extractContentFromChoices([]byte(`{"choices":[]}`)); got != "" {
		t.Fatalf("empty choices should yield empty, got %q", got)
	}
	if got := extractContentFromChoices([]byte(`not json`)); got != "" {
		t.Fatalf("non-json body should yield empty, got %q", got)
	}
}

func TestBuildSlotPromptCoversSchema(t *testing.T) {
	prompt := BuildSlotPrompt("客户说预算300万。")
	for _, key := range slots.Keys() {
		if !strings.Contains(prompt, `"`+key+`"`) {
			t.Errorf("prompt missing slot key %q", key)
		}
	}
	if !strings.Contains(prompt, "客户说预算300万。") {
		t.Error("prompt missing transcript text")
	}
	if !strings.Contains(prompt, `"NA"`) {
		t.Error("prompt missing NA sentinel instruction")
	}
}

func TestMockExtraction(t *testing.T) {
	t.Setenv("USE_MOCK_LLM", "true")
	raw, err := ExtractSlots("任意转写")
	if err != nil {
		t.Fatalf("mock extraction failed: %v", err)
	}
	norm := slots.Normalize(raw)
	if len(norm) != 15 {
		t.Fatalf("normalized mock output has %d entries", len(norm))
	}
	label, err := ClassifyIntent("任意转写")
	if err != nil {
		t.Fatalf("mock intent failed: %v", err)
	}
	if label != "unclear" {
		t.Fatalf("mock intent = %q", label)
	}
}
