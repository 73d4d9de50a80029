package llm

import (
	"math"
	"testing"
)

func TestDecodeJSONHandlesCodeFenceAndProse(t *testing.T) {
	cases := []string{
		`{"ok":true}`,
		"```json\n{\"ok\":true}\n```",
		"Here you go:\n{\"ok\":true}\nThanks!",
	}
	for _, input := range cases {
		var parsed struct {
			OK bool `json:"ok"`
		}
		if err := DecodeJSON(input, &parsed); err != nil {
			t.Fatalf("DecodeJSON(%q) returned error: %v", input, err)
		}
		if !parsed.OK {
			t.Fatalf("DecodeJSON(%q) did not populate target", input)
		}
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var parsed map[string]any
	if err := DecodeJSON("no json here", &parsed); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
	if err := DecodeJSON("   ", &parsed); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := StripCodeFence("```markdown\n# Title\nBody\n```"); got != "# Title\nBody" {
		t.Fatalf("unexpected stripped text %q", got)
	}
	if got := StripCodeFence("plain"); got != "plain" {
		t.Fatalf("expected plain text untouched, got %q", got)
	}
}

func TestEstimateCostMatchesMostSpecificModel(t *testing.T) {
	cases := []struct {
		model string
		want  float64
	}{
		{"gpt-4o-mini", 0.15 + 0.6},
		{"gpt-4o", 2.5 + 10},
		{"gpt-5", 10 + 30},
		{"gpt-5-mini", 2 + 8},
		{"sonar-mini", 0.4},
		{"sonar", 2},
		{"unknown-model", 0},
	}
	for _, tc := range cases {
		got := EstimateCost(tc.model, 1_000_000, 1_000_000)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: got %v want %v", tc.model, got, tc.want)
		}
	}
	if EstimateTokens("abcdefgh") != 2 {
		t.Fatal("expected four characters per token")
	}
}
