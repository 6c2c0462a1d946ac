package jobfact

import "testing"

func TestUnwrap_KnownWrappers(t *testing.T) {
	payload := `{"found": false}`

	cases := []struct {
		name     string
		input    string
		strategy string
	}{
		{"bare", payload, ""},
		{"json_fence", "```json\n" + payload + "\n```", "json_fence"},
		{"json_fence_no_newline", "```json" + payload + "```", "json_fence"},
		{"bare_fence", "```\n" + payload + "\n```", "bare_fence"},
		{"inline_backtick", "`" + payload + "`", "inline_backtick"},
		{"json_label", "json: " + payload, "json_label"},
		{"surrounding_whitespace", "  \n```json\n" + payload + "\n```\n  ", "json_fence"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, strategy := Unwrap(tc.input)
			if out != payload {
				t.Errorf("Unwrap(%q) payload = %q, want %q", tc.input, out, payload)
			}
			if strategy != tc.strategy {
				t.Errorf("Unwrap(%q) strategy = %q, want %q", tc.input, strategy, tc.strategy)
			}
		})
	}
}

func TestUnwrap_Idempotent(t *testing.T) {
	// unwrapping an already-unwrapped payload must be a no-op
	wrapped := "```json\n{\"found\": true, \"current_job\": {\"company\": \"Acme\"}}\n```"
	once, _ := Unwrap(wrapped)
	twice, strategy := Unwrap(once)
	if once != twice {
		t.Errorf("second Unwrap changed the payload: %q -> %q", once, twice)
	}
	if strategy != "" {
		t.Errorf("second Unwrap applied strategy %q on a bare payload", strategy)
	}
}

func TestUnwrap_MultilinePayload(t *testing.T) {
	payload := "{\n  \"found\": true,\n  \"current_job\": {\n    \"company\": \"Marble\"\n  }\n}"
	out, strategy := Unwrap("```json\n" + payload + "\n```")
	if out != payload {
		t.Errorf("payload mangled: %q", out)
	}
	if strategy != "json_fence" {
		t.Errorf("strategy = %q, want json_fence", strategy)
	}
}
