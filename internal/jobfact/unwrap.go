package jobfact

import "strings"

// The model wraps its JSON in varying decoration. Each known wrapper style is
// a named strategy; they are tried in order and the first match wins.
// Unwrapping an undecorated payload is a no-op.
type unwrapStrategy struct {
	name  string
	apply func(s string) (string, bool)
}

var unwrapStrategies = []unwrapStrategy{
	{name: "json_fence", apply: stripFence("```json")},
	{name: "bare_fence", apply: stripFence("```")},
	{name: "inline_backtick", apply: stripInlineBacktick},
	{name: "json_label", apply: stripJSONLabel},
}

// Unwrap strips known wrapper decoration from the model output and returns
// the payload plus the name of the strategy applied ("" when the input was
// already bare).
func Unwrap(s string) (string, string) {
	t := strings.TrimSpace(s)
	for _, st := range unwrapStrategies {
		if out, ok := st.apply(t); ok {
			return strings.TrimSpace(out), st.name
		}
	}
	return t, ""
}

func stripFence(opener string) func(string) (string, bool) {
	return func(s string) (string, bool) {
		if !strings.HasPrefix(s, opener) {
			return "", false
		}
		body := s[len(opener):]
		// opener may sit on its own line or run straight into the payload
		body = strings.TrimLeft(body, " \t")
		body = strings.TrimPrefix(body, "\n")
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
		return body, true
	}
}

func stripInlineBacktick(s string) (string, bool) {
	if len(s) < 2 || !strings.HasPrefix(s, "`") || !strings.HasSuffix(s, "`") {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func stripJSONLabel(s string) (string, bool) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "json:") && !strings.HasPrefix(lower, "json\n") {
		return "", false
	}
	return s[len("json:"):], true
}
