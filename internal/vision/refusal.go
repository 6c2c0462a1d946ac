package vision

import "strings"

// Refusals arrive as a 2xx response whose message declines the task instead
// of describing the image, e.g. "I'm unable to extract or read text from
// images or documents for privacy and security reasons."
var refusalMarkers = []string{
	"i'm unable to",
	"i am unable to",
	"i'm sorry",
	"i am sorry",
	"i can't assist",
	"i cannot assist",
	"i can't help with",
	"i cannot help with",
	"privacy and security reasons",
	"not able to extract",
}

// maxRefusalLen caps the refusal check: a real profile extraction runs long,
// a decline is a sentence or two.
const maxRefusalLen = 600

func looksLikeRefusal(content string) bool {
	if len(content) > maxRefusalLen {
		return false
	}
	lower := strings.ToLower(content)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
