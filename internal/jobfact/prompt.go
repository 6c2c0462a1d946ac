package jobfact

import "strings"

// buildPrompt carries the extraction contract: compact JSON only, and a
// not-found escape so the model never fabricates an employer.
func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString(`Analyze the text below and extract ONLY the person's current job.

Return JSON:
{
  "current_job": {
    "company": "company name",
    "position": "position",
    "period": "work period (if provided)",
    "is_current": true/false
  },
  "found": true/false
}

Look for keywords like: "Present", "Current", "Founder", "CEO", "Head of", etc.
If you can't determine the current job, return {"found": false}.

TEXT TO ANALYZE:
`)
	b.WriteString(text)
	return b.String()
}
