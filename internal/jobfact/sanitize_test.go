package jobfact

import (
	"encoding/json"
	"testing"
)

func sanitize(t *testing.T, in string) map[string]any {
	t.Helper()
	out, _, err := NormalizeAndSanitizeJSON([]byte(in), nil)
	if err != nil {
		t.Fatalf("NormalizeAndSanitizeJSON(%q) error: %v", in, err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("sanitized output is not JSON: %v", err)
	}
	return m
}

func job(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	j, ok := m["current_job"].(map[string]any)
	if !ok {
		t.Fatalf("no current_job in %v", m)
	}
	return j
}

func TestSanitize_RenamesSynonyms(t *testing.T) {
	m := sanitize(t, `{"found": true, "current_job": {"organization": "Acme", "title": "CTO"}}`)
	j := job(t, m)
	if j["company"] != "Acme" {
		t.Errorf("company = %v, want Acme", j["company"])
	}
	if j["position"] != "CTO" {
		t.Errorf("position = %v, want CTO", j["position"])
	}
}

func TestSanitize_LiftsFlatPayload(t *testing.T) {
	m := sanitize(t, `{"found": true, "company": "Marble", "position": "Founder"}`)
	j := job(t, m)
	if j["company"] != "Marble" || j["position"] != "Founder" {
		t.Errorf("flat payload not lifted: %v", j)
	}
}

func TestSanitize_CoercesBools(t *testing.T) {
	m := sanitize(t, `{"found": "true", "current_job": {"company": "Acme", "is_current": "yes"}}`)
	if m["found"] != true {
		t.Errorf("found = %v, want true", m["found"])
	}
	if job(t, m)["is_current"] != true {
		t.Errorf("is_current not coerced: %v", m)
	}
}

func TestSanitize_DropsNoise(t *testing.T) {
	m := sanitize(t, `{"found": true, "confidence": 0.9, "current_job": {"company": "  Acme  ", "period": null, "notes": "x"}}`)
	if _, ok := m["confidence"]; ok {
		t.Error("unknown top-level key survived")
	}
	j := job(t, m)
	if j["company"] != "Acme" {
		t.Errorf("company not trimmed: %v", j["company"])
	}
	if _, ok := j["period"]; ok {
		t.Error("null period survived")
	}
	if _, ok := j["notes"]; ok {
		t.Error("unknown current_job key survived")
	}
}

func TestSanitize_ValidatesAfterCleanup(t *testing.T) {
	out, _, err := NormalizeAndSanitizeJSON([]byte(`{"found": "yes", "organization": "Acme", "role": "CEO", "extra": 1}`), nil)
	if err != nil {
		t.Fatalf("sanitize error: %v", err)
	}
	if err := ValidateJSONAgainstSchema(BuildJobJSONSchema(), out); err != nil {
		t.Errorf("sanitized payload does not validate: %v", err)
	}
}

func TestSanitize_RejectsNonObject(t *testing.T) {
	if _, _, err := NormalizeAndSanitizeJSON([]byte(`not json at all`), nil); err == nil {
		t.Error("expected decode error for non-JSON input")
	}
}
