package jobfact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (organization -> company, title -> position, ...)
// - Lifts a flat payload into the current_job wrapper when the model skipped it
// - Coerces stringly booleans for found / is_current
// - Drops null/empty fields and unknown keys (additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// 1) lift flat payloads: the model sometimes emits company/position at the
	// top level instead of inside current_job
	if _, hasJob := m["current_job"]; !hasJob {
		flat := map[string]any{}
		for _, k := range []string{"company", "company_name", "organization", "position", "title", "role", "job_title", "period", "dates", "is_current", "current"} {
			if v, ok := m[k]; ok {
				flat[k] = v
				delete(m, k)
			}
		}
		if len(flat) > 0 {
			m["current_job"] = flat
			dropped = append(dropped, "lifted->current_job")
		}
	}

	// 2) coerce found
	m["found"] = coerceBool(m["found"])

	job, _ := m["current_job"].(map[string]any)
	if job != nil {
		renamed := func(from, to string) {
			if v, ok := job[from]; ok {
				if _, exists := job[to]; !exists {
					job[to] = v
				}
				delete(job, from)
				dropped = append(dropped, from+"->"+to)
			}
		}
		renamed("company_name", "company")
		renamed("organization", "company")
		renamed("title", "position")
		renamed("role", "position")
		renamed("job_title", "position")
		renamed("dates", "period")
		renamed("current", "is_current")

		job["is_current"] = coerceBool(job["is_current"])

		// trim strings, drop null / "" / "null"
		for _, k := range []string{"company", "position", "period"} {
			switch t := job[k].(type) {
			case string:
				s := strings.TrimSpace(t)
				if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
					delete(job, k)
					dropped = append(dropped, k+"(empty)")
				} else {
					job[k] = s
				}
			case nil:
				delete(job, k)
			default:
				if _, ok := job[k]; ok {
					delete(job, k)
					dropped = append(dropped, k+"(type)")
				}
			}
		}

		// remove unknown keys inside current_job
		for k := range job {
			switch k {
			case "company", "position", "period", "is_current":
			default:
				delete(job, k)
				dropped = append(dropped, "current_job."+k+"(unknown)")
			}
		}
	}

	// 3) remove unknown top-level keys
	for k := range m {
		switch k {
		case "found", "current_job":
		default:
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("fact.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// coerceBool maps model-flavored truthiness onto a real bool.
func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "yes" || s == "1"
	case float64:
		return t != 0
	default:
		return false
	}
}
