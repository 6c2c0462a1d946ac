// Package diff computes change reports over a subject's snapshot history.
// Everything here is pure: no stores, no clocks, no external calls.
package diff

import (
	"github.com/d-melnychenko/jobwatch/internal/entity"
)

// BuildReport compares all snapshots of one subject (ordered by derived_at
// ascending) and reports whether company or position changed. Fewer than two
// found snapshots means insufficient data, never a change claim.
func BuildReport(subjectRef string, snaps []*entity.JobSnapshot) *entity.ChangeReport {
	report := &entity.ChangeReport{
		SubjectRef:        subjectRef,
		SnapshotCount:     len(snaps),
		DistinctCompanies: []entity.FieldGroup{},
		DistinctPositions: []entity.FieldGroup{},
	}

	var found []*entity.JobSnapshot
	for _, s := range snaps {
		if s.Found {
			found = append(found, s)
		}
	}
	report.FoundCount = len(found)

	if len(found) < 2 {
		report.InsufficientData = true
		return report
	}

	report.DistinctCompanies = groupByNormalized(found, func(s *entity.JobSnapshot) string { return s.Company })
	report.DistinctPositions = groupByNormalized(found, func(s *entity.JobSnapshot) string { return s.Position })
	report.Changed = len(report.DistinctCompanies) > 1 || len(report.DistinctPositions) > 1
	return report
}

// groupByNormalized buckets extraction ids by the normalized field value in
// first-seen order. Values that normalize to "" are missing data, not a
// distinct group.
func groupByNormalized(snaps []*entity.JobSnapshot, field func(*entity.JobSnapshot) string) []entity.FieldGroup {
	byValue := make(map[string]int)
	var groups []entity.FieldGroup
	for _, s := range snaps {
		norm := entity.NormalizeField(field(s))
		if norm == "" {
			continue
		}
		idx, ok := byValue[norm]
		if !ok {
			idx = len(groups)
			byValue[norm] = idx
			groups = append(groups, entity.FieldGroup{Value: norm})
		}
		groups[idx].ExtractionIDs = append(groups[idx].ExtractionIDs, s.ExtractionID)
	}
	if groups == nil {
		return []entity.FieldGroup{}
	}
	return groups
}
