package entity

// FieldGroup maps one normalized field value to the extraction ids that
// produced it, in first-seen order.
type FieldGroup struct {
	Value         string  `json:"value"`
	ExtractionIDs []int64 `json:"extraction_ids"`
}

// ChangeReport is a pure function of a subject's snapshot set at query time;
// it is never persisted.
type ChangeReport struct {
	SubjectRef        string       `json:"subject_ref"`
	SnapshotCount     int          `json:"snapshot_count"`
	FoundCount        int          `json:"found_count"`
	InsufficientData  bool         `json:"insufficient_data"`
	DistinctCompanies []FieldGroup `json:"distinct_companies"`
	DistinctPositions []FieldGroup `json:"distinct_positions"`
	Changed           bool         `json:"changed"`
}
