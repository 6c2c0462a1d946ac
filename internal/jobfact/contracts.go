package jobfact

import "context"

// JobFields is the normalized shape we want from the model.
type JobFields struct {
	Company   string `json:"company"`
	Position  string `json:"position"`
	Period    string `json:"period,omitempty"`
	IsCurrent bool   `json:"is_current"`
}

// payload is the wire shape the model is instructed to emit.
type payload struct {
	CurrentJob *JobFields `json:"current_job,omitempty"`
	Found      bool       `json:"found"`
}

// Result describes the outcome of one fact extraction. A structural parse
// failure or a transport failure yields Found=false with ParseError set and
// the unparsed model output preserved in Raw for audit.
type Result struct {
	Found      bool
	Company    string
	Position   string
	Period     string
	IsCurrent  bool
	ParseError string
	Raw        string
}

// Extractor is the interface the orchestrator depends on.
type Extractor interface {
	ExtractCurrentJob(ctx context.Context, text string) Result
}
