// Package pipeline sequences acquisition, vision extraction, persistence,
// fact extraction and snapshot persistence for one request at a time per
// subject.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/d-melnychenko/jobwatch/constants"
	"github.com/d-melnychenko/jobwatch/internal/common"
	"github.com/d-melnychenko/jobwatch/internal/diff"
	"github.com/d-melnychenko/jobwatch/internal/entity"
	"github.com/d-melnychenko/jobwatch/internal/jobfact"
	"github.com/d-melnychenko/jobwatch/internal/repository"
	"github.com/d-melnychenko/jobwatch/internal/vision"
)

// State names the orchestrator's per-request machine positions. Terminal
// states never transition; a new request starts a fresh machine.
type State string

const (
	StateReceived       State = "RECEIVED"
	StateVisionCalled   State = "VISION_CALLED"
	StateFactCalled     State = "FACT_CALLED"
	StateFactResolved   State = "FACT_RESOLVED"
	StateFactFailed     State = "FACT_FAILED"
	StateTransportError State = "TRANSPORT_ERROR"
	StatePolicyRefused  State = "POLICY_REFUSED"
	StateEmptyResult    State = "EMPTY_RESULT"
)

// VisionClient is the sub-interface of the vision package the orchestrator needs.
type VisionClient interface {
	ExtractText(ctx context.Context, image []byte) (vision.Result, error)
}

// RunResult is what a collaborator gets back for one request.
type RunResult struct {
	ExtractionID int64
	Status       constants.ExtractionStatus
	RawText      string
	Snapshot     *entity.JobSnapshot
	Attempts     int
	FinalState   State
}

type Config struct {
	TransportRetries int           // extra attempts after TRANSPORT_ERROR
	RetryDelay       time.Duration // fixed delay before each retry
	RatePerSecond    float64       // outbound call budget; <=0 means unlimited
	RateBurst        int
}

type Orchestrator struct {
	logger      *slog.Logger
	vision      VisionClient
	facts       jobfact.Extractor
	extractions repository.ExtractionRepository
	snapshots   repository.SnapshotRepository
	locks       *subjectLocks
	limiter     *rate.Limiter
	cfg         Config
}

func NewOrchestrator(
	logger *slog.Logger,
	vc VisionClient,
	fe jobfact.Extractor,
	extractions repository.ExtractionRepository,
	snapshots repository.SnapshotRepository,
	cfg Config,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TransportRetries < 0 {
		cfg.TransportRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Orchestrator{
		logger:      logger,
		vision:      vc,
		facts:       fe,
		extractions: extractions,
		snapshots:   snapshots,
		locks:       newSubjectLocks(),
		limiter:     rate.NewLimiter(limit, burst),
		cfg:         cfg,
	}
}

// ProcessImage drives one extraction request through the state machine.
// The ExtractionRecord is persisted as soon as the vision call resolves, the
// JobSnapshot as soon as the fact call resolves; only a store append failure
// is returned as an error, every service-level failure is a recorded outcome.
func (o *Orchestrator) ProcessImage(ctx context.Context, subjectRef string, image []byte) (*RunResult, error) {
	if subjectRef == "" {
		return nil, common.NewAppError("PIPELINE_INPUT", "subject_ref is required", common.ErrInvalidInput)
	}
	if len(image) == 0 {
		return nil, common.NewAppError("PIPELINE_INPUT", "image bytes are empty", common.ErrInvalidInput)
	}

	if err := o.locks.acquire(ctx, subjectRef); err != nil {
		return nil, fmt.Errorf("acquire subject lock: %w", err)
	}
	defer o.locks.release(subjectRef)

	rid := uuid.New().String()
	ctx = common.WithRequestID(common.WithSubjectRef(ctx, subjectRef), rid)
	start := time.Now()
	o.logger.Info("pipeline.run.start",
		"req_id", rid, "subject_ref", subjectRef, "image_bytes", len(image), "state", string(StateReceived))

	res, err := o.runVisionWithRetry(ctx, rid, subjectRef, image)
	if err != nil {
		return nil, err
	}

	if res.Status != constants.StatusSuccess {
		res.FinalState = failureState(res.Status)
		o.logger.Warn("pipeline.run.terminal",
			"req_id", rid, "subject_ref", subjectRef, "state", string(res.FinalState),
			"attempts", res.Attempts, "elapsed_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	o.logger.Info("pipeline.run.fact_called", "req_id", rid, "subject_ref", subjectRef, "state", string(StateFactCalled))
	fr := o.facts.ExtractCurrentJob(ctx, res.RawText)

	snap := &entity.JobSnapshot{
		ExtractionID: res.ExtractionID,
		SubjectRef:   subjectRef,
		DerivedAt:    time.Now().UTC(),
		Found:        fr.Found,
		Company:      fr.Company,
		Position:     fr.Position,
		Period:       fr.Period,
		IsCurrent:    fr.IsCurrent,
		ParseError:   fr.ParseError,
		RawResponse:  fr.Raw,
	}
	// the snapshot write must survive caller cancellation: the fact call was
	// already dispatched and billed
	if _, err := o.snapshots.Append(context.WithoutCancel(ctx), snap); err != nil {
		return nil, common.WrapError(err, "persist job snapshot")
	}
	res.Snapshot = snap

	// a clean "no current job" still resolves; only a diagnostic marks failure
	if fr.ParseError != "" {
		res.FinalState = StateFactFailed
	} else {
		res.FinalState = StateFactResolved
	}

	o.logger.Info("pipeline.run.done",
		"req_id", rid, "subject_ref", subjectRef, "state", string(res.FinalState),
		"extraction_id", res.ExtractionID, "snapshot_id", snap.ID,
		"found", snap.Found, "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

// runVisionWithRetry performs the vision call, persists one ExtractionRecord
// per attempt, and retries only TRANSPORT_ERROR outcomes after a fixed delay.
// A previous attempt's record is never mutated.
func (o *Orchestrator) runVisionWithRetry(ctx context.Context, rid, subjectRef string, image []byte) (*RunResult, error) {
	attempts := o.cfg.TransportRetries + 1
	var res *RunResult
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		o.logger.Info("pipeline.run.vision_called",
			"req_id", rid, "subject_ref", subjectRef, "attempt", attempt, "state", string(StateVisionCalled))
		vr, err := o.vision.ExtractText(ctx, image)
		if err != nil {
			return nil, err
		}

		rec := &entity.ExtractionRecord{
			SubjectRef:  subjectRef,
			RequestedAt: time.Now().UTC(),
			Status:      vr.Status,
			RawText:     vr.Text,
			Diagnostic:  vr.Diagnostic,
			TokenUsage:  vr.Usage,
		}
		// persist before anything else touches the result; a crash beyond
		// this point never loses the raw text. WithoutCancel because the
		// vision call was already dispatched.
		if _, err := o.extractions.Append(context.WithoutCancel(ctx), rec); err != nil {
			return nil, common.WrapError(err, "persist extraction record")
		}

		res = &RunResult{
			ExtractionID: rec.ID,
			Status:       vr.Status,
			RawText:      vr.Text,
			Attempts:     attempt,
		}
		if vr.Status != constants.StatusTransportError || attempt == attempts {
			return res, nil
		}

		o.logger.Warn("pipeline.run.retry",
			"req_id", rid, "subject_ref", subjectRef, "attempt", attempt, "delay", o.cfg.RetryDelay.String())
		select {
		case <-time.After(o.cfg.RetryDelay):
		case <-ctx.Done():
			// the failed attempt is already recorded; stop here
			return res, nil
		}
	}
	return res, nil
}

// Report reads all snapshots for a subject and computes the change report.
func (o *Orchestrator) Report(ctx context.Context, subjectRef string) (*entity.ChangeReport, error) {
	if subjectRef == "" {
		return nil, common.NewAppError("PIPELINE_INPUT", "subject_ref is required", common.ErrInvalidInput)
	}
	snaps, err := o.snapshots.ListBySubject(ctx, subjectRef)
	if err != nil {
		return nil, common.WrapError(err, "list snapshots")
	}
	return diff.BuildReport(subjectRef, snaps), nil
}

func failureState(s constants.ExtractionStatus) State {
	switch s {
	case constants.StatusPolicyRefused:
		return StatePolicyRefused
	case constants.StatusEmptyResult:
		return StateEmptyResult
	default:
		return StateTransportError
	}
}
