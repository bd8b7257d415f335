// Package pipeline wires CanonicalCodec, IdDerivation, IntentValidator,
// PolicyEngine, JobExecutor, ArtifactStore, EvidenceBuilder, and AppendLog
// into spec.md §5's strict sequential order: validate → policy → execute
// → artifact batch → manifest → (optional) signature → append to log.
// Across runs no ordering is guaranteed except what AppendLog's lock
// linearizes.
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/accord-protocol/solverd/core/appendlog"
	"github.com/accord-protocol/solverd/core/artifactstore"
	"github.com/accord-protocol/solverd/core/canon"
	"github.com/accord-protocol/solverd/core/clock"
	"github.com/accord-protocol/solverd/core/evidence"
	"github.com/accord-protocol/solverd/core/ids"
	"github.com/accord-protocol/solverd/core/intent"
	"github.com/accord-protocol/solverd/core/jobs"
	"github.com/accord-protocol/solverd/core/policy"
	"github.com/accord-protocol/solverd/core/receipt"
	"github.com/accord-protocol/solverd/core/signer"
)

// Outcome enumerates the four shapes a single Run can end in.
type Outcome string

const (
	OutcomeValidationError Outcome = "VALIDATION_ERROR"
	OutcomeRefused         Outcome = "REFUSED"
	OutcomeSuccess         Outcome = "SUCCESS"
	OutcomeExecutionFailed Outcome = "EXECUTION_FAILED"
)

// Config is everything a Pipeline needs beyond the raw intent bytes.
type Config struct {
	DataDir         string
	ReceiptsPath    string
	RefusalsPath    string
	PolicyConfig    policy.Config
	StrictIntentID  bool
	Service         evidence.SolverIdentity
	Clock           clock.Clock
	Signer          signer.Port // nil means receipts are left unsigned
	Registry        *jobs.Registry
	SchemaValidator *evidence.CompiledSchema // nil disables schema checking

	// NoLock selects appendlog.AppendFast over the default locked Append,
	// per spec.md §4.9's named high-throughput variant. Unsafe for
	// concurrent writers; intended for single-writer local iteration.
	NoLock bool
}

// Result captures everything observable about one Run, regardless of which
// Outcome it ended in, for the CLI and HTTP layers to render.
type Result struct {
	Outcome          Outcome
	ValidationErrors []intent.ValidationError
	IntentID         string
	RunID            string
	PolicyDecision   policy.Decision
	RunResult        jobs.RunResult
	Manifest         evidence.Manifest
	ManifestDigest   string
	ManifestPath     string
	Receipt          receipt.Receipt
	RefusalRecord    map[string]any
}

// Pipeline runs one intent at a time through the full sequence. It holds
// no per-run mutable state: every field is immutable configuration or a
// port shared safely across concurrent Run calls (the AppendLog files are
// the only shared mutable resource, and they linearize via their own
// lock).
type Pipeline struct {
	cfg Config
}

func (p *Pipeline) appendLine(target string, line []byte) error {
	if p.cfg.NoLock {
		return appendlog.AppendFast(target, line)
	}
	return appendlog.Append(target, line)
}

func New(cfg Config) *Pipeline {
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Registry == nil {
		cfg.Registry = jobs.DefaultRegistry()
	}
	return &Pipeline{cfg: cfg}
}

// Run executes the full sequence for one raw intent payload.
func (p *Pipeline) Run(raw []byte) (Result, error) {
	normalized, verrs := intent.Validate(raw, intent.ValidatorConfig{StrictIntentID: p.cfg.StrictIntentID})
	if len(verrs) > 0 {
		return Result{Outcome: OutcomeValidationError, ValidationErrors: verrs}, nil
	}

	engine := policy.NewEngine(p.cfg.PolicyConfig, p.cfg.Clock)
	decision, err := engine.Evaluate(normalized)
	if err != nil {
		return Result{}, fmt.Errorf("policy evaluation: %w", err)
	}

	runID, err := ids.RunID(normalized.IntentID, normalized.JobType, normalized.Inputs)
	if err != nil {
		return Result{}, fmt.Errorf("derive runId: %w", err)
	}

	if !decision.Allowed {
		record := map[string]any{
			"timestamp":     p.cfg.Clock.Now().UTC().Format(time.RFC3339),
			"intentId":      normalized.IntentID,
			"runId":         runID,
			"jobType":       normalized.JobType,
			"requester":     normalized.Requester,
			"reasons":       decision.Reasons,
			"intentVersion": normalized.IntentVersion,
		}
		line, err := canon.Marshal(record)
		if err != nil {
			return Result{}, fmt.Errorf("encode refusal record: %w", err)
		}
		if err := p.appendLine(p.cfg.RefusalsPath, line); err != nil {
			return Result{}, fmt.Errorf("append refusal: %w", err)
		}
		return Result{
			Outcome:        OutcomeRefused,
			IntentID:       normalized.IntentID,
			RunID:          runID,
			PolicyDecision: decision,
			RefusalRecord:  record,
		}, nil
	}

	runDir := filepath.Join(p.cfg.DataDir, "runs", runID)
	store := artifactstore.New(runDir)
	if err := store.EnsureDir("artifacts"); err != nil {
		return Result{}, fmt.Errorf("prepare artifacts directory: %w", err)
	}

	runResult := p.cfg.Registry.Execute(jobs.RunContext{
		IntentID:  normalized.IntentID,
		RunID:     runID,
		JobType:   normalized.JobType,
		DataDir:   p.cfg.DataDir,
		Store:     store,
		Requester: normalized.Requester,
	}, normalized.Inputs)

	builder := evidence.NewBuilder(runDir)
	execSummary := evidence.ExecutionSummary{Status: runResult.Status, Error: runResult.Error}
	reasons := decision.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	built, err := builder.Build(evidence.BuildInput{
		IntentID:         normalized.IntentID,
		RunID:            runID,
		JobType:          normalized.JobType,
		CreatedAt:        p.cfg.Clock.Now().UTC().Format(time.RFC3339),
		PolicyDecision:   evidence.PolicyDecision{Allowed: decision.Allowed, Reasons: reasons},
		ExecutionSummary: execSummary,
		Solver:           p.cfg.Service,
	})
	if err != nil {
		return Result{}, fmt.Errorf("build evidence manifest: %w", err)
	}

	if p.cfg.SchemaValidator != nil {
		manifestBytes, marshalErr := canon.Marshal(built.Manifest)
		if marshalErr == nil {
			if schemaErrs := p.cfg.SchemaValidator.Validate(manifestBytes); len(schemaErrs) > 0 {
				return Result{}, fmt.Errorf("manifest failed schema validation: %v", schemaErrs)
			}
		}
	}

	delivered := make([]receipt.DeliveredArtifact, 0, len(built.Manifest.Artifacts))
	for _, a := range built.Manifest.Artifacts {
		delivered = append(delivered, receipt.DeliveredArtifact{Path: a.Path, SHA256: a.SHA256})
	}

	rcpt := receipt.Build(receipt.BuildInput{
		IntentID:       normalized.IntentID,
		RunID:          runID,
		Status:         runResult.Status,
		Delivered:      delivered,
		ManifestSHA256: built.ManifestDigest,
		ManifestPath:   built.ManifestPath,
		CreatedAt:      p.cfg.Clock.Now().UTC().Format(time.RFC3339),
	})

	if p.cfg.Signer != nil {
		rcpt, err = receipt.Sign(rcpt, p.cfg.Signer)
		if err != nil {
			return Result{}, fmt.Errorf("sign receipt: %w", err)
		}
	}

	receiptLine, err := receipt.CanonicalBytes(rcpt)
	if err != nil {
		return Result{}, fmt.Errorf("encode receipt: %w", err)
	}
	if err := p.appendLine(p.cfg.ReceiptsPath, receiptLine); err != nil {
		return Result{}, fmt.Errorf("append receipt: %w", err)
	}

	outcome := OutcomeSuccess
	if runResult.Status == jobs.StatusFailed {
		outcome = OutcomeExecutionFailed
	}

	return Result{
		Outcome:        outcome,
		IntentID:       normalized.IntentID,
		RunID:          runID,
		PolicyDecision: decision,
		RunResult:      runResult,
		Manifest:       built.Manifest,
		ManifestDigest: built.ManifestDigest,
		ManifestPath:   built.ManifestPath,
		Receipt:        rcpt,
	}, nil
}
