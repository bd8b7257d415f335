package main

import (
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/accord-protocol/solverd/core/clock"
	"github.com/accord-protocol/solverd/core/config"
	"github.com/accord-protocol/solverd/core/evidence"
	"github.com/accord-protocol/solverd/core/pipeline"
	"github.com/accord-protocol/solverd/core/policy"
	"github.com/accord-protocol/solverd/core/signer"
	"github.com/accord-protocol/solverd/internal/obslog"
)

type runFixtureOutput struct {
	OK             bool             `json:"ok"`
	Outcome        string           `json:"outcome,omitempty"`
	IntentID       string           `json:"intentId,omitempty"`
	RunID          string           `json:"runId,omitempty"`
	PolicyReasons  []string         `json:"policyReasons,omitempty"`
	ManifestDigest string           `json:"manifestSha256,omitempty"`
	ReceiptID      string           `json:"receiptId,omitempty"`
	Errors         []fieldError     `json:"errors,omitempty"`
	Error          *structuredError `json:"error,omitempty"`
}

func runRunFixture(arguments []string, correlationID string) int {
	flagSet := pflag.NewFlagSet("run-fixture", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var configPath string
	var strict bool
	var sign bool
	var noLock bool
	var helpFlag bool
	flagSet.StringVar(&configPath, "config", "", "optional YAML config file path")
	flagSet.BoolVar(&strict, "strict-intent-id", false, "reject a supplied intentId that does not match the computed value")
	flagSet.BoolVar(&sign, "sign", false, "sign the receipt with an in-process secp256k1 key")
	flagSet.BoolVar(&noLock, "no-lock", false, "use the non-durable appendFast variant (unsafe for concurrent writers)")
	flagSet.BoolVarP(&helpFlag, "help", "h", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeJSONWithExit(runFixtureOutput{Error: newStructuredError("flag_parse_error", "", err)}, exitOther)
	}
	if helpFlag {
		printUsage()
		return exitOK
	}

	args := flagSet.Args()
	if len(args) != 1 {
		return writeJSONWithExit(runFixtureOutput{Error: newStructuredErrorMsg("missing_argument", "", "expected exactly one <file> argument")}, exitOther)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return writeJSONWithExit(runFixtureOutput{Error: newStructuredError("read_failed", "", err)}, exitOther)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return writeJSONWithExit(runFixtureOutput{Error: newStructuredError("config_load_error", "", err)}, exitOther)
	}

	logger := obslog.New().With("correlationId", correlationID)

	var signerPort signer.Port
	if sign {
		signerPort, err = signer.NewInProcessSigner()
		if err != nil {
			return writeJSONWithExit(runFixtureOutput{Error: newStructuredError("signer_init_failed", "", err)}, exitOther)
		}
	}

	schema, err := evidence.CompileManifestSchema()
	if err != nil {
		return writeJSONWithExit(runFixtureOutput{Error: newStructuredError("schema_compile_failed", "", err)}, exitOther)
	}

	p := pipeline.New(pipeline.Config{
		DataDir:      cfg.DataDir,
		ReceiptsPath: cfg.ReceiptsPath,
		RefusalsPath: cfg.RefusalsPath,
		PolicyConfig: policy.Config{
			JobTypeAllowlist:     cfg.PolicyJobTypeAllow,
			RequesterAllowlist:   cfg.PolicyRequesterAllow,
			MaxArtifactMegabytes: cfg.PolicyMaxArtifactMB,
		},
		StrictIntentID:  strict,
		Service:         evidence.SolverIdentity{Service: "solverd", ServiceVersion: version, GitCommit: gitCommit},
		Clock:           clock.SystemClock{},
		Signer:          signerPort,
		SchemaValidator: schema,
		NoLock:          noLock,
	})

	result, err := p.Run(raw)
	if err != nil {
		logger.Error("run-fixture failed", "error", err.Error())
		return writeJSONWithExit(runFixtureOutput{Error: newStructuredError("pipeline_error", "", err)}, exitOther)
	}

	logger = obslog.WithCorrelation(logger, result.IntentID, result.RunID, result.Receipt.ReceiptID)

	switch result.Outcome {
	case pipeline.OutcomeValidationError:
		out := make([]fieldError, 0, len(result.ValidationErrors))
		for _, e := range result.ValidationErrors {
			out = append(out, fieldError{Path: e.Path, Message: e.Message})
		}
		logger.Warn("intent failed validation")
		return writeJSONWithExit(runFixtureOutput{Outcome: string(result.Outcome), Errors: out}, exitOther)
	case pipeline.OutcomeRefused:
		logger.Info("intent refused by policy", "reasons", result.PolicyDecision.Reasons)
		return writeJSONWithExit(runFixtureOutput{
			OK:            false,
			Outcome:       string(result.Outcome),
			IntentID:      result.IntentID,
			RunID:         result.RunID,
			PolicyReasons: result.PolicyDecision.Reasons,
		}, exitPolicyRefusal)
	case pipeline.OutcomeExecutionFailed:
		logger.Error("job execution failed", "error", result.RunResult.Error)
		return writeJSONWithExit(runFixtureOutput{
			OK:             false,
			Outcome:        string(result.Outcome),
			IntentID:       result.IntentID,
			RunID:          result.RunID,
			ManifestDigest: result.ManifestDigest,
			ReceiptID:      result.Receipt.ReceiptID,
		}, exitExecutionFailure)
	default:
		logger.Info("run-fixture succeeded")
		return writeJSONWithExit(runFixtureOutput{
			OK:             true,
			Outcome:        string(result.Outcome),
			IntentID:       result.IntentID,
			RunID:          result.RunID,
			ManifestDigest: result.ManifestDigest,
			ReceiptID:      result.Receipt.ReceiptID,
		}, exitOK)
	}
}
