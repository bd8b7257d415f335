package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accord-protocol/solverd/core/clock"
	"github.com/accord-protocol/solverd/core/evidence"
	"github.com/accord-protocol/solverd/core/policy"
)

func baseConfig(t *testing.T, dataDir string) Config {
	t.Helper()
	return Config{
		DataDir:      dataDir,
		ReceiptsPath: filepath.Join(dataDir, "receipts.jsonl"),
		RefusalsPath: filepath.Join(dataDir, "refusals.jsonl"),
		PolicyConfig: policy.Config{
			JobTypeAllowlist:     []string{"SAFE_REPORT"},
			MaxArtifactMegabytes: 5,
		},
		Service: evidence.SolverIdentity{Service: "solverd", ServiceVersion: "0.1.0"},
		Clock:   clock.Fixed{},
	}
}

const s1Fixture = `{"intentVersion":"0.1.0","requester":"test@example.com","createdAt":"2026-01-01T00:00:00.000Z","jobType":"SAFE_REPORT","inputs":{"subject":"Hi","data":{"k":"v"}}}`

func TestRunAcceptedPathProducesTwoArtifactsAndValidEvidence(t *testing.T) {
	dir := t.TempDir()
	p := New(baseConfig(t, dir))
	result, err := p.Run([]byte(s1Fixture))
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, result.Outcome)
	require.Len(t, result.Manifest.Artifacts, 2)
	require.Equal(t, "artifacts/report.json", result.Manifest.Artifacts[0].Path)
	require.Equal(t, "artifacts/report.md", result.Manifest.Artifacts[1].Path)

	validator := evidence.NewValidator(nil)
	report := validator.Validate(filepath.Join(dir, "runs", result.RunID))
	require.True(t, report.Valid)
}

func TestRunIsReproducibleAcrossSeparateDataDirs(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	resultA, err := New(baseConfig(t, dirA)).Run([]byte(s1Fixture))
	require.NoError(t, err)
	resultB, err := New(baseConfig(t, dirB)).Run([]byte(s1Fixture))
	require.NoError(t, err)

	require.Equal(t, resultA.RunID, resultB.RunID)
	require.Equal(t, resultA.ManifestDigest, resultB.ManifestDigest)
	require.Equal(t, resultA.Manifest.Artifacts[0].SHA256, resultB.Manifest.Artifacts[0].SHA256)
}

func TestRunRefusalCollectsAllThreeReasons(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir)
	cfg.PolicyConfig.RequesterAllowlist = []string{"only-allowed@example.com"}
	cfg.Clock = clock.Fixed{At: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
	fixture := `{"intentVersion":"0.1.0","requester":"test@example.com","createdAt":"2026-01-01T00:00:00.000Z","expiresAt":"2020-01-01T00:00:00Z","jobType":"UNKNOWN","inputs":{"subject":"Hi","data":{"k":"v"}}}`

	result, err := New(cfg).Run([]byte(fixture))
	require.NoError(t, err)
	require.Equal(t, OutcomeRefused, result.Outcome)
	require.Len(t, result.PolicyDecision.Reasons, 3)

	_, statErr := os.Stat(filepath.Join(dir, "runs"))
	require.True(t, os.IsNotExist(statErr))

	raw, err := os.ReadFile(cfg.RefusalsPath)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(raw[:len(raw)-1], &record))
	require.Equal(t, "UNKNOWN", record["jobType"])
}

func TestRunValidationErrorForMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	result, err := New(baseConfig(t, dir)).Run([]byte(`{not json`))
	require.NoError(t, err)
	require.Equal(t, OutcomeValidationError, result.Outcome)
	require.NotEmpty(t, result.ValidationErrors)
}
