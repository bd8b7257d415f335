// Package evidence implements the EvidenceBuilder and EvidenceValidator:
// manifest assembly, streaming artifact hashing, and the consistency checks
// that decide whether a bundle is internally consistent and unmodified.
package evidence

const ManifestVersion = "0.1.0"

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusRefused = "REFUSED"
)

// ArtifactEntry is spec.md §3's ArtifactEntry: path always begins with
// "artifacts/".
type ArtifactEntry struct {
	Path        string `json:"path"`
	SHA256      string `json:"sha256"`
	Bytes       int64  `json:"bytes"`
	ContentType string `json:"contentType"`
}

// PolicyDecision mirrors core/policy.Decision for embedding in the
// manifest without importing core/policy (manifest has no business logic
// of its own).
type PolicyDecision struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

// ExecutionSummary is the manifest's outcome block.
type ExecutionSummary struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SolverIdentity is stamped into every manifest so a reader can tell which
// build produced it. GitCommit is populated at build time via -ldflags; it
// is never derived from the runtime environment, keeping the manifest
// deterministic.
type SolverIdentity struct {
	Service        string `json:"service"`
	ServiceVersion string `json:"serviceVersion"`
	GitCommit      string `json:"gitCommit,omitempty"`
}

// Manifest is spec.md §3's EvidenceManifest. CreatedAt is informational
// only and is excluded from ManifestDigest.
type Manifest struct {
	ManifestVersion  string           `json:"manifestVersion"`
	IntentID         string           `json:"intentId"`
	RunID            string           `json:"runId"`
	JobType          string           `json:"jobType"`
	CreatedAt        string           `json:"createdAt"`
	Artifacts        []ArtifactEntry  `json:"artifacts"`
	PolicyDecision   PolicyDecision   `json:"policyDecision"`
	ExecutionSummary ExecutionSummary `json:"executionSummary"`
	Solver           SolverIdentity   `json:"solver"`
}

// forDigest returns a map with createdAt omitted, ready for canon.Marshal.
// Returned as map[string]any (not the struct) because canon.Marshal
// re-encodes through encoding/json and map key order is irrelevant to its
// output — only field presence matters, and omitting createdAt here is
// simpler than a parallel struct with an excluded json tag.
func (m Manifest) forDigest() map[string]any {
	return map[string]any{
		"manifestVersion":  m.ManifestVersion,
		"intentId":         m.IntentID,
		"runId":            m.RunID,
		"jobType":          m.JobType,
		"artifacts":        artifactsForDigest(m.Artifacts),
		"policyDecision":   policyForDigest(m.PolicyDecision),
		"executionSummary": executionSummaryForDigest(m.ExecutionSummary),
		"solver":           solverForDigest(m.Solver),
	}
}

func artifactsForDigest(entries []ArtifactEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"path":        e.Path,
			"sha256":      e.SHA256,
			"bytes":       e.Bytes,
			"contentType": e.ContentType,
		})
	}
	return out
}

func policyForDigest(d PolicyDecision) map[string]any {
	reasons := make([]any, 0, len(d.Reasons))
	for _, r := range d.Reasons {
		reasons = append(reasons, r)
	}
	return map[string]any{"allowed": d.Allowed, "reasons": reasons}
}

func executionSummaryForDigest(s ExecutionSummary) map[string]any {
	out := map[string]any{"status": s.Status}
	if s.Error != "" {
		out["error"] = s.Error
	}
	return out
}

func solverForDigest(s SolverIdentity) map[string]any {
	out := map[string]any{"service": s.Service, "serviceVersion": s.ServiceVersion}
	if s.GitCommit != "" {
		out["gitCommit"] = s.GitCommit
	}
	return out
}
