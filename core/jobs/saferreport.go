package jobs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/accord-protocol/solverd/core/artifactstore"
	"github.com/accord-protocol/solverd/core/canon"
)

const reportVersion = "1.0.0"

// RunSafeReport is the reference runner for jobType SAFE_REPORT. It writes
// artifacts/report.json and artifacts/report.md, both pure functions of
// inputs, rc.JobType, rc.IntentID, and rc.RunID: no wall clock, no entropy,
// map iteration always in sorted key order.
func RunSafeReport(rc RunContext, inputs map[string]any) RunResult {
	subject, _ := inputs["subject"].(string)
	data, _ := inputs["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	keys := sortedKeys(data)
	summary := buildSummary(keys)
	approxBytes, err := canonicalByteLen(data)
	if err != nil {
		return RunResult{Status: StatusFailed, Error: "could not canonicalize data for stats"}
	}

	report := map[string]any{
		"subject": subject,
		"data":    data,
		"summary": summary,
		"stats": map[string]any{
			"keysCount":   len(keys),
			"approxBytes": approxBytes,
		},
		"generatedBy": map[string]any{
			"jobType":       rc.JobType,
			"intentId":      rc.IntentID,
			"runId":         rc.RunID,
			"reportVersion": reportVersion,
		},
	}

	reportJSON, err := canon.Marshal(report)
	if err != nil {
		return RunResult{Status: StatusFailed, Error: "could not canonicalize report.json"}
	}
	reportMD := []byte(renderMarkdown(subject, keys, data, summary, rc))

	_, err = rc.Store.WriteArtifactsBatch([]artifactstore.BatchEntry{
		{Path: "artifacts/report.json", Content: reportJSON},
		{Path: "artifacts/report.md", Content: reportMD},
	})
	if err != nil {
		return RunResult{Status: StatusFailed, Error: "could not write report artifacts"}
	}

	return RunResult{
		Status: StatusSuccess,
		Artifacts: []ArtifactInfo{
			{Path: "artifacts/report.json", Bytes: int64(len(reportJSON))},
			{Path: "artifacts/report.md", Bytes: int64(len(reportMD))},
		},
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func canonicalByteLen(v any) (int, error) {
	b, err := canon.Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// buildSummary implements spec.md §4.6's three-way rule: empty, 1-5 keys,
// or 6+ keys (first five listed, total reported).
func buildSummary(keys []string) string {
	switch n := len(keys); {
	case n == 0:
		return "Empty data object - no keys to report."
	case n <= 5:
		return fmt.Sprintf("Report contains %d key(s): %s.", n, strings.Join(keys, ", "))
	default:
		return fmt.Sprintf("Report contains %d key(s). First 5: %s.", n, strings.Join(keys[:5], ", "))
	}
}

func renderMarkdown(subject string, keys []string, data map[string]any, summary string, rc RunContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Report: %s\n\n", subject)
	fmt.Fprintf(&b, "%s\n\n", summary)
	b.WriteString("## Data\n\n")
	if len(keys) == 0 {
		b.WriteString("(no keys)\n\n")
	} else {
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %v\n", k, data[k])
		}
		b.WriteString("\n")
	}
	b.WriteString("## Generated by\n\n")
	fmt.Fprintf(&b, "- jobType: %s\n", rc.JobType)
	fmt.Fprintf(&b, "- intentId: %s\n", rc.IntentID)
	fmt.Fprintf(&b, "- runId: %s\n", rc.RunID)
	fmt.Fprintf(&b, "- reportVersion: %s\n", reportVersion)
	return b.String()
}
