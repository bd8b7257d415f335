// Package policy implements the all-reasons policy gate: given a
// NormalizedIntent, decide whether it may proceed, collecting every failing
// check rather than short-circuiting on the first.
package policy

import (
	"fmt"
	"time"

	"github.com/accord-protocol/solverd/core/canon"
	"github.com/accord-protocol/solverd/core/clock"
	"github.com/accord-protocol/solverd/core/intent"
)

// Decision is the PolicyDecision of spec.md §3: Allowed is false iff
// Reasons is non-empty.
type Decision struct {
	Allowed bool
	Reasons []string
}

// Config configures the four checks spec.md §4.4 enumerates, evaluated in
// this fixed order so PolicyDecision.Reasons is stable across runs.
type Config struct {
	JobTypeAllowlist     []string
	RequesterAllowlist   []string // empty means unconfigured: check is skipped
	MaxArtifactMegabytes int
}

// Engine evaluates a Config against a NormalizedIntent using an injected
// Clock so expiry is deterministic under test and never touches wall-clock
// time outside the port.
type Engine struct {
	cfg   Config
	clock clock.Clock
}

func NewEngine(cfg Config, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Engine{cfg: cfg, clock: clk}
}

// Evaluate runs every configured check against n and returns a Decision
// with all failing reasons, in the order: jobType_allowlist, expiry,
// requester_allowlist, inputs_size.
func (e *Engine) Evaluate(n *intent.NormalizedIntent) (Decision, error) {
	var reasons []string

	if reason := e.checkJobTypeAllowlist(n); reason != "" {
		reasons = append(reasons, reason)
	}
	if reason := e.checkExpiry(n); reason != "" {
		reasons = append(reasons, reason)
	}
	if reason := e.checkRequesterAllowlist(n); reason != "" {
		reasons = append(reasons, reason)
	}
	reason, err := e.checkInputsSize(n)
	if err != nil {
		return Decision{}, err
	}
	if reason != "" {
		reasons = append(reasons, reason)
	}

	return Decision{Allowed: len(reasons) == 0, Reasons: reasons}, nil
}

func (e *Engine) checkJobTypeAllowlist(n *intent.NormalizedIntent) string {
	if len(e.cfg.JobTypeAllowlist) == 0 {
		return ""
	}
	for _, allowed := range e.cfg.JobTypeAllowlist {
		if allowed == n.JobType {
			return ""
		}
	}
	return fmt.Sprintf("jobType '%s' not in allowlist [%s]", n.JobType, joinList(e.cfg.JobTypeAllowlist))
}

func (e *Engine) checkExpiry(n *intent.NormalizedIntent) string {
	if n.ExpiresAt == "" {
		return ""
	}
	expiry, err := time.Parse(time.RFC3339, n.ExpiresAt)
	if err != nil {
		return ""
	}
	if expiry.Before(e.clock.Now()) {
		return fmt.Sprintf("intent expired at %s", n.ExpiresAt)
	}
	return ""
}

func (e *Engine) checkRequesterAllowlist(n *intent.NormalizedIntent) string {
	if len(e.cfg.RequesterAllowlist) == 0 {
		return ""
	}
	for _, allowed := range e.cfg.RequesterAllowlist {
		if allowed == n.Requester {
			return ""
		}
	}
	return fmt.Sprintf("requester '%s' not in allowlist", n.Requester)
}

func (e *Engine) checkInputsSize(n *intent.NormalizedIntent) (string, error) {
	canonical, err := canon.Marshal(n.Inputs)
	if err != nil {
		return "", err
	}
	maxBytes := e.cfg.MaxArtifactMegabytes * 1024 * 1024
	size := len(canonical)
	if size > maxBytes {
		return fmt.Sprintf("inputs size %d bytes exceeds max %d bytes (%d MB)", size, maxBytes, e.cfg.MaxArtifactMegabytes), nil
	}
	return "", nil
}

func joinList(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
