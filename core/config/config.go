// Package config loads the solver's runtime configuration: the enumerated
// environment variables of spec.md §6, optionally overridden by a YAML
// file using github.com/goccy/go-yaml, the same library the teacher's
// project config loader uses. File values override environment values.
// Unknown keys in either source are ignored.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	DataDir              string   `yaml:"data_dir"`
	PolicyJobTypeAllow   []string `yaml:"policy_jobtype_allowlist"`
	PolicyMaxArtifactMB  int      `yaml:"policy_max_artifact_mb"`
	PolicyRequesterAllow []string `yaml:"policy_requester_allowlist"`
	ReceiptsPath         string   `yaml:"receipts_path"`
	RefusalsPath         string   `yaml:"refusals_path"`
	EvidenceDir          string   `yaml:"evidence_dir"`
	StrictIntentID       bool     `yaml:"strict_intent_id"`
}

const (
	defaultDataDir             = "./data"
	defaultPolicyMaxArtifactMB = 5
	defaultJobTypeAllowlistCSV = "SAFE_REPORT"
)

// fileOverlay mirrors Config's fields as pointers/slices so "absent" is
// distinguishable from "explicitly zero" when merging the file over env.
type fileOverlay struct {
	DataDir              *string  `yaml:"data_dir"`
	PolicyJobTypeAllow   []string `yaml:"policy_jobtype_allowlist"`
	PolicyMaxArtifactMB  *int     `yaml:"policy_max_artifact_mb"`
	PolicyRequesterAllow []string `yaml:"policy_requester_allowlist"`
	ReceiptsPath         *string  `yaml:"receipts_path"`
	RefusalsPath         *string  `yaml:"refusals_path"`
	EvidenceDir          *string  `yaml:"evidence_dir"`
	StrictIntentID       *bool    `yaml:"strict_intent_id"`
}

// Load builds a Config from the environment, then merges an optional YAML
// file over it. filePath may be empty, meaning no file is consulted; a
// non-empty path that does not exist is an error (an explicitly requested
// file that is missing is a configuration mistake, unlike env vars which
// are always optional).
func Load(filePath string) (Config, error) {
	cfg := fromEnv()

	if strings.TrimSpace(filePath) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(content, &overlay); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	applyOverlay(&cfg, overlay)
	return cfg, nil
}

func fromEnv() Config {
	dataDir := envOr("DATA_DIR", defaultDataDir)
	return Config{
		DataDir:              dataDir,
		PolicyJobTypeAllow:   splitCSV(envOr("POLICY_JOBTYPE_ALLOWLIST", defaultJobTypeAllowlistCSV)),
		PolicyMaxArtifactMB:  envIntOr("POLICY_MAX_ARTIFACT_MB", defaultPolicyMaxArtifactMB),
		PolicyRequesterAllow: splitCSV(os.Getenv("POLICY_REQUESTER_ALLOWLIST")),
		ReceiptsPath:         envOr("RECEIPTS_PATH", filepath.Join(dataDir, "receipts.jsonl")),
		RefusalsPath:         envOr("REFUSALS_PATH", filepath.Join(dataDir, "refusals.jsonl")),
		EvidenceDir:          envOr("EVIDENCE_DIR", filepath.Join(dataDir, "runs")),
	}
}

func applyOverlay(cfg *Config, overlay fileOverlay) {
	if overlay.DataDir != nil {
		cfg.DataDir = *overlay.DataDir
	}
	if len(overlay.PolicyJobTypeAllow) > 0 {
		cfg.PolicyJobTypeAllow = overlay.PolicyJobTypeAllow
	}
	if overlay.PolicyMaxArtifactMB != nil {
		cfg.PolicyMaxArtifactMB = *overlay.PolicyMaxArtifactMB
	}
	if len(overlay.PolicyRequesterAllow) > 0 {
		cfg.PolicyRequesterAllow = overlay.PolicyRequesterAllow
	}
	if overlay.ReceiptsPath != nil {
		cfg.ReceiptsPath = *overlay.ReceiptsPath
	}
	if overlay.RefusalsPath != nil {
		cfg.RefusalsPath = *overlay.RefusalsPath
	}
	if overlay.EvidenceDir != nil {
		cfg.EvidenceDir = *overlay.EvidenceDir
	}
	if overlay.StrictIntentID != nil {
		cfg.StrictIntentID = *overlay.StrictIntentID
	}
}

// Validate checks the invariants spec.md §6 implies but does not spell
// out as error conditions: a positive artifact cap and a non-empty data
// directory.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.PolicyMaxArtifactMB <= 0 {
		return fmt.Errorf("config: policy_max_artifact_mb must be a positive integer")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
