package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/accord-protocol/solverd/core/artifactstore"
	"github.com/accord-protocol/solverd/core/canon"
	accorderrors "github.com/accord-protocol/solverd/core/errors"
)

// Builder assembles, digests, and persists an evidence bundle rooted at a
// single run directory (dataDir/runs/{runId}).
type Builder struct {
	runDir string
	store  *artifactstore.Store
}

func NewBuilder(runDir string) *Builder {
	return &Builder{runDir: runDir, store: artifactstore.New(runDir)}
}

// BuildInput carries everything the manifest needs beyond the artifact
// listing itself, which Build derives by walking runDir/artifacts.
type BuildInput struct {
	IntentID         string
	RunID            string
	JobType          string
	CreatedAt        string
	PolicyDecision   PolicyDecision
	ExecutionSummary ExecutionSummary
	Solver           SolverIdentity
}

// Result is what Build returns: the manifest, its digest, and the paths it
// wrote.
type Result struct {
	Manifest       Manifest
	ManifestDigest string
	ManifestPath   string
	DigestPath     string
}

// Build enumerates runDir/artifacts, hashes every file by streaming chunks,
// sorts entries by path ascending, assembles the manifest, computes
// ManifestDigest over the canonical manifest with createdAt excluded, and
// atomically writes manifest.json and manifest.sha256.
func (b *Builder) Build(in BuildInput) (Result, error) {
	paths, err := b.store.ListFilesRecursive("artifacts")
	if err != nil {
		return Result{}, err
	}

	entries := make([]ArtifactEntry, 0, len(paths))
	for _, relPath := range paths {
		entry, err := b.hashArtifact(relPath)
		if err != nil {
			return Result{}, err
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	manifest := Manifest{
		ManifestVersion:  ManifestVersion,
		IntentID:         in.IntentID,
		RunID:            in.RunID,
		JobType:          in.JobType,
		CreatedAt:        in.CreatedAt,
		Artifacts:        entries,
		PolicyDecision:   in.PolicyDecision,
		ExecutionSummary: in.ExecutionSummary,
		Solver:           in.Solver,
	}

	digest, err := canon.Digest(manifest.forDigest())
	if err != nil {
		return Result{}, err
	}

	manifestJSON, err := marshalWithCreatedAt(manifest)
	if err != nil {
		return Result{}, err
	}

	if _, err := b.store.WriteArtifact("evidence/manifest.json", append(manifestJSON, '\n')); err != nil {
		return Result{}, err
	}
	if _, err := b.store.WriteArtifact("evidence/manifest.sha256", []byte(digest+"\n")); err != nil {
		return Result{}, err
	}

	return Result{
		Manifest:       manifest,
		ManifestDigest: digest,
		ManifestPath:   filepath.Join(b.runDir, "evidence", "manifest.json"),
		DigestPath:     filepath.Join(b.runDir, "evidence", "manifest.sha256"),
	}, nil
}

// marshalWithCreatedAt writes the full manifest, including createdAt,
// through the same canonical encoder used for the digest so the bytes on
// disk are the canonical form plus a single trailing newline (the newline
// is stripped before hashing by any reader that re-canonicalizes).
func marshalWithCreatedAt(m Manifest) ([]byte, error) {
	full := m.forDigest()
	full["createdAt"] = m.CreatedAt
	return canon.Marshal(full)
}

const maxArtifactFileBytes = 512 * 1024 * 1024

func (b *Builder) hashArtifact(relPath string) (ArtifactEntry, error) {
	absPath, ok := artifactstore.SafeJoin(b.runDir, relPath)
	if !ok {
		return ArtifactEntry{}, accorderrors.Wrap(os.ErrInvalid, accorderrors.CategoryIntegrity, "unsafe_path", "artifact path failed safety check", false)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return ArtifactEntry{}, accorderrors.Wrap(err, accorderrors.CategoryIO, "open_failed", "check the file exists and is readable", false)
	}
	defer f.Close()

	hasher := sha256.New()
	limited := io.LimitReader(f, maxArtifactFileBytes+1)
	written, err := io.Copy(hasher, limited)
	if err != nil {
		return ArtifactEntry{}, accorderrors.Wrap(err, accorderrors.CategoryIO, "hash_failed", "check disk health", true)
	}
	if written > maxArtifactFileBytes {
		return ArtifactEntry{}, accorderrors.Wrap(os.ErrInvalid, accorderrors.CategoryIO, "artifact_too_large", "split the artifact or raise the limit", false)
	}

	return ArtifactEntry{
		Path:        relPath,
		SHA256:      hex.EncodeToString(hasher.Sum(nil)),
		Bytes:       written,
		ContentType: contentTypeFor(relPath),
	}, nil
}

func contentTypeFor(relPath string) string {
	switch strings.ToLower(path.Ext(relPath)) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
