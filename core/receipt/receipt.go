// Package receipt assembles the structured pointer from an intent to its
// evidence: spec.md §3 Receipt, tying core/ids's receiptId formula,
// core/evidence's manifest digest, and core/signer together into one
// emission step run after the manifest rename.
package receipt

import (
	"encoding/hex"

	"github.com/accord-protocol/solverd/core/canon"
	"github.com/accord-protocol/solverd/core/ids"
	"github.com/accord-protocol/solverd/core/signer"
)

const ReceiptVersion = "0.1.0"

// DeliveredArtifact is one entry of Receipt.Delivered.
type DeliveredArtifact struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

// EvidenceRef points a receipt at its manifest.
type EvidenceRef struct {
	ManifestSHA256 string `json:"manifestSha256"`
	ManifestPath   string `json:"manifestPath"`
}

// SignatureBlock is the optional {r, s, v} signature over the receipt.
type SignatureBlock struct {
	R string `json:"r"`
	S string `json:"s"`
	V byte   `json:"v"`
}

// Receipt is spec.md §3's Receipt / §6's receipt record schema.
type Receipt struct {
	ReceiptVersion string              `json:"receiptVersion"`
	ReceiptID      string              `json:"receiptId"`
	IntentID       string              `json:"intentId"`
	RunID          string              `json:"runId"`
	Status         string              `json:"status"`
	Delivered      []DeliveredArtifact `json:"delivered"`
	Evidence       EvidenceRef         `json:"evidence"`
	CreatedAt      string              `json:"createdAt"`
	Signature      *SignatureBlock     `json:"signature,omitempty"`
}

// BuildInput carries what Build needs beyond the derived receiptId.
type BuildInput struct {
	IntentID       string
	RunID          string
	Status         string
	Delivered      []DeliveredArtifact
	ManifestSHA256 string
	ManifestPath   string
	CreatedAt      string
}

// Build derives receiptId and assembles the unsigned Receipt. Signing, if
// configured, is a separate step (Sign) so the unsigned receipt can still
// be recorded when no signer is wired.
func Build(in BuildInput) Receipt {
	receiptID := ids.ReceiptID(in.IntentID, in.RunID, in.ManifestSHA256)
	return Receipt{
		ReceiptVersion: ReceiptVersion,
		ReceiptID:      receiptID,
		IntentID:       in.IntentID,
		RunID:          in.RunID,
		Status:         in.Status,
		Delivered:      in.Delivered,
		Evidence:       EvidenceRef{ManifestSHA256: in.ManifestSHA256, ManifestPath: in.ManifestPath},
		CreatedAt:      in.CreatedAt,
	}
}

// Sign signs the receipt's manifestSha256 digest bytes and attaches the
// resulting signature. It is consulted by the receipt-emission path, after
// the manifest rename, per spec.md §5's ordering.
func Sign(r Receipt, port signer.Port) (Receipt, error) {
	digestBytes, err := hex.DecodeString(r.Evidence.ManifestSHA256)
	if err != nil {
		return r, err
	}
	var digest [32]byte
	copy(digest[:], digestBytes)

	sig, err := port.Sign(digest)
	if err != nil {
		return r, err
	}
	r.Signature = &SignatureBlock{
		R: hex.EncodeToString(sig.R[:]),
		S: hex.EncodeToString(sig.S[:]),
		V: sig.V,
	}
	return r, nil
}

// CanonicalBytes returns the receipt's canonical JSON encoding, the form
// written as one JSONL line.
func CanonicalBytes(r Receipt) ([]byte, error) {
	return canon.Marshal(r)
}
