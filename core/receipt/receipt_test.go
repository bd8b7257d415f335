package receipt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accord-protocol/solverd/core/signer"
)

func TestBuildDerivesReceiptIDFromManifestDigest(t *testing.T) {
	r := Build(BuildInput{
		IntentID:       "intent-1",
		RunID:          "run-1",
		Status:         "SUCCESS",
		ManifestSHA256: "aa00000000000000000000000000000000000000000000000000000000000a",
		ManifestPath:   "runs/run-1/evidence/manifest.json",
		CreatedAt:      "2026-01-01T00:00:00Z",
	})
	require.Len(t, r.ReceiptID, 64)
	require.Equal(t, ReceiptVersion, r.ReceiptVersion)
	require.Nil(t, r.Signature)
}

func TestBuildIsDeterministicForSameInputs(t *testing.T) {
	in := BuildInput{IntentID: "i", RunID: "r", Status: "SUCCESS", ManifestSHA256: "aa", ManifestPath: "p", CreatedAt: "t"}
	r1 := Build(in)
	r2 := Build(in)
	require.Equal(t, r1.ReceiptID, r2.ReceiptID)
}

func TestSignAttachesSignatureBlock(t *testing.T) {
	s, err := NewTestSigner(t)
	require.NoError(t, err)

	manifestDigest := strings.Repeat("00", 32)
	r := Build(BuildInput{IntentID: "i", RunID: "r", Status: "SUCCESS", ManifestSHA256: manifestDigest, ManifestPath: "p", CreatedAt: "t"})
	signed, err := Sign(r, s)
	require.NoError(t, err)
	require.NotNil(t, signed.Signature)
	require.True(t, signed.Signature.V == 27 || signed.Signature.V == 28)
}

func TestDedupKeepsFirstOccurrenceOfDuplicateReceiptID(t *testing.T) {
	jsonl := []byte(`{"receiptId":"a","receiptVersion":"0.1.0","intentId":"i1","runId":"r1","status":"SUCCESS","delivered":[],"evidence":{"manifestSha256":"x","manifestPath":"p"},"createdAt":"t1"}
{"receiptId":"a","receiptVersion":"0.1.0","intentId":"i1","runId":"r1","status":"SUCCESS","delivered":[],"evidence":{"manifestSha256":"x","manifestPath":"p"},"createdAt":"t2"}
{"receiptId":"b","receiptVersion":"0.1.0","intentId":"i2","runId":"r2","status":"SUCCESS","delivered":[],"evidence":{"manifestSha256":"y","manifestPath":"p"},"createdAt":"t3"}
`)
	receipts, err := Dedup(jsonl)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.Equal(t, "t1", receipts[0].CreatedAt)
}

func NewTestSigner(t *testing.T) (signer.Port, error) {
	t.Helper()
	return signer.NewInProcessSigner()
}
