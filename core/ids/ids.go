// Package ids implements the three SHA-256 identifier formulas that bind an
// intent to its run and a run to its evidence. All three are pure: no I/O,
// no clock, no entropy. Passing the same inputs on any host yields the same
// hex string.
package ids

import (
	"github.com/accord-protocol/solverd/core/canon"
)

// IntentID derives intentId = SHA256("intent:" || intentVersion || ":" ||
// requester || ":" || canonical(jobType) || ":" || canonical(inputs) || ":"
// || canonical(constraints ?? {})). createdAt, expiresAt, meta, and
// acceptanceCriteria never enter the preimage.
func IntentID(intentVersion, requester, jobType string, inputs any, constraints any) (string, error) {
	if constraints == nil {
		constraints = map[string]any{}
	}

	jobTypeCanon, err := canon.Marshal(jobType)
	if err != nil {
		return "", err
	}
	inputsCanon, err := canon.Marshal(inputs)
	if err != nil {
		return "", err
	}
	constraintsCanon, err := canon.Marshal(constraints)
	if err != nil {
		return "", err
	}

	preimage := "intent:" + intentVersion + ":" + requester + ":" +
		string(jobTypeCanon) + ":" + string(inputsCanon) + ":" + string(constraintsCanon)
	return canon.DigestBytes([]byte(preimage)), nil
}

// RunID derives runId = SHA256("run:" || intentId || ":" || jobType || ":"
// || canonical(inputs)).
func RunID(intentID, jobType string, inputs any) (string, error) {
	inputsCanon, err := canon.Marshal(inputs)
	if err != nil {
		return "", err
	}
	preimage := "run:" + intentID + ":" + jobType + ":" + string(inputsCanon)
	return canon.DigestBytes([]byte(preimage)), nil
}

// ReceiptID derives receiptId = SHA256("receipt:" || intentId || ":" ||
// runId || ":" || manifestSha256).
func ReceiptID(intentID, runID, manifestSHA256 string) string {
	preimage := "receipt:" + intentID + ":" + runID + ":" + manifestSHA256
	return canon.DigestBytes([]byte(preimage))
}

// KeccakAlignment is the preimage description for the on-chain-facing
// receiptId alternative named in the port below: keccak256(abi.encode(
// intentHash, solverId, createdAt)). solverId and createdAt are supplied by
// the caller; createdAt here is the on-chain timestamp, distinct from the
// off-chain Intent.createdAt which never enters any identifier.
type KeccakAlignment struct {
	// Hash computes keccak256 over the concatenation of intentHash (32
	// bytes), solverId (opaque bytes), and createdAt (Unix seconds,
	// big-endian). The implementation lives in core/ids/keccak.go, built
	// on golang.org/x/crypto/sha3; IntentID, RunID, and ReceiptID above
	// use SHA-256 only.
	Hash func(intentHash []byte, solverID []byte, createdAtUnix int64) ([]byte, error)
}
