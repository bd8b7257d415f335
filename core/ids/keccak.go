package ids

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// KeccakReceiptID implements the on-chain alignment hook: keccak256 over
// intentHash || solverId || big-endian createdAt. It is not used by any
// off-chain artifact; off-chain identifiers are exclusively SHA-256 via
// IntentID/RunID/ReceiptID in ids.go. It lives in the same package, so
// every importer of core/ids links golang.org/x/crypto/sha3.
func KeccakReceiptID(intentHash []byte, solverID []byte, createdAtUnix int64) ([]byte, error) {
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(createdAtUnix))

	h := sha3.NewLegacyKeccak256()
	h.Write(intentHash)
	h.Write(solverID)
	h.Write(ts)
	return h.Sum(nil), nil
}

// NewKeccakAlignment wires KeccakReceiptID into the KeccakAlignment port
// defined in ids.go.
func NewKeccakAlignment() KeccakAlignment {
	return KeccakAlignment{Hash: KeccakReceiptID}
}
