// Package signer implements the SignerPort of spec.md §4.10: signing a
// 32-byte digest with a secp256k1 key, returning an Ethereum-style {r, s,
// v} signature with EIP-2 low-S normalization, plus publicKey()/address()
// derivations. github.com/decred/dcrd/dcrec/secp256k1/v4 is not present
// anywhere in the example retrieval pack (see DESIGN.md); this package is
// the one place that ecosystem gap is filled. golang.org/x/crypto/sha3
// supplies keccak256 for the address derivation.
package signer

import (
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// Signature is the {r, s, v} triple of spec.md §4.10: s is normalized to
// the lower half of the curve order, v is 27 or 28.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// Port is the interface both adapters (in-process, KMS) implement. It is
// consulted by the receipt-emission path, after the manifest rename.
type Port interface {
	// Sign signs digest (exactly 32 bytes) and returns a low-S-normalized
	// signature with v in {27, 28}.
	Sign(digest [32]byte) (Signature, error)
	// PublicKey returns the uncompressed public key (65 bytes, 0x04
	// prefix) corresponding to the signing key.
	PublicKey() ([]byte, error)
	// Address returns the low 20 bytes of keccak256(uncompressed public
	// key without its 0x04 prefix).
	Address() ([20]byte, error)
}

// secp256k1HalfOrder is the curve order N divided by 2 (EIP-2): any s
// greater than this is malleable and must be rejected/normalized.
var secp256k1HalfOrder = new(big.Int).Rsh(secp256k1.S256().N, 1)

// normalizeLowS returns s if it is already in the lower half of the curve
// order, or N-s otherwise, along with whether it flipped (callers must flip
// their recovery id's parity when it does).
func normalizeLowS(s *big.Int) (*big.Int, bool) {
	if s.Cmp(secp256k1HalfOrder) <= 0 {
		return s, false
	}
	return new(big.Int).Sub(secp256k1.S256().N, s), true
}

// deriveAddress computes the keccak256-based Ethereum-style address from
// an uncompressed public key (65 bytes, leading 0x04).
func deriveAddress(uncompressedPubKey []byte) ([20]byte, error) {
	if len(uncompressedPubKey) != 65 || uncompressedPubKey[0] != 0x04 {
		return [20]byte{}, fmt.Errorf("signer: expected 65-byte uncompressed public key")
	}
	hash := sha3.NewLegacyKeccak256()
	hash.Write(uncompressedPubKey[1:])
	sum := hash.Sum(nil)
	var addr [20]byte
	copy(addr[:], sum[12:])
	return addr, nil
}
