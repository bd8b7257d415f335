package signer

import (
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// InProcessSigner holds a secp256k1 private key in memory. It exists for
// tests and local fixtures; production deployments use a KMS-backed Port.
type InProcessSigner struct {
	priv *secp256k1.PrivateKey
}

// NewInProcessSigner generates a fresh key. The key itself is not part of
// any hashed region; entropy here is confined to key generation and
// signing, exactly the boundary spec.md §4.10 draws.
func NewInProcessSigner() (*InProcessSigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("signer: generate key: %w", err)
	}
	return &InProcessSigner{priv: priv}, nil
}

// NewInProcessSignerFromBytes loads a 32-byte private key, for fixtures
// that need a stable signer across process restarts.
func NewInProcessSignerFromBytes(key [32]byte) *InProcessSigner {
	return &InProcessSigner{priv: secp256k1.PrivKeyFromBytes(key[:])}
}

// Sign implements Port. It signs digest with RFC-6979 deterministic
// nonces (ecdsa.SignCompact's default), derives the recovery id directly
// from the compact signature format, and defensively re-normalizes s to
// the lower curve half in case the underlying library ever changes that
// default.
func (s *InProcessSigner) Sign(digest [32]byte) (Signature, error) {
	compact := ecdsa.SignCompact(s.priv, digest[:], false)
	if len(compact) != 65 {
		return Signature{}, fmt.Errorf("signer: unexpected compact signature length %d", len(compact))
	}

	recoveryID := compact[0] - 27
	if recoveryID >= 4 {
		recoveryID -= 4 // compact format adds 4 when the recovered key should be compressed
	}

	var sig Signature
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])

	sBig := new(big.Int).SetBytes(sig.S[:])
	normalized, flipped := normalizeLowS(sBig)
	if flipped {
		normalized.FillBytes(sig.S[:])
		recoveryID ^= 1
	}

	sig.V = 27 + recoveryID
	return sig, nil
}

func (s *InProcessSigner) PublicKey() ([]byte, error) {
	return s.priv.PubKey().SerializeUncompressed(), nil
}

func (s *InProcessSigner) Address() ([20]byte, error) {
	pub, err := s.PublicKey()
	if err != nil {
		return [20]byte{}, err
	}
	return deriveAddress(pub)
}
