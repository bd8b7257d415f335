package signer

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// KMSClient is the opaque external port: an asymmetric-sign call over a
// SHA-256 digest, returning a DER-encoded ECDSA signature, plus the known
// public key for the signing key. The backend (KMS/HSM) is out of scope
// per spec.md §1; only this narrow interface is specified.
type KMSClient interface {
	SignDigest(digest [32]byte) (derSignature []byte, err error)
	PublicKeyUncompressed() ([]byte, error)
}

// KMSSigner adapts a KMSClient to Port: it DER-decodes the signature,
// normalizes s to the lower curve half, and computes v by trying both
// recovery candidates against the known public key — the algorithm
// spec.md §4.10 names explicitly for the KMS adapter.
type KMSSigner struct {
	client KMSClient
}

func NewKMSSigner(client KMSClient) *KMSSigner {
	return &KMSSigner{client: client}
}

type derECDSASignature struct {
	R *big.Int
	S *big.Int
}

func (k *KMSSigner) Sign(digest [32]byte) (Signature, error) {
	der, err := k.client.SignDigest(digest)
	if err != nil {
		return Signature{}, fmt.Errorf("signer: kms sign: %w", err)
	}

	var parsed derECDSASignature
	if _, err := asn1.Unmarshal(der, &parsed); err != nil {
		return Signature{}, fmt.Errorf("signer: decode DER signature: %w", err)
	}

	s, _ := normalizeLowS(parsed.S)

	pubBytes, err := k.client.PublicKeyUncompressed()
	if err != nil {
		return Signature{}, fmt.Errorf("signer: fetch public key: %w", err)
	}
	pubKey, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return Signature{}, fmt.Errorf("signer: parse public key: %w", err)
	}

	var rScalar, sScalar secp256k1.ModNScalar
	rScalar.SetByteSlice(parsed.R.Bytes())
	sScalar.SetByteSlice(s.Bytes())
	candidateSig := ecdsa.NewSignature(&rScalar, &sScalar)
	if !candidateSig.Verify(digest[:], pubKey) {
		return Signature{}, fmt.Errorf("signer: kms signature does not verify against its own public key")
	}

	recoveryID, err := findRecoveryID(parsed.R, s, digest, pubKey)
	if err != nil {
		return Signature{}, err
	}

	var sig Signature
	parsed.R.FillBytes(sig.R[:])
	s.FillBytes(sig.S[:])
	sig.V = 27 + recoveryID
	return sig, nil
}

// findRecoveryID tries both recovery candidates (0 and 1) and returns
// whichever one recovers pubKey, since the KMS backend does not return a
// recovery id alongside its DER signature.
func findRecoveryID(r, s *big.Int, digest [32]byte, pubKey *secp256k1.PublicKey) (byte, error) {
	want := pubKey.SerializeUncompressed()
	for recID := byte(0); recID < 2; recID++ {
		compact := make([]byte, 65)
		compact[0] = 27 + recID
		r.FillBytes(compact[1:33])
		s.FillBytes(compact[33:65])

		recovered, _, err := ecdsa.RecoverCompact(compact, digest[:])
		if err != nil {
			continue
		}
		if bytesEqual(recovered.SerializeUncompressed(), want) {
			return recID, nil
		}
	}
	return 0, fmt.Errorf("signer: could not determine recovery id for KMS signature")
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (k *KMSSigner) PublicKey() ([]byte, error) {
	return k.client.PublicKeyUncompressed()
}

func (k *KMSSigner) Address() ([20]byte, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return [20]byte{}, err
	}
	return deriveAddress(pub)
}
