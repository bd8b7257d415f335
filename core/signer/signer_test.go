package signer

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInProcessSignerSignProducesLowS(t *testing.T) {
	s, err := NewInProcessSigner()
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("evidence manifest digest"))
	sig, err := s.Sign(digest)
	require.NoError(t, err)

	sBig := new(big.Int).SetBytes(sig.S[:])
	require.True(t, sBig.Cmp(secp256k1HalfOrder) <= 0, "s must be in the lower half of the curve order")
	require.True(t, sig.V == 27 || sig.V == 28)
}

func TestInProcessSignerAddressIsTwentyBytes(t *testing.T) {
	s, err := NewInProcessSigner()
	require.NoError(t, err)

	addr, err := s.Address()
	require.NoError(t, err)
	require.Len(t, addr, 20)
}

func TestInProcessSignerPublicKeyIsUncompressed(t *testing.T) {
	s, err := NewInProcessSigner()
	require.NoError(t, err)

	pub, err := s.PublicKey()
	require.NoError(t, err)
	require.Len(t, pub, 65)
	require.Equal(t, byte(0x04), pub[0])
}

func TestInProcessSignerIsStableFromFixedBytes(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	s1 := NewInProcessSignerFromBytes(key)
	s2 := NewInProcessSignerFromBytes(key)

	addr1, err := s1.Address()
	require.NoError(t, err)
	addr2, err := s2.Address()
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
}
