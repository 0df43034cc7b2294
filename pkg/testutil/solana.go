package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateSolanaKeypair returns a fresh random keypair.
func GenerateSolanaKeypair(t testing.TB) ed25519.PrivateKey {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

// GenerateSolanaKeypairs returns n fresh random keypairs.
func GenerateSolanaKeypairs(t testing.TB, n int) []ed25519.PrivateKey {
	keys := make([]ed25519.PrivateKey, n)
	for i := range keys {
		keys[i] = GenerateSolanaKeypair(t)
	}
	return keys
}

// GenerateSolanaKeys returns the public halves of n fresh keypairs.
func GenerateSolanaKeys(t testing.TB, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i, priv := range GenerateSolanaKeypairs(t, n) {
		keys[i] = priv.Public().(ed25519.PublicKey)
	}
	return keys
}
