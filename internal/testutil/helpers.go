// Package testutil provides shared test helpers for internal packbit packages.
package testutil

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"
)

// TempCatalogPath returns a temporary catalog database path. The
// directory is cleaned up when the test completes.
func TempCatalogPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "catalog.db")
}

// SkewedBytes generates n pseudo-random bytes drawn from a small, skewed
// alphabet so Huffman coding has something to compress. The sequence is
// deterministic for a given seed.
func SkewedBytes(t *testing.T, n int, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	alphabet := []byte("aaaaabbbcc d.\n")
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return out
}

// AssertBytesEqual fails the test when got differs from want.
func AssertBytesEqual(t *testing.T, got, want []byte) {
	t.Helper()
	if !bytes.Equal(got, want) {
		t.Fatalf("byte mismatch: got %d bytes, want %d bytes", len(got), len(want))
	}
}
