package normalize

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Fingerprint computes a stable hex SHA-256 over ordered string parts with
// null separators. Callers that want to memoize a reconciliation run key it
// by a fingerprint of input hashes plus configuration scalars; the engine
// itself never consults it.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// RunFingerprint builds the canonical memoization key for one run from the
// per-input content hashes and the matching configuration.
func RunFingerprint(inputHashes []string, tolerance float64, descFallback, stripZeros bool) string {
	parts := make([]string, 0, len(inputHashes)+3)
	parts = append(parts, inputHashes...)
	parts = append(parts,
		strconv.FormatFloat(tolerance, 'f', -1, 64),
		strconv.FormatBool(descFallback),
		strconv.FormatBool(stripZeros),
	)
	return Fingerprint(parts...)
}
