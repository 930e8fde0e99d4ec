package storage

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes the contents of both input tables together with maxAt.
// Two runs with the same fingerprint produce the same curve.
func Fingerprint(predictionsPath, annotationsPath string, maxAt int) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	for _, path := range []string{predictionsPath, annotationsPath} {
		if err := hashFile(h, path); err != nil {
			return "", err
		}
		// separates the two tables
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "max_at=%d", maxAt)

	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for fingerprint: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return nil
}
