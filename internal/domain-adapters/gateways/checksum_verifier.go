package gateways

import (
	"context"
	//nolint:gosec // G501: MD5 matches the build server's fingerprint scheme, not used for security
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ChecksumChunkSize bounds the memory used while hashing a file
const ChecksumChunkSize = 1 << 20

// checksumVerifier computes MD5 digests the same way the build server
// fingerprints archived files
type checksumVerifier struct {
	chunkSize int
}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{chunkSize: ChecksumChunkSize}
}

// VerifyChecksum verifies a file's MD5 checksum
func (v *checksumVerifier) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actualSum, strings.TrimSpace(expectedSum)) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actualSum)
	}

	return nil
}

// CalculateChecksum streams the file through MD5 in fixed-size chunks and
// returns the lowercase hex digest
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	//nolint:gosec // G401: see import
	h := md5.New()
	buf := make([]byte, v.chunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{f}, buf); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader hides WriterTo/ReaderFrom so io.CopyBuffer honours the buffer size
type onlyReader struct {
	io.Reader
}
