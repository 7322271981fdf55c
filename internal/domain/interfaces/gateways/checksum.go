package gateways

import "context"

// ChecksumCalculator computes content digests of local files in the scheme
// used by the build server's fingerprints
type ChecksumCalculator interface {
	CalculateChecksum(filePath string) (string, error)
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}

// SignatureVerifier checks detached signatures of downloaded files
type SignatureVerifier interface {
	VerifyGPGSignature(ctx context.Context, filePath, sigURL string) error
}
