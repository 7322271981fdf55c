package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/artifetch/internal/domain/interfaces/gateways"
	"github.com/ochairo/artifetch/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter to implement the domain gateway
// interface. Signatures are fetched through the same transport as the
// artifacts so private build servers work.
type gpgVerifier struct {
	verifier  *gpg.Verifier
	transport gateways.Transport
}

// NewGPGVerifier creates a new GPG verifier gateway. A nil transport
// falls back to the adapter's own unauthenticated client.
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier(transport gateways.Transport) *gpgVerifier {
	return &gpgVerifier{
		verifier:  gpg.NewVerifier(),
		transport: transport,
	}
}

// ImportGPGKeysFromURL imports all GPG keys from a KEYS file URL
func (g *gpgVerifier) ImportGPGKeysFromURL(ctx context.Context, keysURL string) error {
	if g.transport == nil {
		if err := g.verifier.ImportKeysFromURL(ctx, keysURL); err != nil {
			return fmt.Errorf("failed to import GPG keys from URL: %w", err)
		}
		return nil
	}

	body, err := g.transport.Fetch(ctx, keysURL)
	if err != nil {
		return fmt.Errorf("failed to import GPG keys from URL: %w", err)
	}
	//nolint:errcheck // Defer close on response body
	defer body.Close()

	if err := g.verifier.ImportKeys(body); err != nil {
		return fmt.Errorf("failed to import GPG keys from URL: %w", err)
	}
	return nil
}

// ImportGPGKeyFromFile imports a GPG key from a local file
func (g *gpgVerifier) ImportGPGKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	return nil
}

// VerifyGPGSignature verifies a detached GPG signature downloaded from a URL
func (g *gpgVerifier) VerifyGPGSignature(ctx context.Context, filePath, sigURL string) error {
	if g.transport == nil {
		if err := g.verifier.VerifySignature(ctx, filePath, sigURL); err != nil {
			return fmt.Errorf("GPG signature verification failed: %w", err)
		}
		return nil
	}

	body, err := g.transport.Fetch(ctx, sigURL)
	if err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	//nolint:errcheck // Defer close on response body
	defer body.Close()

	if err := g.verifier.VerifySignatureReader(filePath, body); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}

// VerifyGPGSignatureFromFile verifies a detached GPG signature from a local file
func (g *gpgVerifier) VerifyGPGSignatureFromFile(filePath, sigPath string) error {
	if err := g.verifier.VerifySignatureFromFile(filePath, sigPath); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}

// GetKeyringSize returns the number of keys loaded
func (g *gpgVerifier) GetKeyringSize() int {
	return g.verifier.GetKeyringSize()
}
