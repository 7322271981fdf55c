// Package gpg provides OpenPGP detached-signature verification for
// downloaded artifacts.
package gpg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/hashicorp/go-cleanhttp"
)

const (
	maxKeysSize      = 10 << 20
	maxSignatureSize = 10 << 10
	armorPrefix      = "-----BEGIN PGP SIGNATURE-----"
)

// Verifier checks detached signatures against an in-memory keyring
type Verifier struct {
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	client := cleanhttp.DefaultClient()
	client.Timeout = 30 * time.Second

	return &Verifier{
		keyring:    make(openpgp.EntityList, 0),
		httpClient: client,
	}
}

// ImportKeysFromURL imports every key of an armored KEYS file
func (v *Verifier) ImportKeysFromURL(ctx context.Context, keysURL string) error {
	body, err := v.get(ctx, keysURL)
	if err != nil {
		return fmt.Errorf("failed to download KEYS file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer body.Close()

	return v.ImportKeys(io.LimitReader(body, maxKeysSize))
}

// ImportKeyFromFile imports keys from an armored or binary key file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	return v.add(entities)
}

// ImportKeys imports every key of an armored keyring stream
func (v *Verifier) ImportKeys(r io.Reader) error {
	entities, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return fmt.Errorf("failed to parse keyring: %w", err)
	}
	return v.add(entities)
}

func (v *Verifier) add(entities openpgp.EntityList) error {
	if len(entities) == 0 {
		return fmt.Errorf("no keys found")
	}
	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignature downloads a detached signature and checks filePath against it
func (v *Verifier) VerifySignature(ctx context.Context, filePath, sigURL string) error {
	body, err := v.get(ctx, sigURL)
	if err != nil {
		return fmt.Errorf("failed to download signature: %w", err)
	}
	//nolint:errcheck // Defer close
	defer body.Close()

	return v.VerifySignatureReader(filePath, body)
}

// VerifySignatureFromFile checks filePath against a detached signature on disk
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	return v.VerifySignatureReader(filePath, sigFile)
}

// VerifySignatureReader checks filePath against an armored or binary
// detached signature
func (v *Verifier) VerifySignatureReader(filePath string, sig io.Reader) error {
	if len(v.keyring) == 0 {
		return fmt.Errorf("no GPG keys imported")
	}

	// GPG signatures are typically < 1KB
	sigData, err := io.ReadAll(io.LimitReader(sig, maxSignatureSize))
	if err != nil {
		return fmt.Errorf("failed to read signature: %w", err)
	}
	if len(sigData) < 10 {
		return fmt.Errorf("signature too small to be a valid GPG signature")
	}

	//nolint:gosec // G304: filePath is user-provided for GPG verification
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	data := bufio.NewReader(f)
	if bytes.HasPrefix(bytes.TrimSpace(sigData), []byte(armorPrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, data, bytes.NewReader(sigData), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, data, bytes.NewReader(sigData), nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.keyring = make(openpgp.EntityList, 0)
}

func (v *Verifier) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
