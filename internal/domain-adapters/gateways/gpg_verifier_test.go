package gateways

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type stubTransport struct {
	body string
	err  error
	urls []string
}

func (s *stubTransport) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	s.urls = append(s.urls, url)
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func TestGPGVerifier_UsesTransport(t *testing.T) {
	transport := &stubTransport{err: errors.New("connection refused")}
	v := NewGPGVerifier(transport)

	err := v.VerifyGPGSignature(context.Background(), "/tmp/report.xml", "https://ci.example.com/report.xml.asc")
	if err == nil {
		t.Fatal("VerifyGPGSignature() should fail when the transport fails")
	}
	if !strings.Contains(err.Error(), "GPG signature verification failed") {
		t.Errorf("error = %v", err)
	}
	if len(transport.urls) != 1 || transport.urls[0] != "https://ci.example.com/report.xml.asc" {
		t.Errorf("transport urls = %v", transport.urls)
	}
}

func TestGPGVerifier_ImportKeysFromURL_InvalidKeys(t *testing.T) {
	v := NewGPGVerifier(&stubTransport{body: "not a keyring"})

	if err := v.ImportGPGKeysFromURL(context.Background(), "https://ci.example.com/KEYS"); err == nil {
		t.Fatal("ImportGPGKeysFromURL() should reject an invalid keyring")
	}
	if v.GetKeyringSize() != 0 {
		t.Errorf("keyring size = %d, want 0", v.GetKeyringSize())
	}
}

func TestGPGVerifier_ImportGPGKeyFromFile_Missing(t *testing.T) {
	v := NewGPGVerifier(nil)

	err := v.ImportGPGKeyFromFile("/nonexistent/KEYS.asc")
	if err == nil || !strings.Contains(err.Error(), "failed to import GPG key from file") {
		t.Errorf("ImportGPGKeyFromFile() error = %v", err)
	}
}
