package services

import (
	"context"
	"crypto/md5" //nolint:gosec // mirrors the fingerprint digest
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces"
	"github.com/ochairo/artifetch/internal/domain/interfaces/gateways"
)

// Mock implementations for testing

type mockTransportProvider struct {
	body       string
	err        error
	plainCalls int
	authCalls  int
	server     entities.Server
	fetched    []string
}

func (m *mockTransportProvider) Plain() gateways.Transport {
	m.plainCalls++
	return m
}

func (m *mockTransportProvider) Authenticated(server entities.Server) gateways.Transport {
	m.authCalls++
	m.server = server
	return m
}

func (m *mockTransportProvider) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	m.fetched = append(m.fetched, url)
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.body)), nil
}

type oracleCall struct {
	digest   string
	fileName string
	job      string
	build    int
}

// mockOracle answers from a queue; the last answer repeats
type mockOracle struct {
	answers []bool
	errs    []error
	calls   []oracleCall
}

func (m *mockOracle) ValidateForBuild(_ context.Context, _ entities.Server, digest, fileName, job string, build int) (bool, error) {
	i := len(m.calls)
	m.calls = append(m.calls, oracleCall{digest: digest, fileName: fileName, job: job, build: build})

	var err error
	if len(m.errs) > 0 {
		err = m.errs[min(i, len(m.errs)-1)]
	}
	if err != nil {
		return false, err
	}
	if len(m.answers) == 0 {
		return false, nil
	}
	return m.answers[min(i, len(m.answers)-1)], nil
}

type md5Checksums struct{}

func (md5Checksums) CalculateChecksum(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(sum[:]), nil
}

func (c md5Checksums) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	sum, err := c.CalculateChecksum(filePath)
	if err != nil {
		return err
	}
	if sum != expectedSum {
		return errors.New("checksum mismatch")
	}
	return nil
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...interfaces.Field) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...interfaces.Field)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...interfaces.Field)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...interfaces.Field) { l.record("error", msg) }

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

var testServer = entities.Server{BaseURL: "https://ci.example.com", Username: "robot", Token: "s3cret"}

func buildScoped() entities.BuildContext {
	return entities.BuildScoped{Job: "build-A", BuildNumber: 42, Server: testServer}
}

func newTestResolver(transports *mockTransportProvider, oracle *mockOracle) (*artifactResolver, *recordingLogger) {
	logger := &recordingLogger{}
	r := NewArtifactResolver(transports, oracle, md5Checksums{}, logger)
	return r.(*artifactResolver), logger
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// P1: a confirmed local copy is kept and nothing is fetched
func TestResolver_Save_ConfirmedLocalCopyShortCircuits(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.xml")
	writeFile(t, dest, "")

	transports := &mockTransportProvider{body: "fresh"}
	oracle := &mockOracle{answers: []bool{true}}
	r, logger := newTestResolver(transports, oracle)

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/job/build-A/42/artifact/report.xml", buildScoped())

	got, err := r.Save(context.Background(), artifact, dest)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got != dest {
		t.Errorf("Save() = %s, want %s", got, dest)
	}
	if len(transports.fetched) != 0 {
		t.Errorf("fetch calls = %d, want 0", len(transports.fetched))
	}
	if content := readFile(t, dest); content != "" {
		t.Errorf("local copy was modified: %q", content)
	}

	if len(oracle.calls) != 1 {
		t.Fatalf("oracle calls = %d, want 1", len(oracle.calls))
	}
	want := oracleCall{digest: "d41d8cd98f00b204e9800998ecf8427e", fileName: "report.xml", job: "build-A", build: 42}
	if oracle.calls[0] != want {
		t.Errorf("oracle call = %+v, want %+v", oracle.calls[0], want)
	}
	if !logger.has("info", "local copy is already up to date") {
		t.Error("expected up-to-date log entry")
	}
}

// P2: without a build context a local file is never trusted
func TestResolver_Save_StandaloneAlwaysDownloads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.xml")
	writeFile(t, dest, "stale")

	transports := &mockTransportProvider{body: "fresh"}
	oracle := &mockOracle{answers: []bool{true}}
	r, logger := newTestResolver(transports, oracle)

	artifact := entities.NewArtifact("report.xml", "https://example.com/report.xml", nil)

	result, err := r.Resolve(context.Background(), artifact, dest)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(transports.fetched) != 1 || transports.plainCalls != 1 || transports.authCalls != 0 {
		t.Errorf("fetched=%v plain=%d auth=%d, want one plain fetch", transports.fetched, transports.plainCalls, transports.authCalls)
	}
	if content := readFile(t, dest); content != "fresh" {
		t.Errorf("content = %q, want fresh", content)
	}
	if len(oracle.calls) != 0 {
		t.Errorf("oracle calls = %d, want 0", len(oracle.calls))
	}
	if !result.Downloaded {
		t.Error("result.Downloaded = false")
	}
	if result.Verification.Status != entities.VerificationUnavailable {
		t.Errorf("verification = %v, want unavailable", result.Verification.Status)
	}
	if !errors.Is(result.Verification.Err, entities.ErrNoBuildContext) {
		t.Errorf("verification error = %v, want ErrNoBuildContext", result.Verification.Err)
	}
	if !logger.has("info", "artifact did not originate from a build server, local copy cannot be checked") {
		t.Error("expected standalone log entry")
	}
}

// P3: an unknown digest triggers a download
func TestResolver_Save_UnknownDigestDownloads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.xml")
	writeFile(t, dest, "stale")

	unknown := errors.Join(entities.ErrVerificationIndeterminate, entities.ErrFingerprintUnknown)
	transports := &mockTransportProvider{body: "fresh"}
	oracle := &mockOracle{errs: []error{unknown, nil}, answers: []bool{false, true}}
	r, _ := newTestResolver(transports, oracle)

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

	result, err := r.Resolve(context.Background(), artifact, dest)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if transports.authCalls != 1 || transports.plainCalls != 0 {
		t.Errorf("auth=%d plain=%d, want authenticated transport", transports.authCalls, transports.plainCalls)
	}
	if transports.server != testServer {
		t.Errorf("transport server = %+v, want %+v", transports.server, testServer)
	}
	if content := readFile(t, dest); content != "fresh" {
		t.Errorf("content = %q, want fresh", content)
	}
	if len(oracle.calls) != 2 {
		t.Errorf("oracle calls = %d, want 2", len(oracle.calls))
	}
	if !result.Verification.Confirmed() {
		t.Errorf("post-download verification = %v, want confirmed", result.Verification.Status)
	}
}

func TestResolver_Save_MismatchedLocalCopyDownloads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.xml")
	writeFile(t, dest, "tampered")

	transports := &mockTransportProvider{body: "fresh"}
	oracle := &mockOracle{answers: []bool{false, true}}
	r, logger := newTestResolver(transports, oracle)

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

	if _, err := r.Save(context.Background(), artifact, dest); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(transports.fetched) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(transports.fetched))
	}
	if !logger.has("info", "local copy does not match the build fingerprint") {
		t.Error("expected mismatch log entry")
	}
}

// P4: an unverifiable download is still returned
func TestResolver_Save_UnverifiableDownloadSucceeds(t *testing.T) {
	tests := []struct {
		name       string
		oracle     *mockOracle
		wantStatus entities.VerificationStatus
		wantLog    string
	}{
		{
			name:       "digest unknown to server",
			oracle:     &mockOracle{errs: []error{errors.Join(entities.ErrVerificationIndeterminate, entities.ErrFingerprintUnknown)}},
			wantStatus: entities.VerificationUnavailable,
			wantLog:    "fingerprint of the downloaded artifact could not be verified",
		},
		{
			name:       "oracle transport failure",
			oracle:     &mockOracle{errs: []error{errors.New("connection reset")}},
			wantStatus: entities.VerificationUnavailable,
			wantLog:    "fingerprint of the downloaded artifact could not be verified",
		},
		{
			name:       "digest associated with another build",
			oracle:     &mockOracle{answers: []bool{false}},
			wantStatus: entities.VerificationMismatch,
			wantLog:    "downloaded artifact does not match the build fingerprint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "report.xml")
			transports := &mockTransportProvider{body: "fresh"}
			r, logger := newTestResolver(transports, tt.oracle)

			artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

			result, err := r.Resolve(context.Background(), artifact, dest)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if result.Path != dest {
				t.Errorf("Path = %s, want %s", result.Path, dest)
			}
			if content := readFile(t, dest); content != "fresh" {
				t.Errorf("content = %q, want fresh", content)
			}
			if result.Verification.Status != tt.wantStatus {
				t.Errorf("verification = %v, want %v", result.Verification.Status, tt.wantStatus)
			}
			if tt.wantStatus == entities.VerificationUnavailable &&
				!errors.Is(result.Verification.Err, entities.ErrVerificationIndeterminate) {
				t.Errorf("verification error = %v, want ErrVerificationIndeterminate", result.Verification.Err)
			}
			if !logger.has("warn", tt.wantLog) {
				t.Errorf("expected warn log %q", tt.wantLog)
			}
		})
	}
}

// Example scenario: no local file, oracle confirms after download
func TestResolver_Save_MissingFileScenario(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "report.xml")

	transports := &mockTransportProvider{body: "<report/>"}
	oracle := &mockOracle{answers: []bool{true}}
	r, _ := newTestResolver(transports, oracle)

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

	got, err := r.Save(context.Background(), artifact, dest)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got != dest {
		t.Errorf("Save() = %s, want %s", got, dest)
	}
	if len(transports.fetched) != 1 {
		t.Errorf("fetch calls = %d, want 1", len(transports.fetched))
	}
	if len(oracle.calls) != 1 {
		t.Errorf("oracle calls = %d, want 1", len(oracle.calls))
	}
	if content := readFile(t, dest); content != "<report/>" {
		t.Errorf("content = %q", content)
	}

	// No temp files are left next to the artifact
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestResolver_Save_TransferFailureKeepsExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.xml")
	writeFile(t, dest, "previous")

	transports := &mockTransportProvider{err: entities.ErrArtifactNotFound}
	oracle := &mockOracle{answers: []bool{false}}
	r, _ := newTestResolver(transports, oracle)

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

	_, err := r.Save(context.Background(), artifact, dest)
	if err == nil {
		t.Fatal("Save() should fail when the transfer fails")
	}
	if !errors.Is(err, entities.ErrTransferFailure) {
		t.Errorf("error = %v, want ErrTransferFailure", err)
	}
	if !errors.Is(err, entities.ErrArtifactNotFound) {
		t.Errorf("error = %v, want the transport cause preserved", err)
	}
	if content := readFile(t, dest); content != "previous" {
		t.Errorf("content = %q, want previous copy kept", content)
	}
	if len(oracle.calls) != 1 {
		t.Errorf("oracle calls = %d, want only the pre-download check", len(oracle.calls))
	}
}

func TestResolver_Save_RenameWarning(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "renamed.xml")

	transports := &mockTransportProvider{body: "x"}
	r, logger := newTestResolver(transports, &mockOracle{answers: []bool{true}})

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

	if _, err := r.Save(context.Background(), artifact, dest); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !logger.has("warn", "attempt to change the filename of artifact on save") {
		t.Error("expected filename warning")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("renamed destination missing: %v", err)
	}
}

func TestResolver_SaveToDir(t *testing.T) {
	dir := t.TempDir()

	transports := &mockTransportProvider{body: "x"}
	r, logger := newTestResolver(transports, &mockOracle{answers: []bool{true}})

	artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

	got, err := r.SaveToDir(context.Background(), artifact, dir)
	if err != nil {
		t.Fatalf("SaveToDir() error = %v", err)
	}
	if want := filepath.Join(dir, "report.xml"); got != want {
		t.Errorf("SaveToDir() = %s, want %s", got, want)
	}
	if logger.has("warn", "attempt to change the filename of artifact on save") {
		t.Error("unexpected filename warning")
	}
}

// P6: a missing directory fails before any network access
func TestResolver_SaveToDir_Preconditions(t *testing.T) {
	tmpDir := t.TempDir()
	regular := filepath.Join(tmpDir, "file")
	writeFile(t, regular, "")

	tests := []struct {
		name string
		dir  string
	}{
		{name: "missing directory", dir: filepath.Join(tmpDir, "missing")},
		{name: "not a directory", dir: regular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transports := &mockTransportProvider{body: "x"}
			oracle := &mockOracle{answers: []bool{true}}
			r, _ := newTestResolver(transports, oracle)

			artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", buildScoped())

			_, err := r.SaveToDir(context.Background(), artifact, tt.dir)
			if !errors.Is(err, entities.ErrContractViolation) {
				t.Fatalf("SaveToDir() error = %v, want ErrContractViolation", err)
			}
			if len(transports.fetched) != 0 || len(oracle.calls) != 0 {
				t.Errorf("network used: fetched=%d oracle=%d", len(transports.fetched), len(oracle.calls))
			}
		})
	}
}

func TestResolver_SaveToDir_NameCannotEscape(t *testing.T) {
	dir := t.TempDir()

	transports := &mockTransportProvider{body: "x"}
	r, _ := newTestResolver(transports, &mockOracle{answers: []bool{true}})

	artifact := entities.NewArtifact("../../escape.xml", "https://ci.example.com/escape.xml", nil)

	got, err := r.SaveToDir(context.Background(), artifact, dir)
	if err != nil {
		t.Fatalf("SaveToDir() error = %v", err)
	}
	if filepath.Dir(got) != dir {
		t.Errorf("SaveToDir() = %s, want a path inside %s", got, dir)
	}
}

func TestResolver_Verify(t *testing.T) {
	file := filepath.Join(t.TempDir(), "report.xml")
	writeFile(t, file, "")

	tests := []struct {
		name       string
		build      entities.BuildContext
		oracle     *mockOracle
		path       string
		wantStatus entities.VerificationStatus
		wantDigest string
	}{
		{
			name:       "confirmed",
			build:      buildScoped(),
			oracle:     &mockOracle{answers: []bool{true}},
			path:       file,
			wantStatus: entities.VerificationConfirmed,
			wantDigest: "d41d8cd98f00b204e9800998ecf8427e",
		},
		{
			name:       "mismatch",
			build:      buildScoped(),
			oracle:     &mockOracle{answers: []bool{false}},
			path:       file,
			wantStatus: entities.VerificationMismatch,
			wantDigest: "d41d8cd98f00b204e9800998ecf8427e",
		},
		{
			name:       "standalone",
			build:      entities.Standalone{},
			oracle:     &mockOracle{answers: []bool{true}},
			path:       file,
			wantStatus: entities.VerificationUnavailable,
		},
		{
			name:       "unreadable file",
			build:      buildScoped(),
			oracle:     &mockOracle{answers: []bool{true}},
			path:       filepath.Join(t.TempDir(), "missing.xml"),
			wantStatus: entities.VerificationUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResolver(&mockTransportProvider{}, tt.oracle)
			artifact := entities.NewArtifact("report.xml", "https://ci.example.com/report.xml", tt.build)

			got := r.Verify(context.Background(), artifact, tt.path)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", got.Status, tt.wantStatus)
			}
			if got.Digest != tt.wantDigest {
				t.Errorf("Digest = %q, want %q", got.Digest, tt.wantDigest)
			}
			if tt.wantStatus == entities.VerificationUnavailable && !errors.Is(got.Err, entities.ErrVerificationIndeterminate) {
				t.Errorf("Err = %v, want ErrVerificationIndeterminate", got.Err)
			}
		})
	}
}
