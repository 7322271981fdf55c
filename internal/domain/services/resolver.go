// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/dustin/go-humanize"

	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces"
	"github.com/ochairo/artifetch/internal/domain/interfaces/gateways"
	"github.com/ochairo/artifetch/internal/domain/interfaces/services"
)

// artifactResolver implements ArtifactResolver. It holds no per-artifact
// state and performs every step on the caller's goroutine.
type artifactResolver struct {
	transports gateways.TransportProvider
	oracle     gateways.FingerprintOracle
	checksums  gateways.ChecksumCalculator
	logger     interfaces.Logger
}

// NewArtifactResolver creates a new resolver with dependency injection
func NewArtifactResolver(
	transports gateways.TransportProvider,
	oracle gateways.FingerprintOracle,
	checksums gateways.ChecksumCalculator,
	logger interfaces.Logger,
) services.ArtifactResolver {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &artifactResolver{
		transports: transports,
		oracle:     oracle,
		checksums:  checksums,
		logger:     logger,
	}
}

// Save writes the artifact to destPath unless a verified copy is already there
func (r *artifactResolver) Save(ctx context.Context, artifact *entities.Artifact, destPath string) (string, error) {
	result, err := r.Resolve(ctx, artifact, destPath)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}

// SaveToDir saves the artifact as dir/<name>. The directory must exist.
func (r *artifactResolver) SaveToDir(ctx context.Context, artifact *entities.Artifact, dir string) (string, error) {
	result, err := r.ResolveToDir(ctx, artifact, dir)
	if err != nil {
		return "", err
	}
	return result.Path, nil
}

// ResolveToDir checks the target directory and resolves dir/<name>
func (r *artifactResolver) ResolveToDir(ctx context.Context, artifact *entities.Artifact, dir string) (*entities.SaveResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: target directory %s: %w", entities.ErrContractViolation, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: target %s is not a directory", entities.ErrContractViolation, dir)
	}

	destPath, err := securejoin.SecureJoin(dir, artifact.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid artifact name %q: %w", entities.ErrContractViolation, artifact.Name, err)
	}

	return r.Resolve(ctx, artifact, destPath)
}

// Resolve performs the save and reports whether a transfer happened and how
// verification went
func (r *artifactResolver) Resolve(ctx context.Context, artifact *entities.Artifact, destPath string) (*entities.SaveResult, error) {
	log := []interfaces.Field{
		interfaces.F("artifact", artifact.Name),
		interfaces.F("url", artifact.URL),
		interfaces.F("path", destPath),
	}
	r.logger.Info("saving artifact", log...)

	if filepath.Base(destPath) != artifact.Name {
		r.logger.Warn("attempt to change the filename of artifact on save", log...)
	}

	if _, err := os.Stat(destPath); err == nil {
		if result, ok := r.checkLocalCopy(ctx, artifact, destPath, log); ok {
			return result, nil
		}
	} else if errors.Is(err, os.ErrNotExist) {
		r.logger.Info("local file is missing, downloading", log...)
	} else {
		r.logger.Warn("cannot inspect local file, downloading", append(log, interfaces.F("error", err))...)
	}

	if err := r.download(ctx, artifact, destPath); err != nil {
		return nil, err
	}

	verification := r.Verify(ctx, artifact, destPath)
	switch verification.Status {
	case entities.VerificationConfirmed:
		r.logger.Info("downloaded artifact verified", append(log, interfaces.F("md5", verification.Digest))...)
	case entities.VerificationMismatch:
		r.logger.Warn("downloaded artifact does not match the build fingerprint",
			append(log, interfaces.F("md5", verification.Digest))...)
	default:
		r.logger.Warn("fingerprint of the downloaded artifact could not be verified",
			append(log, interfaces.F("error", verification.Err))...)
	}

	return &entities.SaveResult{
		Path:         destPath,
		Downloaded:   true,
		Verification: verification,
	}, nil
}

// checkLocalCopy decides whether an existing file can be kept. It returns
// ok=true only when the copy is confirmed by the build server.
func (r *artifactResolver) checkLocalCopy(ctx context.Context, artifact *entities.Artifact, destPath string, log []interfaces.Field) (*entities.SaveResult, bool) {
	switch artifact.Build.(type) {
	case entities.BuildScoped:
		verification := r.Verify(ctx, artifact, destPath)
		switch verification.Status {
		case entities.VerificationConfirmed:
			r.logger.Info("local copy is already up to date", log...)
			return &entities.SaveResult{Path: destPath, Verification: verification}, true
		case entities.VerificationMismatch:
			r.logger.Info("local copy does not match the build fingerprint", log...)
		default:
			r.logger.Info("local copy could not be identified by the build server",
				append(log, interfaces.F("error", verification.Err))...)
		}
	case entities.Standalone, nil:
		r.logger.Info("artifact did not originate from a build server, local copy cannot be checked", log...)
	default:
		panic(fmt.Sprintf("unknown build context %T", artifact.Build))
	}

	return nil, false
}

// Verify checks filePath against the fingerprint recorded for the
// artifact's build. It never returns an error: failures to get an answer
// are reported as VerificationUnavailable.
func (r *artifactResolver) Verify(ctx context.Context, artifact *entities.Artifact, filePath string) entities.VerificationResult {
	var build entities.BuildScoped
	switch b := artifact.Build.(type) {
	case entities.BuildScoped:
		build = b
	case entities.Standalone, nil:
		return entities.VerificationResult{
			Status: entities.VerificationUnavailable,
			Err:    fmt.Errorf("%w: %w", entities.ErrVerificationIndeterminate, entities.ErrNoBuildContext),
		}
	default:
		panic(fmt.Sprintf("unknown build context %T", artifact.Build))
	}

	digest, err := r.checksums.CalculateChecksum(filePath)
	if err != nil {
		return entities.VerificationResult{
			Status: entities.VerificationUnavailable,
			Err:    fmt.Errorf("%w: %w", entities.ErrVerificationIndeterminate, err),
		}
	}

	ok, err := r.oracle.ValidateForBuild(ctx, build.Server, digest, filepath.Base(filePath), build.Job, build.BuildNumber)
	if err != nil {
		if !errors.Is(err, entities.ErrVerificationIndeterminate) {
			err = fmt.Errorf("%w: %w", entities.ErrVerificationIndeterminate, err)
		}
		return entities.VerificationResult{
			Status: entities.VerificationUnavailable,
			Digest: digest,
			Err:    err,
		}
	}

	if !ok {
		return entities.VerificationResult{Status: entities.VerificationMismatch, Digest: digest}
	}
	return entities.VerificationResult{Status: entities.VerificationConfirmed, Digest: digest}
}

// download streams the artifact into a temporary file next to destPath and
// renames it into place, so a failed transfer keeps any previous copy
func (r *artifactResolver) download(ctx context.Context, artifact *entities.Artifact, destPath string) error {
	var transport gateways.Transport
	switch b := artifact.Build.(type) {
	case entities.BuildScoped:
		transport = r.transports.Authenticated(b.Server)
	case entities.Standalone, nil:
		transport = r.transports.Plain()
	default:
		panic(fmt.Sprintf("unknown build context %T", artifact.Build))
	}

	body, err := transport.Fetch(ctx, artifact.URL)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", entities.ErrTransferFailure, artifact.URL, err)
	}
	//nolint:errcheck // Defer close on response body
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %w", entities.ErrTransferFailure, err)
	}
	tmpName := tmp.Name()
	//nolint:errcheck // Removing a renamed file fails harmlessly
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: failed to write %s: %w", entities.ErrTransferFailure, destPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %w", entities.ErrTransferFailure, tmpName, err)
	}
	//nolint:gosec // G302: downloaded artifacts are not secrets
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("%w: failed to set permissions: %w", entities.ErrTransferFailure, err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		return fmt.Errorf("%w: failed to move download into place: %w", entities.ErrTransferFailure, err)
	}

	r.logger.Info("downloaded artifact",
		interfaces.F("artifact", artifact.Name),
		interfaces.F("path", destPath),
		interfaces.F("size", humanize.Bytes(uint64(written))),
	)

	return nil
}
