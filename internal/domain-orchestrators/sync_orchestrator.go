// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces"
	"github.com/ochairo/artifetch/internal/domain/interfaces/gateways"
	"github.com/ochairo/artifetch/internal/domain/interfaces/services"
)

// SyncOrchestrator fetches every artifact of a manifest
type SyncOrchestrator struct {
	resolver   services.ArtifactResolver
	signatures gateways.SignatureVerifier
	logger     interfaces.Logger
}

// NewSyncOrchestrator creates a new sync orchestrator. signatures may be nil,
// in which case signature URLs in manifests are ignored.
func NewSyncOrchestrator(
	resolver services.ArtifactResolver,
	signatures gateways.SignatureVerifier,
	logger interfaces.Logger,
) *SyncOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SyncOrchestrator{
		resolver:   resolver,
		signatures: signatures,
		logger:     logger,
	}
}

// ArtifactSyncResult is the outcome for one manifest entry
type ArtifactSyncResult struct {
	Name              string
	Path              string
	Downloaded        bool
	Verification      entities.VerificationResult
	SignatureChecked  bool
	SignatureVerified bool
	Duration          time.Duration
	Error             error
}

// SyncResult contains the result of a sync operation
type SyncResult struct {
	Manifest      *entities.Manifest
	Artifacts     []ArtifactSyncResult
	TotalDuration time.Duration
}

// Sync saves every artifact of the manifest into its output directory, one
// after another. A failing entry does not stop the others; all failures are
// joined into the returned error.
func (o *SyncOrchestrator) Sync(ctx context.Context, manifest *entities.Manifest) (*SyncResult, error) {
	startTime := time.Now()
	result := &SyncResult{Manifest: manifest}

	outputDir := manifest.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	var errs []error
	for _, entry := range manifest.Artifacts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		entryResult := o.syncArtifact(ctx, manifest, entry, outputDir)
		if entryResult.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name, entryResult.Error))
		}
		result.Artifacts = append(result.Artifacts, entryResult)
	}

	result.TotalDuration = time.Since(startTime)
	return result, errors.Join(errs...)
}

func (o *SyncOrchestrator) syncArtifact(ctx context.Context, manifest *entities.Manifest, entry entities.ManifestArtifact, outputDir string) ArtifactSyncResult {
	start := time.Now()
	res := ArtifactSyncResult{Name: entry.Name}

	artifact, err := manifest.Artifact(entry)
	if err != nil {
		res.Error = err
		return res
	}

	saved, err := o.resolver.ResolveToDir(ctx, artifact, outputDir)
	if err != nil {
		res.Error = err
		res.Duration = time.Since(start)
		return res
	}
	res.Path = saved.Path
	res.Downloaded = saved.Downloaded
	res.Verification = saved.Verification

	if entry.SignatureURL != "" && o.signatures != nil {
		res.SignatureChecked = true
		if err := o.signatures.VerifyGPGSignature(ctx, saved.Path, entry.SignatureURL); err != nil {
			o.logger.Error("signature check failed",
				interfaces.F("artifact", entry.Name),
				interfaces.F("error", err),
			)
			res.Error = err
		} else {
			res.SignatureVerified = true
		}
	}

	res.Duration = time.Since(start)
	return res
}

// GetSyncSummary returns a human-readable summary of the sync
func (r *SyncResult) GetSyncSummary() string {
	downloaded, cached, failed := 0, 0, 0
	for _, a := range r.Artifacts {
		switch {
		case a.Error != nil:
			failed++
		case a.Downloaded:
			downloaded++
		default:
			cached++
		}
	}

	return fmt.Sprintf(`Sync finished
Artifacts: %d
Downloaded: %d
Up to date: %d
Failed: %d
Total: %v`,
		len(r.Artifacts),
		downloaded,
		cached,
		failed,
		r.TotalDuration,
	)
}
