// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/artifetch/internal/domain/entities"
)

// ArtifactResolver saves artifacts locally, skipping the transfer when an
// existing copy is confirmed by the build server's fingerprint
type ArtifactResolver interface {
	// Save writes the artifact to destPath and returns the path
	Save(ctx context.Context, artifact *entities.Artifact, destPath string) (string, error)

	// SaveToDir saves the artifact under its own name inside an existing directory
	SaveToDir(ctx context.Context, artifact *entities.Artifact, dir string) (string, error)

	// Resolve is Save with the download and verification outcome exposed
	Resolve(ctx context.Context, artifact *entities.Artifact, destPath string) (*entities.SaveResult, error)

	// ResolveToDir is SaveToDir with the outcome exposed
	ResolveToDir(ctx context.Context, artifact *entities.Artifact, dir string) (*entities.SaveResult, error)

	// Verify checks a local file against the artifact's build fingerprint
	Verify(ctx context.Context, artifact *entities.Artifact, filePath string) entities.VerificationResult
}
