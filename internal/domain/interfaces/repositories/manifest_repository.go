// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/artifetch/internal/domain/entities"
)

// ManifestRepository defines the interface for accessing artifact manifests
type ManifestRepository interface {
	// GetManifest retrieves a manifest by name
	GetManifest(ctx context.Context, name string) (*entities.Manifest, error)

	// ListManifests returns all available manifests
	ListManifests(ctx context.Context) ([]*entities.Manifest, error)
}
