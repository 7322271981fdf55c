package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces"
	"github.com/ochairo/artifetch/internal/domain/interfaces/repositories"
)

// ManifestRepository implements repositories.ManifestRepository using a
// directory of YAML files
type ManifestRepository struct {
	manifestsDir string
	parser       *ManifestParser
	logger       interfaces.Logger
}

var _ repositories.ManifestRepository = (*ManifestRepository)(nil)

// NewManifestRepository creates a new YAML-based manifest repository
func NewManifestRepository(manifestsDir string, logger interfaces.Logger) *ManifestRepository {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ManifestRepository{
		manifestsDir: manifestsDir,
		parser:       NewManifestParser(),
		logger:       logger,
	}
}

// GetManifest retrieves a manifest by name (file name without extension)
func (r *ManifestRepository) GetManifest(_ context.Context, name string) (*entities.Manifest, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		filePath := filepath.Join(r.manifestsDir, name+ext)
		if _, err := os.Stat(filePath); err == nil {
			return r.parser.ParseFile(filePath)
		}
	}

	return nil, fmt.Errorf("manifest not found: %s", name)
}

// ListManifests returns all parsable manifests in the directory
func (r *ManifestRepository) ListManifests(_ context.Context) ([]*entities.Manifest, error) {
	entries, err := os.ReadDir(r.manifestsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests directory: %w", err)
	}

	manifests := make([]*entities.Manifest, 0)
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		m, err := r.parser.ParseFile(filepath.Join(r.manifestsDir, entry.Name()))
		if err != nil {
			// Keep going with the other files
			r.logger.Warn("skipping manifest", interfaces.F("file", entry.Name()), interfaces.F("error", err))
			continue
		}

		manifests = append(manifests, m)
	}

	return manifests, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
