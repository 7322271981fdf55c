// Package yaml provides YAML-based manifest parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/artifetch/internal/domain/entities"
)

// DefaultTokenEnv is read when a manifest server names no token variable
const DefaultTokenEnv = "ARTIFETCH_TOKEN"

// yamlManifest represents the raw YAML structure
type yamlManifest struct {
	Server    *yamlServer    `yaml:"server"`
	Build     *yamlBuild     `yaml:"build"`
	OutputDir string         `yaml:"output_dir"`
	KeysFile  string         `yaml:"keys_file"`
	Artifacts []yamlArtifact `yaml:"artifacts"`
}

type yamlServer struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	TokenEnv string `yaml:"token_env"`
}

type yamlBuild struct {
	Job    string `yaml:"job"`
	Number int    `yaml:"number"`
}

type yamlArtifact struct {
	Name         string `yaml:"name"`
	Path         string `yaml:"path"`
	URL          string `yaml:"url"`
	SignatureURL string `yaml:"signature_url"`
}

// ManifestParser parses YAML manifest files
type ManifestParser struct {
	getenv func(string) string
}

// NewManifestParser creates a new YAML parser that reads tokens from the environment
func NewManifestParser() *ManifestParser {
	return &ManifestParser{getenv: os.Getenv}
}

// ParseFile parses a YAML manifest file. The manifest is named after the
// file and relative paths inside it are resolved against its directory.
func (p *ManifestParser) ParseFile(filePath string) (*entities.Manifest, error) {
	//nolint:gosec // G304: filePath is a manifest path chosen by the user
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	m, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	base := filepath.Base(filePath)
	m.Name = strings.TrimSuffix(base, filepath.Ext(base))

	dir := filepath.Dir(filePath)
	if m.OutputDir != "" && !filepath.IsAbs(m.OutputDir) {
		m.OutputDir = filepath.Join(dir, m.OutputDir)
	}
	if m.KeysFile != "" && !filepath.IsAbs(m.KeysFile) {
		m.KeysFile = filepath.Join(dir, m.KeysFile)
	}

	return m, nil
}

// Parse parses YAML bytes into a Manifest entity
func (p *ManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	var ym yamlManifest
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(ym.Artifacts) == 0 {
		return nil, fmt.Errorf("manifest must list at least one artifact")
	}

	m := &entities.Manifest{
		OutputDir: ym.OutputDir,
		KeysFile:  ym.KeysFile,
	}

	if ym.Server != nil {
		if ym.Server.URL == "" {
			return nil, fmt.Errorf("server must have a url")
		}
		m.Server = p.convertServer(*ym.Server)
	}

	if ym.Build != nil {
		if m.Server == nil {
			return nil, fmt.Errorf("build requires a server")
		}
		if ym.Build.Job == "" {
			return nil, fmt.Errorf("build must have a job")
		}
		if ym.Build.Number <= 0 {
			return nil, fmt.Errorf("build number must be positive")
		}
		m.Build = &entities.BuildRef{Job: ym.Build.Job, Number: ym.Build.Number}
	}

	seen := make(map[string]bool, len(ym.Artifacts))
	for i, ya := range ym.Artifacts {
		if ya.Name == "" {
			return nil, fmt.Errorf("artifact %d must have a name", i)
		}
		if seen[ya.Name] {
			return nil, fmt.Errorf("duplicate artifact %s", ya.Name)
		}
		seen[ya.Name] = true

		if ya.URL == "" && m.Build == nil {
			return nil, fmt.Errorf("artifact %s must have a url when the manifest has no build", ya.Name)
		}

		m.Artifacts = append(m.Artifacts, entities.ManifestArtifact{
			Name:         ya.Name,
			Path:         ya.Path,
			URL:          ya.URL,
			SignatureURL: ya.SignatureURL,
		})
	}

	return m, nil
}

func (p *ManifestParser) convertServer(ys yamlServer) *entities.Server {
	tokenEnv := ys.TokenEnv
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}

	return &entities.Server{
		BaseURL:  ys.URL,
		Username: ys.Username,
		Token:    p.getenv(tokenEnv),
	}
}
