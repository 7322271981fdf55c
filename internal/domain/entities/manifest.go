package entities

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Manifest describes a set of artifacts to fetch from one build
type Manifest struct {
	Name      string
	Server    *Server
	Build     *BuildRef
	OutputDir string
	KeysFile  string
	Artifacts []ManifestArtifact
}

// ManifestArtifact is a single entry of a manifest
type ManifestArtifact struct {
	Name         string
	Path         string // Relative artifact path on the build server, defaults to Name
	URL          string // Overrides the derived URL when set
	SignatureURL string
}

// BuildContext returns the provenance shared by every artifact of the manifest
func (m *Manifest) BuildContext() BuildContext {
	if m.Build == nil || m.Server == nil {
		return Standalone{}
	}
	return BuildScoped{
		Job:         m.Build.Job,
		BuildNumber: m.Build.Number,
		Server:      *m.Server,
	}
}

// ArtifactURL returns the download URL of an entry. Without an explicit URL
// it is derived from the server, job and build number.
func (m *Manifest) ArtifactURL(a ManifestArtifact) (string, error) {
	if a.URL != "" {
		return a.URL, nil
	}
	if m.Build == nil || m.Server == nil {
		return "", fmt.Errorf("artifact %s has no url and the manifest has no build", a.Name)
	}

	relPath := a.Path
	if relPath == "" {
		relPath = a.Name
	}

	segments := strings.Split(strings.Trim(relPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	// Jobs inside folders are addressed as /job/<folder>/job/<name>
	var jobPath strings.Builder
	for _, part := range strings.Split(strings.Trim(m.Build.Job, "/"), "/") {
		jobPath.WriteString("/job/")
		jobPath.WriteString(url.PathEscape(part))
	}

	return strings.TrimRight(m.Server.BaseURL, "/") +
		jobPath.String() +
		"/" + strconv.Itoa(m.Build.Number) +
		"/artifact/" + strings.Join(segments, "/"), nil
}

// Artifact builds the domain artifact for an entry
func (m *Manifest) Artifact(a ManifestArtifact) (*Artifact, error) {
	u, err := m.ArtifactURL(a)
	if err != nil {
		return nil, err
	}
	return NewArtifact(a.Name, u, m.BuildContext()), nil
}
