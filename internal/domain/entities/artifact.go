// Package entities defines core domain models and data structures.
package entities

import "fmt"

// Artifact identifies a single file produced by a remote build
type Artifact struct {
	Name  string
	URL   string
	Build BuildContext
}

// NewArtifact creates an artifact. A nil build context means Standalone.
func NewArtifact(name, url string, build BuildContext) *Artifact {
	if build == nil {
		build = Standalone{}
	}
	return &Artifact{
		Name:  name,
		URL:   url,
		Build: build,
	}
}

// String renders a short identifier for logs
func (a *Artifact) String() string {
	return fmt.Sprintf("<Artifact %s>", a.URL)
}

// BuildContext is the provenance of an artifact. It is either Standalone or
// BuildScoped; no other implementations exist outside this package.
type BuildContext interface {
	isBuildContext()
}

// Standalone marks an artifact with no known build. Fetches are
// unauthenticated and fingerprint verification is unavailable.
type Standalone struct{}

func (Standalone) isBuildContext() {}

// BuildScoped ties an artifact to a job and build number on a build server
type BuildScoped struct {
	Job         string
	BuildNumber int
	Server      Server
}

func (BuildScoped) isBuildContext() {}

// Server is a handle to the build server that hosts artifacts and fingerprints
type Server struct {
	BaseURL  string
	Username string
	Token    string
}

// HasCredentials reports whether basic auth should be sent
func (s Server) HasCredentials() bool {
	return s.Username != "" && s.Token != ""
}
