package yaml

import (
	"testing"
)

// FuzzManifestParser tests the YAML parser against random/malformed inputs
// to detect crashes, panics, or unexpected behavior.
//
// Run with: go test -fuzz=FuzzManifestParser -fuzztime=30s
func FuzzManifestParser(f *testing.F) {
	f.Add([]byte(`artifacts:
  - name: tool
    url: https://downloads.example.com/tool
`))

	f.Add([]byte(`server:
  url: https://ci.example.com
  username: robot
build:
  job: build-A
  number: 42
artifacts:
  - name: report.xml
    path: target/report.xml
`))

	f.Add([]byte(``))
	f.Add([]byte(`artifacts: [`))
	f.Add([]byte(`build: {job: "", number: -1}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		parser := newTestParser(nil)

		m, err := parser.Parse(data)
		if err != nil {
			return
		}

		if len(m.Artifacts) == 0 {
			t.Error("parsed manifest has no artifacts")
		}
		for _, a := range m.Artifacts {
			if a.Name == "" {
				t.Error("parsed artifact has no name")
			}
			// Every accepted entry must resolve to a URL
			if _, err := m.ArtifactURL(a); err != nil {
				t.Errorf("ArtifactURL(%s) error = %v", a.Name, err)
			}
		}
	})
}
