package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ochairo/artifetch/internal/domain-adapters/gateways"
	"github.com/ochairo/artifetch/internal/domain/entities"
	"github.com/ochairo/artifetch/internal/domain/interfaces"
	"github.com/ochairo/artifetch/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/artifetch/internal/domain/services"
	"github.com/ochairo/artifetch/internal/external-adapters/logging"
	"github.com/ochairo/artifetch/internal/external-adapters/yaml"
)

// serverFlags are shared by commands that talk to a build server
type serverFlags struct {
	url      string
	job      string
	build    int
	username string
	tokenEnv string
}

func (f *serverFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.url, "server", "", "Build server base URL (e.g., https://ci.example.com)")
	fs.StringVar(&f.job, "job", "", "Job that produced the artifact (folders separated by /)")
	fs.IntVar(&f.build, "build", 0, "Build number that produced the artifact")
	fs.StringVar(&f.username, "username", "", "Build server user name")
	fs.StringVar(&f.tokenEnv, "token-env", yaml.DefaultTokenEnv, "Environment variable holding the build server API token")
}

// buildContext returns Standalone when no server is given. A server without
// a job and a positive build number is rejected.
func (f *serverFlags) buildContext() (entities.BuildContext, error) {
	if f.url == "" {
		if f.job != "" || f.build != 0 {
			return nil, fmt.Errorf("--job and --build require --server")
		}
		return entities.Standalone{}, nil
	}
	if f.job == "" {
		return nil, fmt.Errorf("--job is required with --server")
	}
	if f.build <= 0 {
		return nil, fmt.Errorf("--build must be a positive build number")
	}

	return entities.BuildScoped{
		Job:         f.job,
		BuildNumber: f.build,
		Server: entities.Server{
			BaseURL:  f.url,
			Username: f.username,
			Token:    os.Getenv(f.tokenEnv),
		},
	}, nil
}

func addVerboseFlag(fs *pflag.FlagSet) *bool {
	return fs.BoolP("verbose", "v", false, "Enable debug logging")
}

func newLogger(verbose bool) interfaces.Logger {
	return logging.NewWriterLogger(os.Stderr, verbose)
}

func newResolver(downloader *gateways.Downloader, logger interfaces.Logger) services.ArtifactResolver {
	return domainservices.NewArtifactResolver(
		downloader,
		gateways.NewFingerprintGateway(),
		gateways.NewChecksumVerifier(),
		logger,
	)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
