package gateways

import (
	"context"

	"github.com/ochairo/artifetch/internal/domain/entities"
)

// FingerprintOracle answers whether a content digest belongs to a build.
// Errors mean the oracle could not answer and wrap
// entities.ErrVerificationIndeterminate.
type FingerprintOracle interface {
	ValidateForBuild(ctx context.Context, server entities.Server, digest, fileName, job string, build int) (bool, error)
}
