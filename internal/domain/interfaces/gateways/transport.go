// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"io"

	"github.com/ochairo/artifetch/internal/domain/entities"
)

// Transport opens remote artifacts as byte streams
type Transport interface {
	// Fetch returns the body of url. The caller closes it.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// TransportProvider hands out transports for the two kinds of build context
type TransportProvider interface {
	// Plain returns an unauthenticated transport
	Plain() Transport

	// Authenticated returns a transport carrying the server's credentials
	Authenticated(server entities.Server) Transport
}
