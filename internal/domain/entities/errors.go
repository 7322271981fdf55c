package entities

import "errors"

var (
	// ErrTransferFailure is returned when the mandatory download step fails
	ErrTransferFailure = errors.New("artifact transfer failed")

	// ErrVerificationIndeterminate means the fingerprint oracle could not
	// confirm or deny the integrity of a file
	ErrVerificationIndeterminate = errors.New("verification indeterminate")

	// ErrFingerprintUnknown means the build server has no record of a digest
	ErrFingerprintUnknown = errors.New("fingerprint unknown to server")

	// ErrNoBuildContext means the artifact has no build to verify against
	ErrNoBuildContext = errors.New("artifact has no build context")

	// ErrContractViolation signals a caller precondition failure
	ErrContractViolation = errors.New("contract violation")

	// ErrArtifactNotFound is returned by transports on HTTP 404
	ErrArtifactNotFound = errors.New("artifact not found")
)
