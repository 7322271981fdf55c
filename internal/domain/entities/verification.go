package entities

// VerificationStatus is the outcome of checking a local file against the
// fingerprint record of its build
type VerificationStatus int

const (
	// VerificationUnavailable means the oracle could not classify the file
	VerificationUnavailable VerificationStatus = iota
	// VerificationConfirmed means the digest belongs to the expected build
	VerificationConfirmed
	// VerificationMismatch means the oracle answered and disagreed
	VerificationMismatch
)

func (s VerificationStatus) String() string {
	switch s {
	case VerificationConfirmed:
		return "confirmed"
	case VerificationMismatch:
		return "mismatch"
	default:
		return "unavailable"
	}
}

// VerificationResult carries the status plus the digest that was checked.
// Err is set when Status is VerificationUnavailable.
type VerificationResult struct {
	Status VerificationStatus
	Digest string
	Err    error
}

// Confirmed is a shorthand for Status == VerificationConfirmed
func (r VerificationResult) Confirmed() bool {
	return r.Status == VerificationConfirmed
}

// SaveResult describes what a save did
type SaveResult struct {
	Path         string
	Downloaded   bool
	Verification VerificationResult
}
