package auth

import "errors"

// Authentication failures form a closed set. Handlers collapse the first
// three to one generic unauthorized response at the HTTP boundary; the
// distinction exists so logs and metrics can tell them apart.
var (
	// ErrTokenMalformed covers bad signatures, undecodable payloads, unknown
	// purposes and cross-purpose payload shapes.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired means the token's own exp claim has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked means the token is well-formed and unexpired but is no
	// longer the live token on record for its (subject, purpose) pair.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrStoreUnavailable indicates a revocation store I/O failure; unlike
	// the others it is an infrastructure fault, not a credential problem.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)
