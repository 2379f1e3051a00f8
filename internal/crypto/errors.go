package crypto

import "errors"

var (
	// ErrAuthenticationFailed reports a GCM tag mismatch: wrong key, corrupted
	// or tampered ciphertext. The caller's context decides which reading
	// applies (a failed unlock attempt vs. vault corruption after unlock).
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrMalformedCiphertext reports a blob too short to contain an IV.
	ErrMalformedCiphertext = errors.New("malformed ciphertext: shorter than IV")

	// ErrInvalidKDFParams reports an empty salt or non-positive iteration count.
	ErrInvalidKDFParams = errors.New("invalid key derivation parameters")
)
