package domain

import "errors"

// Error taxonomy. All failures are terminal at this layer; retry policy
// belongs to the caller or the transport. Callers must treat
// ErrSignatureInvalid and ErrDecryptionFailed as hard message rejection.
var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("invalid input")

	// ErrSignatureInvalid is returned when envelope signature verification
	// fails. It is always checked before any decryption is attempted.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrDecryptionFailed is returned on AEAD tag mismatch. A wrong password
	// and a tampered ciphertext are indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrKeyFormat is returned when a key encoding cannot be parsed.
	ErrKeyFormat = errors.New("malformed key encoding")

	// ErrSessionNotFound is returned when no key exchange session matches,
	// including attempts by a non-designated recipient.
	ErrSessionNotFound = errors.New("key exchange session not found")

	// ErrSessionAlreadyCompleted is returned when a session is past pending.
	ErrSessionAlreadyCompleted = errors.New("key exchange session already completed")

	// ErrSessionExpired is returned when a session's TTL has elapsed.
	ErrSessionExpired = errors.New("key exchange session expired")

	// ErrDeviceConflict is returned when a fingerprint is already active
	// under a different user.
	ErrDeviceConflict = errors.New("device fingerprint conflict")

	// ErrDeviceNotFound is returned when no device record matches.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrRecipientNotFound is returned by a PublicKeyDirectory when no keys
	// are published for a user.
	ErrRecipientNotFound = errors.New("no public keys for user")
)
