// Package crypto exposes the primitives the subsystem is built on.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519,
//     SharedSecret)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     Sign, Verify)
//   - Portable key container encodings: PKIX DER for public keys, PKCS#8
//     DER for private keys (MarshalX25519Public and friends)
//   - Public-key fingerprints (Fingerprint)
//
// All functions work with the fixed-size array types defined in
// internal/domain to avoid accidental reallocations. Callers should treat
// returned secrets as sensitive and wipe them with memzero when practical.
package crypto
