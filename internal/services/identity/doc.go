// Package identity implements key management for user identities: key pair
// generation, portable serialization, and password wrapping of private key
// material.
//
// The service is stateless and constructed with explicit configuration; it
// holds no process-wide implicit state. A caller-supplied password is always
// required for wrapping — there is no default.
package identity
