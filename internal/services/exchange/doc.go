// Package exchange implements the key exchange session state machine used to
// establish a secure channel between two users in a chat.
//
// A session moves pending → completed | failed | expired and never backward.
// Re-initiating overwrites an existing pending session: this is deliberate
// renegotiation support, not a race artifact, and a completed session is
// never overwritten. The state transitions themselves are serialized by the
// backing store, so of two racing Complete calls exactly one succeeds.
package exchange
