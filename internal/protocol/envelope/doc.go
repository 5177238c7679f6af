// Package envelope implements the per-message authenticated encryption
// protocol.
//
// Every message is sealed under a fresh ephemeral X25519 key pair, which is
// the sole source of forward secrecy: the symmetric key is derived from the
// agreement between the ephemeral private key and the recipient's long-term
// encryption public key, and the ephemeral private key is discarded after
// use. The sender's long-term Ed25519 key signs
// ephemeralPublicKey ∥ ciphertext ∥ nonce, binding the ephemeral key to the
// ciphertext so a captured ciphertext cannot be spliced onto a different
// ephemeral key.
//
// On open, the signature is verified before any decryption is attempted.
//
// The 96-bit nonce is random per message. That is safe here because each
// message also uses a distinct derived key, so key-nonce pairs never repeat
// across messages.
package envelope
