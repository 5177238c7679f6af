package envelope

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/domain"
	"chatcrypt/internal/util/memzero"
)

const (
	// Version is the wire version this package produces and accepts.
	Version domain.EnvelopeVersion = 1

	// Algorithm identifies the suite: X25519 agreement, HKDF-SHA256 key
	// derivation, ChaCha20-Poly1305 AEAD, Ed25519 signatures.
	Algorithm = "x25519-hkdf-sha256+chacha20poly1305"

	// NonceSize is fixed at 96 bits.
	NonceSize = chacha20poly1305.NonceSize

	keyInfo = "chatcrypt envelope v1"
)

// Seal encrypts plaintext for the holder of recipientKey and signs the
// result with senderSigningKey. Each call generates a fresh ephemeral key
// pair; sealing the same plaintext twice yields different ciphertext and a
// different ephemeral public key.
func Seal(
	plaintext []byte,
	recipientKey domain.X25519Public,
	senderSigningKey domain.Ed25519Private,
) (domain.EncryptedMessage, error) {
	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	defer memzero.Zero(ephPriv[:])

	key, err := deriveMessageKey(ephPriv, recipientKey)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return domain.EncryptedMessage{}, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.EncryptedMessage{}, err
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)

	sig := crypto.Sign(senderSigningKey, signedPayload(ephPub.Slice(), ct, nonce))

	return domain.EncryptedMessage{
		Version:            Version,
		Algorithm:          Algorithm,
		EphemeralPublicKey: ephPub.Slice(),
		Ciphertext:         ct,
		Signature:          sig,
		Nonce:              nonce,
		Timestamp:          time.Now().UnixMilli(),
	}, nil
}

// Open verifies and decrypts msg. The signature over
// ephemeralPublicKey ∥ ciphertext ∥ nonce is checked first; only then is the
// shared secret derived and the AEAD opened. Failures map to
// domain.ErrValidation (unknown version/algorithm or malformed fields),
// domain.ErrSignatureInvalid, and domain.ErrDecryptionFailed. No partial
// plaintext is ever returned.
func Open(
	msg domain.EncryptedMessage,
	recipientKey domain.X25519Private,
	senderSigningKey domain.Ed25519Public,
) ([]byte, error) {
	if err := validate(msg); err != nil {
		return nil, err
	}

	if !crypto.Verify(senderSigningKey, signedPayload(msg.EphemeralPublicKey, msg.Ciphertext, msg.Nonce), msg.Signature) {
		return nil, domain.ErrSignatureInvalid
	}

	var ephPub domain.X25519Public
	copy(ephPub[:], msg.EphemeralPublicKey)

	key, err := deriveMessageKey(recipientKey, ephPub)
	if err != nil {
		return nil, fmt.Errorf("%w: shared secret derivation", domain.ErrDecryptionFailed)
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, msg.Nonce, msg.Ciphertext, nil)
	if err != nil {
		return nil, domain.ErrDecryptionFailed
	}
	return plaintext, nil
}

func validate(msg domain.EncryptedMessage) error {
	switch {
	case msg.Version != Version:
		return fmt.Errorf("%w: unsupported envelope version %d", domain.ErrValidation, msg.Version)
	case msg.Algorithm != Algorithm:
		return fmt.Errorf("%w: unsupported algorithm %q", domain.ErrValidation, msg.Algorithm)
	case len(msg.EphemeralPublicKey) != 32:
		return fmt.Errorf("%w: ephemeral public key must be 32 bytes", domain.ErrValidation)
	case len(msg.Nonce) != NonceSize:
		return fmt.Errorf("%w: nonce must be %d bytes", domain.ErrValidation, NonceSize)
	case len(msg.Signature) != ed25519.SignatureSize:
		return fmt.Errorf("%w: signature must be %d bytes", domain.ErrValidation, ed25519.SignatureSize)
	case len(msg.Ciphertext) < chacha20poly1305.Overhead:
		return fmt.Errorf("%w: ciphertext shorter than AEAD tag", domain.ErrValidation)
	}
	return nil
}

// deriveMessageKey runs X25519 between priv and pub and expands the shared
// secret into a 32-byte AEAD key with HKDF-SHA256.
func deriveMessageKey(priv domain.X25519Private, pub domain.X25519Public) ([]byte, error) {
	shared, err := crypto.SharedSecret(priv, pub)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(shared[:])

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared[:], nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

func signedPayload(ephemeralPub, ciphertext, nonce []byte) []byte {
	payload := make([]byte, 0, len(ephemeralPub)+len(ciphertext)+len(nonce))
	payload = append(payload, ephemeralPub...)
	payload = append(payload, ciphertext...)
	payload = append(payload, nonce...)
	return payload
}
