package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/domain"
	"chatcrypt/internal/util/memzero"
)

const (
	// DefaultKDFIterations is the PBKDF2-SHA256 iteration count used when
	// Config leaves it unset.
	DefaultKDFIterations = 200_000

	// MinKDFIterations is the floor below which a configured count is
	// raised. Wrapped bundles carry their own count, so older bundles
	// remain readable.
	MinKDFIterations = 100_000

	saltSize = 32
	kekSize  = chacha20poly1305.KeySize
)

// Config carries the explicit knobs for the service.
type Config struct {
	// KDFIterations is the PBKDF2 iteration count for password wrapping.
	// Zero means DefaultKDFIterations; values below MinKDFIterations are
	// raised to the floor.
	KDFIterations int
}

// Service generates, serializes, and password-wraps identity key material.
// It is stateless and safe for concurrent use.
type Service struct {
	iterations int
}

// New returns a Service configured from cfg.
func New(cfg Config) *Service {
	iters := cfg.KDFIterations
	if iters == 0 {
		iters = DefaultKDFIterations
	}
	if iters < MinKDFIterations {
		iters = MinKDFIterations
	}
	return &Service{iterations: iters}
}

// GenerateIdentity creates a fresh user key bundle: one X25519 pair for key
// agreement and one Ed25519 pair for signing. The pairs are independent and
// never swap roles.
func (s *Service) GenerateIdentity() (domain.UserKeyBundle, error) {
	encPriv, encPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	signPriv, signPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	return domain.UserKeyBundle{
		Encryption: domain.EncryptionKeyPair{Public: encPub, Private: encPriv},
		Signing:    domain.SigningKeyPair{Public: signPub, Private: signPriv},
	}, nil
}

// SerializeBundle exports bundle to portable container encodings: PKIX DER
// for the public halves, PKCS#8 DER for the private halves.
func (s *Service) SerializeBundle(bundle domain.UserKeyBundle) (domain.SerializedKeyBundle, error) {
	encPub, err := crypto.MarshalX25519Public(bundle.Encryption.Public)
	if err != nil {
		return domain.SerializedKeyBundle{}, err
	}
	encPriv, err := crypto.MarshalX25519Private(bundle.Encryption.Private)
	if err != nil {
		return domain.SerializedKeyBundle{}, err
	}
	signPub, err := crypto.MarshalEd25519Public(bundle.Signing.Public)
	if err != nil {
		return domain.SerializedKeyBundle{}, err
	}
	signPriv, err := crypto.MarshalEd25519Private(bundle.Signing.Private)
	if err != nil {
		return domain.SerializedKeyBundle{}, err
	}
	return domain.SerializedKeyBundle{
		EncryptionPublic:  encPub,
		EncryptionPrivate: encPriv,
		SigningPublic:     signPub,
		SigningPrivate:    signPriv,
	}, nil
}

// ParseBundle is the inverse of SerializeBundle. Malformed encodings fail
// with domain.ErrKeyFormat.
func (s *Service) ParseBundle(sb domain.SerializedKeyBundle) (domain.UserKeyBundle, error) {
	encPub, err := crypto.ParseX25519Public(sb.EncryptionPublic)
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	encPriv, err := crypto.ParseX25519Private(sb.EncryptionPrivate)
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	signPub, err := crypto.ParseEd25519Public(sb.SigningPublic)
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	signPriv, err := crypto.ParseEd25519Private(sb.SigningPrivate)
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	return domain.UserKeyBundle{
		Encryption: domain.EncryptionKeyPair{Public: encPub, Private: encPriv},
		Signing:    domain.SigningKeyPair{Public: signPub, Private: signPriv},
	}, nil
}

// WrapPrivateKeys encrypts the serialized private halves of sb under a key
// derived from password. The output is self-describing: salt, nonce, and
// iteration count travel with the ciphertext.
func (s *Service) WrapPrivateKeys(sb domain.SerializedKeyBundle, password string) (domain.EncryptedPrivateKeyBundle, error) {
	if password == "" {
		return domain.EncryptedPrivateKeyBundle{}, fmt.Errorf("%w: password must not be empty", domain.ErrValidation)
	}

	plaintext, err := json.Marshal(domain.SerializedPrivateKeys{
		EncryptionPrivate: sb.EncryptionPrivate,
		SigningPrivate:    sb.SigningPrivate,
	})
	if err != nil {
		return domain.EncryptedPrivateKeyBundle{}, err
	}
	defer memzero.Zero(plaintext)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return domain.EncryptedPrivateKeyBundle{}, err
	}
	kek := pbkdf2.Key([]byte(password), salt, s.iterations, kekSize, sha256.New)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return domain.EncryptedPrivateKeyBundle{}, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.EncryptedPrivateKeyBundle{}, err
	}

	return domain.EncryptedPrivateKeyBundle{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Salt:       salt,
		Nonce:      nonce,
		Iterations: s.iterations,
	}, nil
}

// UnwrapPrivateKeys decrypts a wrapped bundle with password, using the KDF
// parameters the bundle carries. Any AEAD tag mismatch fails with
// domain.ErrDecryptionFailed — a wrong password and a tampered bundle are
// indistinguishable, and no partial output is returned.
func (s *Service) UnwrapPrivateKeys(bundle domain.EncryptedPrivateKeyBundle, password string) (domain.SerializedPrivateKeys, error) {
	if password == "" {
		return domain.SerializedPrivateKeys{}, fmt.Errorf("%w: password must not be empty", domain.ErrValidation)
	}
	if len(bundle.Salt) != saltSize || len(bundle.Nonce) != chacha20poly1305.NonceSize || bundle.Iterations <= 0 {
		return domain.SerializedPrivateKeys{}, fmt.Errorf("%w: malformed wrapped bundle", domain.ErrValidation)
	}

	kek := pbkdf2.Key([]byte(password), bundle.Salt, bundle.Iterations, kekSize, sha256.New)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return domain.SerializedPrivateKeys{}, err
	}
	plaintext, err := aead.Open(nil, bundle.Nonce, bundle.Ciphertext, nil)
	if err != nil {
		return domain.SerializedPrivateKeys{}, domain.ErrDecryptionFailed
	}
	defer memzero.Zero(plaintext)

	var keys domain.SerializedPrivateKeys
	if err := json.Unmarshal(plaintext, &keys); err != nil {
		return domain.SerializedPrivateKeys{}, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	return keys, nil
}
