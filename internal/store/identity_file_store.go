package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/domain"
	"chatcrypt/internal/services/identity"
)

const identityFilename = "identity.json"

// identityFile is the on-disk layout: public halves in the clear (they are
// public), private halves password-wrapped.
type identityFile struct {
	EncryptionPublicKey []byte                           `json:"encryption_public_key"`
	SigningPublicKey    []byte                           `json:"signing_public_key"`
	PrivateKeys         domain.EncryptedPrivateKeyBundle `json:"private_keys"`
}

// IdentityFileStore persists the local identity to disk, wrapping and
// unwrapping private key material through the identity service.
type IdentityFileStore struct {
	dir  string
	keys *identity.Service
	mu   sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string, keys *identity.Service) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, keys: keys}
}

// SaveIdentity serializes bundle, wraps the private halves with passphrase,
// and writes the result at mode 0600.
func (s *IdentityFileStore) SaveIdentity(passphrase string, bundle domain.UserKeyBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	serialized, err := s.keys.SerializeBundle(bundle)
	if err != nil {
		return err
	}
	wrapped, err := s.keys.WrapPrivateKeys(serialized, passphrase)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(identityFile{
		EncryptionPublicKey: serialized.EncryptionPublic,
		SigningPublicKey:    serialized.SigningPublic,
		PrivateKeys:         wrapped,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, identityFilename), raw, 0o600)
}

// LoadIdentity reads the identity file and unwraps the private halves with
// passphrase. A wrong passphrase surfaces as domain.ErrDecryptionFailed.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.UserKeyBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, identityFilename))
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	var file identityFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return domain.UserKeyBundle{}, fmt.Errorf("identity file: %w", err)
	}

	privates, err := s.keys.UnwrapPrivateKeys(file.PrivateKeys, passphrase)
	if err != nil {
		return domain.UserKeyBundle{}, err
	}
	return s.keys.ParseBundle(domain.SerializedKeyBundle{
		EncryptionPublic:  file.EncryptionPublicKey,
		EncryptionPrivate: privates.EncryptionPrivate,
		SigningPublic:     file.SigningPublicKey,
		SigningPrivate:    privates.SigningPrivate,
	})
}

// Fingerprint returns the fingerprint of the stored encryption public key
// without unwrapping any private material.
func (s *IdentityFileStore) Fingerprint() (domain.Fingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, identityFilename))
	if err != nil {
		return "", err
	}
	var file identityFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return "", fmt.Errorf("identity file: %w", err)
	}
	pub, err := crypto.ParseX25519Public(file.EncryptionPublicKey)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(pub.Slice()), nil
}

// PublicKeys returns the stored public halves in their DER encodings.
func (s *IdentityFileStore) PublicKeys() (encryptionDER, signingDER []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, identityFilename))
	if err != nil {
		return nil, nil, err
	}
	var file identityFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("identity file: %w", err)
	}
	return file.EncryptionPublicKey, file.SigningPublicKey, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
