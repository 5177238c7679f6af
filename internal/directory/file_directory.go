package directory

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/domain"
)

const contactsFilename = "contacts.json"

// contact stores a peer's public keys in their DER container encodings.
type contact struct {
	EncryptionPublicKey []byte `json:"encryption_public_key"`
	SigningPublicKey    []byte `json:"signing_public_key"`
}

// FileDirectory is a PublicKeyDirectory backed by a JSON contacts file.
type FileDirectory struct {
	dir string
	mu  sync.Mutex
}

// NewFileDirectory returns a FileDirectory rooted at dir.
func NewFileDirectory(dir string) *FileDirectory {
	return &FileDirectory{dir: dir}
}

// Add records the public keys for user, given as PKIX DER.
func (d *FileDirectory) Add(user domain.UserID, encryptionDER, signingDER []byte) error {
	// Validate before persisting so lookups never hit unparsable entries.
	if _, err := crypto.ParseX25519Public(encryptionDER); err != nil {
		return err
	}
	if _, err := crypto.ParseEd25519Public(signingDER); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	contacts := map[domain.UserID]contact{}
	if err := d.read(&contacts); err != nil {
		return err
	}
	contacts[user] = contact{EncryptionPublicKey: encryptionDER, SigningPublicKey: signingDER}
	return d.write(contacts)
}

// List returns the known user ids.
func (d *FileDirectory) List() ([]domain.UserID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	contacts := map[domain.UserID]contact{}
	if err := d.read(&contacts); err != nil {
		return nil, err
	}
	out := make([]domain.UserID, 0, len(contacts))
	for user := range contacts {
		out = append(out, user)
	}
	return out, nil
}

// Lookup implements domain.PublicKeyDirectory.
func (d *FileDirectory) Lookup(ctx context.Context, user domain.UserID) (domain.PublicKeySet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	contacts := map[domain.UserID]contact{}
	if err := d.read(&contacts); err != nil {
		return domain.PublicKeySet{}, err
	}
	c, ok := contacts[user]
	if !ok {
		return domain.PublicKeySet{}, domain.ErrRecipientNotFound
	}
	encPub, err := crypto.ParseX25519Public(c.EncryptionPublicKey)
	if err != nil {
		return domain.PublicKeySet{}, err
	}
	signPub, err := crypto.ParseEd25519Public(c.SigningPublicKey)
	if err != nil {
		return domain.PublicKeySet{}, err
	}
	return domain.PublicKeySet{EncryptionKey: encPub, SigningKey: signPub}, nil
}

func (d *FileDirectory) read(v any) error {
	data, err := os.ReadFile(filepath.Join(d.dir, contactsFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (d *FileDirectory) write(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.dir, contactsFilename), data, 0o600)
}

// Compile-time assertion that FileDirectory implements domain.PublicKeyDirectory.
var _ domain.PublicKeyDirectory = (*FileDirectory)(nil)
