package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chatcrypt/internal/domain"
	"chatcrypt/internal/services/identity"
	"chatcrypt/internal/store"
)

func newFileStore(t *testing.T) (*store.IdentityFileStore, string, *identity.Service) {
	t.Helper()
	dir := t.TempDir()
	keys := identity.New(identity.Config{})
	return store.NewIdentityFileStore(dir, keys), dir, keys
}

func TestIdentityFileStore_RoundTrip(t *testing.T) {
	fs, dir, keys := newFileStore(t)

	bundle, err := keys.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := fs.SaveIdentity("correct horse", bundle); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "identity.json"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("identity file mode = %o, want 0600", perm)
	}

	loaded, err := fs.LoadIdentity("correct horse")
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if loaded != bundle {
		t.Fatal("loaded bundle differs from the saved one")
	}
}

func TestIdentityFileStore_WrongPassphrase(t *testing.T) {
	fs, _, keys := newFileStore(t)

	bundle, err := keys.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := fs.SaveIdentity("correct horse", bundle); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	if _, err := fs.LoadIdentity("battery staple"); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("LoadIdentity with wrong passphrase = %v, want ErrDecryptionFailed", err)
	}
}

func TestIdentityFileStore_EmptyPassphrase(t *testing.T) {
	fs, _, keys := newFileStore(t)

	bundle, err := keys.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := fs.SaveIdentity("", bundle); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("SaveIdentity with empty passphrase = %v, want ErrValidation", err)
	}
}

func TestIdentityFileStore_FingerprintAndPublicKeys(t *testing.T) {
	fs, _, keys := newFileStore(t)

	bundle, err := keys.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	if err := fs.SaveIdentity("correct horse", bundle); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	// Neither accessor needs the passphrase.
	fp, err := fs.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if len(fp) != 64 {
		t.Fatalf("len(fingerprint) = %d, want 64 hex chars", len(fp))
	}

	encDER, signDER, err := fs.PublicKeys()
	if err != nil {
		t.Fatalf("PublicKeys: %v", err)
	}
	serialized, err := keys.SerializeBundle(bundle)
	if err != nil {
		t.Fatalf("SerializeBundle: %v", err)
	}
	if string(encDER) != string(serialized.EncryptionPublic) || string(signDER) != string(serialized.SigningPublic) {
		t.Fatal("stored public keys differ from the bundle's")
	}
}

func TestIdentityFileStore_MissingFile(t *testing.T) {
	fs, _, _ := newFileStore(t)

	if _, err := fs.LoadIdentity("correct horse"); err == nil {
		t.Fatal("LoadIdentity succeeded with no identity file")
	}
}
