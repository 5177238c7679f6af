package message_test

import (
	"context"
	"errors"
	"testing"

	"chatcrypt/internal/directory"
	"chatcrypt/internal/domain"
	"chatcrypt/internal/services/identity"
	"chatcrypt/internal/services/message"
)

func newUser(t *testing.T, dir *directory.MemDirectory, id domain.UserID) domain.UserKeyBundle {
	t.Helper()
	bundle, err := identity.New(identity.Config{}).GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	dir.Publish(id, domain.PublicKeySet{
		EncryptionKey: bundle.Encryption.Public,
		SigningKey:    bundle.Signing.Public,
	})
	return bundle
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	dir := directory.NewMemDirectory()
	svc := message.New(dir)
	ctx := context.Background()

	alice := newUser(t, dir, "alice")
	bob := newUser(t, dir, "bob")

	msg, err := svc.EncryptFor(ctx, "bob", []byte("see you at noon"), alice)
	if err != nil {
		t.Fatalf("EncryptFor: %v", err)
	}
	plaintext, err := svc.DecryptFrom(ctx, "alice", msg, bob)
	if err != nil {
		t.Fatalf("DecryptFrom: %v", err)
	}
	if string(plaintext) != "see you at noon" {
		t.Fatalf("plaintext = %q", plaintext)
	}
}

func TestEncryptFor_UnknownRecipient(t *testing.T) {
	dir := directory.NewMemDirectory()
	svc := message.New(dir)

	alice := newUser(t, dir, "alice")

	_, err := svc.EncryptFor(context.Background(), "nobody", []byte("hi"), alice)
	if !errors.Is(err, domain.ErrRecipientNotFound) {
		t.Fatalf("EncryptFor = %v, want ErrRecipientNotFound", err)
	}
}

func TestDecryptFrom_UnknownSender(t *testing.T) {
	dir := directory.NewMemDirectory()
	svc := message.New(dir)
	ctx := context.Background()

	alice := newUser(t, dir, "alice")
	bob := newUser(t, dir, "bob")

	msg, err := svc.EncryptFor(ctx, "bob", []byte("hi"), alice)
	if err != nil {
		t.Fatalf("EncryptFor: %v", err)
	}
	if _, err := svc.DecryptFrom(ctx, "nobody", msg, bob); !errors.Is(err, domain.ErrRecipientNotFound) {
		t.Fatalf("DecryptFrom = %v, want ErrRecipientNotFound", err)
	}
}

func TestDecryptFrom_MisattributedSender(t *testing.T) {
	// A message from alice presented as coming from carol fails signature
	// verification against carol's published key.
	dir := directory.NewMemDirectory()
	svc := message.New(dir)
	ctx := context.Background()

	alice := newUser(t, dir, "alice")
	bob := newUser(t, dir, "bob")
	newUser(t, dir, "carol")

	msg, err := svc.EncryptFor(ctx, "bob", []byte("hi"), alice)
	if err != nil {
		t.Fatalf("EncryptFor: %v", err)
	}
	if _, err := svc.DecryptFrom(ctx, "carol", msg, bob); !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("DecryptFrom = %v, want ErrSignatureInvalid", err)
	}
}
