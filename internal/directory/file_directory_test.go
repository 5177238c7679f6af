package directory_test

import (
	"context"
	"errors"
	"testing"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/directory"
	"chatcrypt/internal/domain"
)

func publicDER(t *testing.T) (encDER, signDER []byte, encPub domain.X25519Public, signPub domain.Ed25519Public) {
	t.Helper()
	_, encPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	_, signPub, err = crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	encDER, err = crypto.MarshalX25519Public(encPub)
	if err != nil {
		t.Fatalf("MarshalX25519Public: %v", err)
	}
	signDER, err = crypto.MarshalEd25519Public(signPub)
	if err != nil {
		t.Fatalf("MarshalEd25519Public: %v", err)
	}
	return encDER, signDER, encPub, signPub
}

func TestFileDirectory_AddLookupList(t *testing.T) {
	dir := directory.NewFileDirectory(t.TempDir())

	encDER, signDER, encPub, signPub := publicDER(t)
	if err := dir.Add("bob", encDER, signDER); err != nil {
		t.Fatalf("Add: %v", err)
	}

	keys, err := dir.Lookup(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if keys.EncryptionKey != encPub || keys.SigningKey != signPub {
		t.Fatal("looked-up keys differ from the added ones")
	}

	users, err := dir.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 1 || users[0] != "bob" {
		t.Fatalf("List = %v, want [bob]", users)
	}
}

func TestFileDirectory_LookupMiss(t *testing.T) {
	dir := directory.NewFileDirectory(t.TempDir())

	if _, err := dir.Lookup(context.Background(), "nobody"); !errors.Is(err, domain.ErrRecipientNotFound) {
		t.Fatalf("Lookup = %v, want ErrRecipientNotFound", err)
	}
}

func TestFileDirectory_AddRejectsBadDER(t *testing.T) {
	dir := directory.NewFileDirectory(t.TempDir())

	encDER, signDER, _, _ := publicDER(t)
	if err := dir.Add("bob", []byte("not der"), signDER); !errors.Is(err, domain.ErrKeyFormat) {
		t.Fatalf("Add with bad encryption key = %v, want ErrKeyFormat", err)
	}
	if err := dir.Add("bob", encDER, []byte("not der")); !errors.Is(err, domain.ErrKeyFormat) {
		t.Fatalf("Add with bad signing key = %v, want ErrKeyFormat", err)
	}

	// Nothing was persisted.
	if _, err := dir.Lookup(context.Background(), "bob"); !errors.Is(err, domain.ErrRecipientNotFound) {
		t.Fatalf("Lookup = %v, want ErrRecipientNotFound", err)
	}
}

func TestFileDirectory_AddOverwrites(t *testing.T) {
	dir := directory.NewFileDirectory(t.TempDir())

	encDER, signDER, _, _ := publicDER(t)
	if err := dir.Add("bob", encDER, signDER); err != nil {
		t.Fatalf("Add: %v", err)
	}
	newEncDER, newSignDER, newEncPub, _ := publicDER(t)
	if err := dir.Add("bob", newEncDER, newSignDER); err != nil {
		t.Fatalf("re-Add: %v", err)
	}

	keys, err := dir.Lookup(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if keys.EncryptionKey != newEncPub {
		t.Fatal("re-adding a contact did not replace its keys")
	}
}
