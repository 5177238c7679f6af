package store_test

import (
	"bytes"
	"context"
	"testing"

	"chatcrypt/internal/domain"
	"chatcrypt/internal/store"
)

func TestMemStore_GetSessionReturnsCopy(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()

	key := bytes.Repeat([]byte{0x11}, 32)
	sess := domain.KeyExchangeSession{
		ID:                    "sess-1",
		InitiatorID:           "alice",
		RecipientID:           "bob",
		ChatID:                "chat-1",
		InitiatorEphemeralKey: key,
		Status:                domain.SessionPending,
		CreatedAt:             1,
		ExpiresAt:             100,
	}
	if _, err := ms.UpsertPending(ctx, sess); err != nil {
		t.Fatalf("UpsertPending: %v", err)
	}

	got, ok, err := ms.GetSession(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("GetSession = %v, ok=%v", err, ok)
	}

	// Mutating the returned slice must not leak into the store.
	got.InitiatorEphemeralKey[0] = 0xFF
	again, _, err := ms.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !bytes.Equal(again.InitiatorEphemeralKey, key) {
		t.Fatal("stored session aliased the returned slice")
	}

	if _, ok, err := ms.GetSession(ctx, "absent"); err != nil || ok {
		t.Fatalf("GetSession(absent) = ok=%v err=%v, want miss", ok, err)
	}
}

func TestMemStore_GetDeviceReturnsCopy(t *testing.T) {
	ms := store.NewMemStore()
	ctx := context.Background()

	enc := bytes.Repeat([]byte{0x22}, 32)
	rec := domain.DeviceRecord{
		UserID:              "alice",
		DeviceName:          "laptop",
		Fingerprint:         "fp-laptop",
		EncryptionPublicKey: enc,
		SigningPublicKey:    bytes.Repeat([]byte{0x33}, 32),
		IsActive:            true,
		LastSeen:            1,
		RegisteredAt:        1,
	}
	if _, err := ms.UpsertDevice(ctx, rec); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	got, ok, err := ms.GetDevice(ctx, "alice", "fp-laptop")
	if err != nil || !ok {
		t.Fatalf("GetDevice = %v, ok=%v", err, ok)
	}
	got.EncryptionPublicKey[0] = 0xFF

	again, _, err := ms.GetDevice(ctx, "alice", "fp-laptop")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if !bytes.Equal(again.EncryptionPublicKey, enc) {
		t.Fatal("stored device aliased the returned slice")
	}

	if _, ok, err := ms.GetDevice(ctx, "alice", "absent"); err != nil || ok {
		t.Fatalf("GetDevice(absent) = ok=%v err=%v, want miss", ok, err)
	}
}
