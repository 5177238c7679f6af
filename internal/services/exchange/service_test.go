package exchange

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/domain"
	"chatcrypt/internal/protocol/envelope"
	"chatcrypt/internal/store"
)

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newService(t *testing.T) (*Service, *testClock) {
	t.Helper()
	clock := newTestClock()
	svc := New(store.NewMemStore(), Config{SessionTTL: time.Hour})
	svc.now = clock.Now
	return svc, clock
}

func ephemeralKey(t *testing.T) []byte {
	t.Helper()
	_, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	return pub.Slice()
}

func TestInitiateComplete_HappyPath(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	e1 := ephemeralKey(t)
	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", e1)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if sess.Status != domain.SessionPending {
		t.Fatalf("status = %q, want pending", sess.Status)
	}
	if sess.ExpiresAt != sess.CreatedAt+time.Hour.Milliseconds() {
		t.Fatalf("expiry not fixed at creation + TTL: created=%d expires=%d", sess.CreatedAt, sess.ExpiresAt)
	}

	clock.Advance(10 * time.Second)
	e2 := ephemeralKey(t)
	done, err := svc.Complete(ctx, sess.ID, "bob", e2)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != domain.SessionCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}
	if done.CompletedAt != clock.Now().UnixMilli() {
		t.Fatalf("completedAt = %d, want %d", done.CompletedAt, clock.Now().UnixMilli())
	}
	if !bytes.Equal(done.RecipientEphemeralKey, e2) {
		t.Fatal("recipient ephemeral key not stored")
	}
}

func TestComplete_NonDesignatedRecipient(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, err := svc.Complete(ctx, sess.ID, "mallory", ephemeralKey(t)); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Complete by non-recipient = %v, want ErrSessionNotFound", err)
	}
}

func TestComplete_Twice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, err := svc.Complete(ctx, sess.ID, "bob", ephemeralKey(t)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Complete(ctx, sess.ID, "bob", ephemeralKey(t)); !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("second Complete = %v, want ErrSessionAlreadyCompleted", err)
	}
}

func TestInitiate_OverwritesPending(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	second, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("re-Initiate: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("re-initiation kept the old session id")
	}

	// The first session is gone; completing it fails.
	if _, err := svc.Complete(ctx, first.ID, "bob", ephemeralKey(t)); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Complete(overwritten session) = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Complete(ctx, second.ID, "bob", ephemeralKey(t)); err != nil {
		t.Fatalf("Complete(current session): %v", err)
	}
}

func TestInitiate_RejectedAfterCompletion(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, err := svc.Complete(ctx, sess.ID, "bob", ephemeralKey(t)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t)); !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("Initiate over completed = %v, want ErrSessionAlreadyCompleted", err)
	}

	// A different chat is an independent key.
	if _, err := svc.Initiate(ctx, "alice", "bob", "chat-2", ephemeralKey(t)); err != nil {
		t.Fatalf("Initiate in another chat: %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	clock.Advance(30 * time.Minute)
	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 0 {
		t.Fatalf("swept %d sessions before expiry", n)
	}

	clock.Advance(31 * time.Minute)
	n, err = svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}

	// Idempotent under repetition.
	n, err = svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep changed %d sessions, want 0", n)
	}

	if _, err := svc.Complete(ctx, sess.ID, "bob", ephemeralKey(t)); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("Complete after sweep = %v, want ErrSessionExpired", err)
	}
}

func TestComplete_LazyExpiry(t *testing.T) {
	// Past TTL but not yet swept: completion still fails expired.
	svc, clock := newService(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := svc.Complete(ctx, sess.ID, "bob", ephemeralKey(t)); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("Complete past TTL = %v, want ErrSessionExpired", err)
	}
}

func TestListPending(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	if _, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t)); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	clock.Advance(time.Minute)
	newer, err := svc.Initiate(ctx, "carol", "bob", "chat-2", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	// Addressed to someone else; must not appear.
	if _, err := svc.Initiate(ctx, "alice", "carol", "chat-3", ephemeralKey(t)); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	pending, err := svc.ListPending(ctx, "bob")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2", len(pending))
	}
	if pending[0].ID != newer.ID {
		t.Fatal("pending sessions not newest first")
	}

	// Once expired, sessions drop out of the listing even before a sweep.
	clock.Advance(2 * time.Hour)
	pending, err = svc.ListPending(ctx, "bob")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("len(pending) = %d after expiry, want 0", len(pending))
	}
}

func TestInitiate_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name                 string
		initiator, recipient domain.UserID
		chat                 domain.ChatID
		key                  []byte
	}{
		{"self exchange", "alice", "alice", "chat-1", ephemeralKey(t)},
		{"empty initiator", "", "bob", "chat-1", ephemeralKey(t)},
		{"empty chat", "alice", "bob", "", ephemeralKey(t)},
		{"short key", "alice", "bob", "chat-1", []byte("short")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Initiate(ctx, tc.initiator, tc.recipient, tc.chat, tc.key); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Initiate = %v, want ErrValidation", err)
			}
		})
	}
}

func TestComplete_Racing(t *testing.T) {
	// Of N racing completes, exactly one wins; the rest observe
	// AlreadyCompleted.
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", ephemeralKey(t))
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		completed int
	)
	key := ephemeralKey(t)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Complete(ctx, sess.ID, "bob", key)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrSessionAlreadyCompleted):
				completed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if completed != racers-1 {
		t.Fatalf("losers observing AlreadyCompleted = %d, want %d", completed, racers-1)
	}
}

// TestExchangeThenMessage walks the full flow: initiate at t0, complete at
// t0+10s, seal a message for the recipient's long-term key, decrypt it, then
// retry the completion.
func TestExchangeThenMessage(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	_, aEphPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}

	sess, err := svc.Initiate(ctx, "alice", "bob", "chat-1", aEphPub.Slice())
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if sess.ExpiresAt-sess.CreatedAt != (time.Hour).Milliseconds() {
		t.Fatalf("TTL = %dms, want 3600000", sess.ExpiresAt-sess.CreatedAt)
	}

	clock.Advance(10 * time.Second)
	_, bEphPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	done, err := svc.Complete(ctx, sess.ID, "bob", bEphPub.Slice())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != domain.SessionCompleted {
		t.Fatalf("status = %q, want completed", done.Status)
	}

	// Alice encrypts for Bob's long-term keys.
	bobEncPriv, bobEncPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	aliceSignPriv, aliceSignPub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	msg, err := envelope.Seal([]byte("hello"), bobEncPub, aliceSignPriv)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	plaintext, err := envelope.Open(msg, bobEncPriv, aliceSignPub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(plaintext) != "hello" {
		t.Fatalf("plaintext = %q, want %q", plaintext, "hello")
	}

	if _, err := svc.Complete(ctx, sess.ID, "bob", bEphPub.Slice()); !errors.Is(err, domain.ErrSessionAlreadyCompleted) {
		t.Fatalf("retried Complete = %v, want ErrSessionAlreadyCompleted", err)
	}
}
