package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatcrypt/internal/domain"
)

// DefaultSessionTTL is how long an initiated session stays completable.
const DefaultSessionTTL = time.Hour

// Config carries the explicit knobs for the service.
type Config struct {
	// SessionTTL is the pending-session lifetime, fixed at initiation.
	// Zero means DefaultSessionTTL.
	SessionTTL time.Duration
}

// Service drives the key exchange session lifecycle over a SessionStore.
type Service struct {
	store domain.SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// New returns a Service over store configured from cfg.
func New(store domain.SessionStore, cfg Config) *Service {
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// Initiate starts (or restarts) a key exchange from initiator to recipient
// in chat. An existing pending session for the same triple is overwritten; a
// completed one is rejected with domain.ErrSessionAlreadyCompleted. The
// expiry is fixed at now + TTL.
func (s *Service) Initiate(
	ctx context.Context,
	initiator, recipient domain.UserID,
	chat domain.ChatID,
	initiatorEphemeralKey []byte,
) (domain.KeyExchangeSession, error) {
	if initiator == "" || recipient == "" || chat == "" {
		return domain.KeyExchangeSession{}, fmt.Errorf("%w: initiator, recipient, and chat ids are required", domain.ErrValidation)
	}
	if initiator == recipient {
		return domain.KeyExchangeSession{}, fmt.Errorf("%w: initiator and recipient must differ", domain.ErrValidation)
	}
	if len(initiatorEphemeralKey) != 32 {
		return domain.KeyExchangeSession{}, fmt.Errorf("%w: initiator ephemeral key must be 32 bytes", domain.ErrValidation)
	}

	nowMillis := s.now().UnixMilli()
	sess := domain.KeyExchangeSession{
		ID:                    domain.SessionID(uuid.NewString()),
		InitiatorID:           initiator,
		RecipientID:           recipient,
		ChatID:                chat,
		InitiatorEphemeralKey: append([]byte(nil), initiatorEphemeralKey...),
		Status:                domain.SessionPending,
		CreatedAt:             nowMillis,
		ExpiresAt:             nowMillis + s.ttl.Milliseconds(),
	}
	return s.store.UpsertPending(ctx, sess)
}

// Complete finishes a pending session. Only the designated recipient may
// complete, only from pending, and only before expiry; otherwise
// domain.ErrSessionNotFound, domain.ErrSessionAlreadyCompleted, or
// domain.ErrSessionExpired.
func (s *Service) Complete(
	ctx context.Context,
	id domain.SessionID,
	recipient domain.UserID,
	recipientEphemeralKey []byte,
) (domain.KeyExchangeSession, error) {
	if id == "" || recipient == "" {
		return domain.KeyExchangeSession{}, fmt.Errorf("%w: session id and recipient id are required", domain.ErrValidation)
	}
	if len(recipientEphemeralKey) != 32 {
		return domain.KeyExchangeSession{}, fmt.Errorf("%w: recipient ephemeral key must be 32 bytes", domain.ErrValidation)
	}
	return s.store.CompleteSession(ctx, id, recipient, append([]byte(nil), recipientEphemeralKey...), s.now().UnixMilli())
}

// SweepExpired transitions all pending sessions past their expiry to
// expired and returns how many changed. The transition is monotonic and
// idempotent, so concurrent sweeps are safe.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	return s.store.ExpireSessions(ctx, s.now().UnixMilli())
}

// ListPending returns the non-expired pending sessions addressed to
// recipient, newest first.
func (s *Service) ListPending(ctx context.Context, recipient domain.UserID) ([]domain.KeyExchangeSession, error) {
	if recipient == "" {
		return nil, fmt.Errorf("%w: recipient id is required", domain.ErrValidation)
	}
	return s.store.ListPending(ctx, recipient, s.now().UnixMilli())
}
