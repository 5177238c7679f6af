package domain

import "context"

// PublicKeyDirectory resolves a user id to their current public keys. It is
// supplied by an external identity/profile store and consumed before sealing
// a message or initiating a key exchange. A miss is ErrRecipientNotFound.
type PublicKeyDirectory interface {
	Lookup(ctx context.Context, user UserID) (PublicKeySet, error)
}

// IdentityStore persists the local long-term identity keys, private halves
// password-wrapped at rest.
type IdentityStore interface {
	SaveIdentity(passphrase string, bundle UserKeyBundle) error
	LoadIdentity(passphrase string) (UserKeyBundle, error)
}

// SessionStore persists key exchange sessions. Implementations must
// serialize concurrent writes on the same key, either under a lock or via
// conditional updates, so that of two racing Complete calls exactly one
// succeeds.
type SessionStore interface {
	// UpsertPending creates or replaces the session keyed by
	// (initiator, recipient, chat). An existing pending, failed, or expired
	// session is overwritten; an existing completed session is left intact
	// and ErrSessionAlreadyCompleted is returned.
	UpsertPending(ctx context.Context, sess KeyExchangeSession) (KeyExchangeSession, error)

	// GetSession returns the session with the given id.
	GetSession(ctx context.Context, id SessionID) (KeyExchangeSession, bool, error)

	// CompleteSession transitions the session to completed if and only if it
	// is pending, addressed to recipient, and not past its expiry at
	// nowMillis. Otherwise ErrSessionNotFound, ErrSessionAlreadyCompleted,
	// or ErrSessionExpired.
	CompleteSession(ctx context.Context, id SessionID, recipient UserID, recipientEphemeralKey []byte, nowMillis int64) (KeyExchangeSession, error)

	// ExpireSessions transitions every pending session past its expiry to
	// expired and reports how many rows changed. Idempotent and safe under
	// concurrent invocation.
	ExpireSessions(ctx context.Context, nowMillis int64) (int, error)

	// ListPending returns non-expired pending sessions addressed to
	// recipient, newest first.
	ListPending(ctx context.Context, recipient UserID, nowMillis int64) ([]KeyExchangeSession, error)
}

// DeviceStore persists per-user device key records. Uniqueness invariants
// ((user, fingerprint) upsert; one active owner per fingerprint) are
// enforced here.
type DeviceStore interface {
	// UpsertDevice creates or replaces the record keyed by
	// (rec.UserID, rec.Fingerprint). If the fingerprint is active under a
	// different user, ErrDeviceConflict.
	UpsertDevice(ctx context.Context, rec DeviceRecord) (DeviceRecord, error)

	// GetDevice returns the record for (user, fingerprint).
	GetDevice(ctx context.Context, user UserID, fp Fingerprint) (DeviceRecord, bool, error)

	// ListActiveDevices returns active records for user, most recently seen
	// first.
	ListActiveDevices(ctx context.Context, user UserID) ([]DeviceRecord, error)

	// DeactivateDevice marks the record inactive. ErrDeviceNotFound if no
	// record matches.
	DeactivateDevice(ctx context.Context, user UserID, fp Fingerprint) error

	// TouchDevice bumps LastSeen on an active record.
	TouchDevice(ctx context.Context, user UserID, fp Fingerprint, nowMillis int64) error
}
