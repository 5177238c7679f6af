package domain

// UserID identifies a user within the chat system.
type UserID string

// String returns the string form of the user id.
func (u UserID) String() string { return string(u) }

// ChatID identifies a chat two users exchange messages in.
type ChatID string

// String returns the string form of the chat id.
func (c ChatID) String() string { return string(c) }

// SessionID uniquely identifies a key exchange session.
type SessionID string

// String returns the string form of the session id.
func (id SessionID) String() string { return string(id) }

// Fingerprint is a fixed-length digest identifying a device's key material.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// EnvelopeVersion tags the wire format of an EncryptedMessage.
type EnvelopeVersion int

// EncryptedMessage is a fully self-contained, transport-agnostic sealed
// message. Binary fields are base64 text over JSON; Timestamp is Unix epoch
// milliseconds. Receivers dispatch on Version and Algorithm rather than on
// payload shape, and a message is immutable once created.
type EncryptedMessage struct {
	Version            EnvelopeVersion `json:"version"`
	Algorithm          string          `json:"algorithm"`
	EphemeralPublicKey []byte          `json:"ephemeral_public_key"`
	Ciphertext         []byte          `json:"ciphertext"`
	Signature          []byte          `json:"signature"`
	Nonce              []byte          `json:"nonce"`
	Timestamp          int64           `json:"timestamp"`
}

// SessionStatus is the lifecycle state of a KeyExchangeSession.
type SessionStatus string

// Session states. Pending is the only non-terminal state; transitions are
// one-way and never move backward.
const (
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionExpired   SessionStatus = "expired"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionStatus) Terminal() bool { return s != SessionPending }

// KeyExchangeSession tracks key negotiation between two users in a chat.
// A session is unique per (InitiatorID, RecipientID, ChatID) and
// InitiatorID never equals RecipientID. ExpiresAt is fixed at creation.
// Timestamps are Unix epoch milliseconds; CompletedAt is zero until the
// designated recipient completes the exchange.
type KeyExchangeSession struct {
	ID                    SessionID     `json:"id"`
	InitiatorID           UserID        `json:"initiator_id"`
	RecipientID           UserID        `json:"recipient_id"`
	ChatID                ChatID        `json:"chat_id"`
	InitiatorEphemeralKey []byte        `json:"initiator_ephemeral_key"`
	RecipientEphemeralKey []byte        `json:"recipient_ephemeral_key,omitempty"`
	Status                SessionStatus `json:"status"`
	CreatedAt             int64         `json:"created_at"`
	CompletedAt           int64         `json:"completed_at,omitempty"`
	ExpiresAt             int64         `json:"expires_at"`
}

// DeviceRecord is one device's published key material for a user.
// Fingerprint is unique per user, and at most one record per fingerprint
// is active across the whole registry. LastSeen is Unix epoch milliseconds.
type DeviceRecord struct {
	UserID              UserID      `json:"user_id"`
	DeviceName          string      `json:"device_name"`
	Fingerprint         Fingerprint `json:"fingerprint"`
	EncryptionPublicKey []byte      `json:"encryption_public_key"`
	SigningPublicKey    []byte      `json:"signing_public_key"`
	IsActive            bool        `json:"is_active"`
	LastSeen            int64       `json:"last_seen"`
	RegisteredAt        int64       `json:"registered_at"`
}
