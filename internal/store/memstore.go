package store

import (
	"context"
	"sort"
	"sync"

	"chatcrypt/internal/domain"
)

type sessionKey struct {
	initiator domain.UserID
	recipient domain.UserID
	chat      domain.ChatID
}

type deviceKey struct {
	user domain.UserID
	fp   domain.Fingerprint
}

// MemStore is an in-memory SessionStore and DeviceStore. All operations are
// serialized under one mutex, which supplies the compare-and-swap behavior
// the session state machine relies on.
type MemStore struct {
	mu           sync.Mutex
	sessions     map[domain.SessionID]domain.KeyExchangeSession
	sessionByKey map[sessionKey]domain.SessionID
	devices      map[deviceKey]domain.DeviceRecord
	fpOwner      map[domain.Fingerprint]domain.UserID
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions:     make(map[domain.SessionID]domain.KeyExchangeSession),
		sessionByKey: make(map[sessionKey]domain.SessionID),
		devices:      make(map[deviceKey]domain.DeviceRecord),
		fpOwner:      make(map[domain.Fingerprint]domain.UserID),
	}
}

// ---------- Sessions ----------

// UpsertPending implements domain.SessionStore.
func (s *MemStore) UpsertPending(ctx context.Context, sess domain.KeyExchangeSession) (domain.KeyExchangeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{sess.InitiatorID, sess.RecipientID, sess.ChatID}
	if oldID, ok := s.sessionByKey[key]; ok {
		old := s.sessions[oldID]
		if old.Status == domain.SessionCompleted {
			return domain.KeyExchangeSession{}, domain.ErrSessionAlreadyCompleted
		}
		delete(s.sessions, oldID)
	}
	s.sessions[sess.ID] = copySession(sess)
	s.sessionByKey[key] = sess.ID
	return sess, nil
}

// GetSession implements domain.SessionStore.
func (s *MemStore) GetSession(ctx context.Context, id domain.SessionID) (domain.KeyExchangeSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.KeyExchangeSession{}, false, nil
	}
	return copySession(sess), true, nil
}

// CompleteSession implements domain.SessionStore.
func (s *MemStore) CompleteSession(ctx context.Context, id domain.SessionID, recipient domain.UserID, recipientEphemeralKey []byte, nowMillis int64) (domain.KeyExchangeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.RecipientID != recipient {
		return domain.KeyExchangeSession{}, domain.ErrSessionNotFound
	}
	switch sess.Status {
	case domain.SessionCompleted:
		return domain.KeyExchangeSession{}, domain.ErrSessionAlreadyCompleted
	case domain.SessionExpired:
		return domain.KeyExchangeSession{}, domain.ErrSessionExpired
	case domain.SessionFailed:
		return domain.KeyExchangeSession{}, domain.ErrSessionNotFound
	}
	if sess.ExpiresAt <= nowMillis {
		// Past TTL but not yet swept: expire it now rather than complete it.
		sess.Status = domain.SessionExpired
		s.sessions[id] = sess
		return domain.KeyExchangeSession{}, domain.ErrSessionExpired
	}

	sess.Status = domain.SessionCompleted
	sess.RecipientEphemeralKey = append([]byte(nil), recipientEphemeralKey...)
	sess.CompletedAt = nowMillis
	s.sessions[id] = sess
	return copySession(sess), nil
}

// ExpireSessions implements domain.SessionStore.
func (s *MemStore) ExpireSessions(ctx context.Context, nowMillis int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.Status == domain.SessionPending && sess.ExpiresAt <= nowMillis {
			sess.Status = domain.SessionExpired
			s.sessions[id] = sess
			n++
		}
	}
	return n, nil
}

// ListPending implements domain.SessionStore.
func (s *MemStore) ListPending(ctx context.Context, recipient domain.UserID, nowMillis int64) ([]domain.KeyExchangeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.KeyExchangeSession
	for _, sess := range s.sessions {
		if sess.Status == domain.SessionPending && sess.RecipientID == recipient && sess.ExpiresAt > nowMillis {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---------- Devices ----------

// UpsertDevice implements domain.DeviceStore.
func (s *MemStore) UpsertDevice(ctx context.Context, rec domain.DeviceRecord) (domain.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.fpOwner[rec.Fingerprint]; ok && owner != rec.UserID {
		return domain.DeviceRecord{}, domain.ErrDeviceConflict
	}

	key := deviceKey{rec.UserID, rec.Fingerprint}
	if old, ok := s.devices[key]; ok {
		rec.RegisteredAt = old.RegisteredAt
	}
	s.devices[key] = copyDevice(rec)
	s.fpOwner[rec.Fingerprint] = rec.UserID
	return rec, nil
}

// GetDevice implements domain.DeviceStore.
func (s *MemStore) GetDevice(ctx context.Context, user domain.UserID, fp domain.Fingerprint) (domain.DeviceRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.devices[deviceKey{user, fp}]
	if !ok {
		return domain.DeviceRecord{}, false, nil
	}
	return copyDevice(rec), true, nil
}

// ListActiveDevices implements domain.DeviceStore.
func (s *MemStore) ListActiveDevices(ctx context.Context, user domain.UserID) ([]domain.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.DeviceRecord
	for key, rec := range s.devices {
		if key.user == user && rec.IsActive {
			out = append(out, copyDevice(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen != out[j].LastSeen {
			return out[i].LastSeen > out[j].LastSeen
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

// DeactivateDevice implements domain.DeviceStore.
func (s *MemStore) DeactivateDevice(ctx context.Context, user domain.UserID, fp domain.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deviceKey{user, fp}
	rec, ok := s.devices[key]
	if !ok {
		return domain.ErrDeviceNotFound
	}
	rec.IsActive = false
	s.devices[key] = rec
	if s.fpOwner[fp] == user {
		delete(s.fpOwner, fp)
	}
	return nil
}

// TouchDevice implements domain.DeviceStore.
func (s *MemStore) TouchDevice(ctx context.Context, user domain.UserID, fp domain.Fingerprint, nowMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deviceKey{user, fp}
	rec, ok := s.devices[key]
	if !ok || !rec.IsActive {
		return domain.ErrDeviceNotFound
	}
	rec.LastSeen = nowMillis
	s.devices[key] = rec
	return nil
}

func copySession(sess domain.KeyExchangeSession) domain.KeyExchangeSession {
	sess.InitiatorEphemeralKey = append([]byte(nil), sess.InitiatorEphemeralKey...)
	sess.RecipientEphemeralKey = append([]byte(nil), sess.RecipientEphemeralKey...)
	return sess
}

func copyDevice(rec domain.DeviceRecord) domain.DeviceRecord {
	rec.EncryptionPublicKey = append([]byte(nil), rec.EncryptionPublicKey...)
	rec.SigningPublicKey = append([]byte(nil), rec.SigningPublicKey...)
	return rec
}

// Compile-time assertions that MemStore implements both store contracts.
var (
	_ domain.SessionStore = (*MemStore)(nil)
	_ domain.DeviceStore  = (*MemStore)(nil)
)
