package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gopkg.in/gorp.v1"

	"chatcrypt/internal/domain"
)

// uniqueViolation is the postgres error code raised when a unique index is
// violated.
const uniqueViolation = "23505"

type sessionRow struct {
	ID                    string `db:"id"`
	InitiatorID           string `db:"initiator_id"`
	RecipientID           string `db:"recipient_id"`
	ChatID                string `db:"chat_id"`
	InitiatorEphemeralKey []byte `db:"initiator_ephemeral_key"`
	RecipientEphemeralKey []byte `db:"recipient_ephemeral_key"`
	Status                string `db:"status"`
	CreatedAt             int64  `db:"created_at"`
	CompletedAt           int64  `db:"completed_at"`
	ExpiresAt             int64  `db:"expires_at"`
}

type deviceRow struct {
	UserID              string `db:"user_id"`
	DeviceName          string `db:"device_name"`
	Fingerprint         string `db:"fingerprint"`
	EncryptionPublicKey []byte `db:"encryption_public_key"`
	SigningPublicKey    []byte `db:"signing_public_key"`
	IsActive            bool   `db:"is_active"`
	LastSeen            int64  `db:"last_seen"`
	RegisteredAt        int64  `db:"registered_at"`
}

var schema = []struct {
	Name       string
	Table      interface{}
	PrimaryKey []string
}{
	{"key_exchange_session", sessionRow{}, []string{"ID"}},
	{"device_record", deviceRow{}, []string{"UserID", "Fingerprint"}},
}

// Indexes backing the uniqueness invariants: one session per
// (initiator, recipient, chat) and one active owner per fingerprint.
var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS key_exchange_session_triple
	 ON key_exchange_session (initiator_id, recipient_id, chat_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS device_record_active_fingerprint
	 ON device_record (fingerprint) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS key_exchange_session_recipient
	 ON key_exchange_session (recipient_id, status, expires_at)`,
}

// PostgresStore implements SessionStore and DeviceStore on postgres. State
// transitions are single conditional statements, so racing writers resolve
// in the database: one wins, the others observe the resulting state.
type PostgresStore struct {
	dbMap *gorp.DbMap
}

// NewPostgresStore opens dsn and prepares the table mapping.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB wraps an existing connection pool.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	dbMap := &gorp.DbMap{Db: db, Dialect: gorp.PostgresDialect{}}
	for _, t := range schema {
		dbMap.AddTableWithName(t.Table, t.Name).SetKeys(false, t.PrimaryKey...)
	}
	return &PostgresStore{dbMap: dbMap}
}

// CreateTables creates the schema and indexes if they do not exist.
func (s *PostgresStore) CreateTables() error {
	if err := s.dbMap.CreateTablesIfNotExists(); err != nil {
		return err
	}
	for _, idx := range indexes {
		if _, err := s.dbMap.Exec(idx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error { return s.dbMap.Db.Close() }

// ---------- Sessions ----------

// UpsertPending implements domain.SessionStore. The insert overwrites any
// non-completed session for the triple in one statement; zero rows affected
// means a completed session holds the key.
func (s *PostgresStore) UpsertPending(ctx context.Context, sess domain.KeyExchangeSession) (domain.KeyExchangeSession, error) {
	res, err := s.dbMap.Db.ExecContext(ctx,
		`INSERT INTO key_exchange_session
		   (id, initiator_id, recipient_id, chat_id, initiator_ephemeral_key,
		    recipient_ephemeral_key, status, created_at, completed_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, NULL, $6, $7, 0, $8)
		 ON CONFLICT (initiator_id, recipient_id, chat_id) DO UPDATE
		 SET id = EXCLUDED.id,
		     initiator_ephemeral_key = EXCLUDED.initiator_ephemeral_key,
		     recipient_ephemeral_key = NULL,
		     status = EXCLUDED.status,
		     created_at = EXCLUDED.created_at,
		     completed_at = 0,
		     expires_at = EXCLUDED.expires_at
		 WHERE key_exchange_session.status <> $9`,
		string(sess.ID), string(sess.InitiatorID), string(sess.RecipientID), string(sess.ChatID),
		sess.InitiatorEphemeralKey, string(domain.SessionPending),
		sess.CreatedAt, sess.ExpiresAt, string(domain.SessionCompleted))
	if err != nil {
		return domain.KeyExchangeSession{}, fmt.Errorf("upsert session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.KeyExchangeSession{}, err
	}
	if n == 0 {
		return domain.KeyExchangeSession{}, domain.ErrSessionAlreadyCompleted
	}
	return sess, nil
}

// GetSession implements domain.SessionStore.
func (s *PostgresStore) GetSession(ctx context.Context, id domain.SessionID) (domain.KeyExchangeSession, bool, error) {
	var row sessionRow
	err := s.dbMap.SelectOne(&row,
		`SELECT * FROM key_exchange_session WHERE id = $1`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.KeyExchangeSession{}, false, nil
	}
	if err != nil {
		return domain.KeyExchangeSession{}, false, err
	}
	return row.toDomain(), true, nil
}

// CompleteSession implements domain.SessionStore. The transition is a single
// conditional update; when it misses, the current row classifies the error.
func (s *PostgresStore) CompleteSession(ctx context.Context, id domain.SessionID, recipient domain.UserID, recipientEphemeralKey []byte, nowMillis int64) (domain.KeyExchangeSession, error) {
	res, err := s.dbMap.Db.ExecContext(ctx,
		`UPDATE key_exchange_session
		 SET status = $1, recipient_ephemeral_key = $2, completed_at = $3
		 WHERE id = $4 AND recipient_id = $5 AND status = $6 AND expires_at > $3`,
		string(domain.SessionCompleted), recipientEphemeralKey, nowMillis,
		string(id), string(recipient), string(domain.SessionPending))
	if err != nil {
		return domain.KeyExchangeSession{}, fmt.Errorf("complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.KeyExchangeSession{}, err
	}
	if n == 1 {
		sess, ok, err := s.GetSession(ctx, id)
		if err != nil {
			return domain.KeyExchangeSession{}, err
		}
		if !ok {
			return domain.KeyExchangeSession{}, domain.ErrSessionNotFound
		}
		return sess, nil
	}

	sess, ok, err := s.GetSession(ctx, id)
	if err != nil {
		return domain.KeyExchangeSession{}, err
	}
	if !ok || sess.RecipientID != recipient {
		return domain.KeyExchangeSession{}, domain.ErrSessionNotFound
	}
	switch {
	case sess.Status == domain.SessionCompleted:
		return domain.KeyExchangeSession{}, domain.ErrSessionAlreadyCompleted
	case sess.Status == domain.SessionExpired,
		sess.Status == domain.SessionPending && sess.ExpiresAt <= nowMillis:
		return domain.KeyExchangeSession{}, domain.ErrSessionExpired
	default:
		return domain.KeyExchangeSession{}, domain.ErrSessionNotFound
	}
}

// ExpireSessions implements domain.SessionStore.
func (s *PostgresStore) ExpireSessions(ctx context.Context, nowMillis int64) (int, error) {
	res, err := s.dbMap.Db.ExecContext(ctx,
		`UPDATE key_exchange_session
		 SET status = $1
		 WHERE status = $2 AND expires_at <= $3`,
		string(domain.SessionExpired), string(domain.SessionPending), nowMillis)
	if err != nil {
		return 0, fmt.Errorf("expire sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ListPending implements domain.SessionStore.
func (s *PostgresStore) ListPending(ctx context.Context, recipient domain.UserID, nowMillis int64) ([]domain.KeyExchangeSession, error) {
	var rows []sessionRow
	_, err := s.dbMap.Select(&rows,
		`SELECT * FROM key_exchange_session
		 WHERE recipient_id = $1 AND status = $2 AND expires_at > $3
		 ORDER BY created_at DESC, id`,
		string(recipient), string(domain.SessionPending), nowMillis)
	if err != nil {
		return nil, err
	}
	out := make([]domain.KeyExchangeSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ---------- Devices ----------

// UpsertDevice implements domain.DeviceStore. The partial unique index on
// active fingerprints turns a cross-user registration into a unique
// violation, reported as ErrDeviceConflict.
func (s *PostgresStore) UpsertDevice(ctx context.Context, rec domain.DeviceRecord) (domain.DeviceRecord, error) {
	_, err := s.dbMap.Db.ExecContext(ctx,
		`INSERT INTO device_record
		   (user_id, device_name, fingerprint, encryption_public_key,
		    signing_public_key, is_active, last_seen, registered_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		 ON CONFLICT (user_id, fingerprint) DO UPDATE
		 SET device_name = EXCLUDED.device_name,
		     encryption_public_key = EXCLUDED.encryption_public_key,
		     signing_public_key = EXCLUDED.signing_public_key,
		     is_active = TRUE,
		     last_seen = EXCLUDED.last_seen`,
		string(rec.UserID), rec.DeviceName, string(rec.Fingerprint),
		rec.EncryptionPublicKey, rec.SigningPublicKey, rec.LastSeen)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.DeviceRecord{}, domain.ErrDeviceConflict
		}
		return domain.DeviceRecord{}, fmt.Errorf("upsert device: %w", err)
	}
	stored, ok, err := s.GetDevice(ctx, rec.UserID, rec.Fingerprint)
	if err != nil {
		return domain.DeviceRecord{}, err
	}
	if !ok {
		return domain.DeviceRecord{}, domain.ErrDeviceNotFound
	}
	return stored, nil
}

// GetDevice implements domain.DeviceStore.
func (s *PostgresStore) GetDevice(ctx context.Context, user domain.UserID, fp domain.Fingerprint) (domain.DeviceRecord, bool, error) {
	var row deviceRow
	err := s.dbMap.SelectOne(&row,
		`SELECT * FROM device_record WHERE user_id = $1 AND fingerprint = $2`,
		string(user), string(fp))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DeviceRecord{}, false, nil
	}
	if err != nil {
		return domain.DeviceRecord{}, false, err
	}
	return row.toDomain(), true, nil
}

// ListActiveDevices implements domain.DeviceStore.
func (s *PostgresStore) ListActiveDevices(ctx context.Context, user domain.UserID) ([]domain.DeviceRecord, error) {
	var rows []deviceRow
	_, err := s.dbMap.Select(&rows,
		`SELECT * FROM device_record
		 WHERE user_id = $1 AND is_active
		 ORDER BY last_seen DESC, fingerprint`,
		string(user))
	if err != nil {
		return nil, err
	}
	out := make([]domain.DeviceRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// DeactivateDevice implements domain.DeviceStore.
func (s *PostgresStore) DeactivateDevice(ctx context.Context, user domain.UserID, fp domain.Fingerprint) error {
	res, err := s.dbMap.Db.ExecContext(ctx,
		`UPDATE device_record SET is_active = FALSE
		 WHERE user_id = $1 AND fingerprint = $2`,
		string(user), string(fp))
	if err != nil {
		return fmt.Errorf("deactivate device: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}

// TouchDevice implements domain.DeviceStore.
func (s *PostgresStore) TouchDevice(ctx context.Context, user domain.UserID, fp domain.Fingerprint, nowMillis int64) error {
	res, err := s.dbMap.Db.ExecContext(ctx,
		`UPDATE device_record SET last_seen = $1
		 WHERE user_id = $2 AND fingerprint = $3 AND is_active`,
		nowMillis, string(user), string(fp))
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}

func (r sessionRow) toDomain() domain.KeyExchangeSession {
	return domain.KeyExchangeSession{
		ID:                    domain.SessionID(r.ID),
		InitiatorID:           domain.UserID(r.InitiatorID),
		RecipientID:           domain.UserID(r.RecipientID),
		ChatID:                domain.ChatID(r.ChatID),
		InitiatorEphemeralKey: r.InitiatorEphemeralKey,
		RecipientEphemeralKey: r.RecipientEphemeralKey,
		Status:                domain.SessionStatus(r.Status),
		CreatedAt:             r.CreatedAt,
		CompletedAt:           r.CompletedAt,
		ExpiresAt:             r.ExpiresAt,
	}
}

func (r deviceRow) toDomain() domain.DeviceRecord {
	return domain.DeviceRecord{
		UserID:              domain.UserID(r.UserID),
		DeviceName:          r.DeviceName,
		Fingerprint:         domain.Fingerprint(r.Fingerprint),
		EncryptionPublicKey: r.EncryptionPublicKey,
		SigningPublicKey:    r.SigningPublicKey,
		IsActive:            r.IsActive,
		LastSeen:            r.LastSeen,
		RegisteredAt:        r.RegisteredAt,
	}
}

// Compile-time assertions that PostgresStore implements both store contracts.
var (
	_ domain.SessionStore = (*PostgresStore)(nil)
	_ domain.DeviceStore  = (*PostgresStore)(nil)
)
