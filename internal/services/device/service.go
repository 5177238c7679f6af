package device

import (
	"context"
	"fmt"
	"time"

	"chatcrypt/internal/domain"
)

// Service maintains device key records over a DeviceStore.
type Service struct {
	store domain.DeviceStore
	now   func() time.Time
}

// New returns a Service over store.
func New(store domain.DeviceStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Register upserts the record keyed by (user, fingerprint), replacing any
// previous keys for that device and marking it active with a fresh LastSeen.
// Registering a fingerprint that is active under a different user fails with
// domain.ErrDeviceConflict.
func (s *Service) Register(
	ctx context.Context,
	user domain.UserID,
	deviceName string,
	fp domain.Fingerprint,
	encryptionKey, signingKey []byte,
) (domain.DeviceRecord, error) {
	if user == "" || deviceName == "" || fp == "" {
		return domain.DeviceRecord{}, fmt.Errorf("%w: user id, device name, and fingerprint are required", domain.ErrValidation)
	}
	if len(encryptionKey) != 32 || len(signingKey) != 32 {
		return domain.DeviceRecord{}, fmt.Errorf("%w: device public keys must be 32 bytes", domain.ErrValidation)
	}

	nowMillis := s.now().UnixMilli()
	return s.store.UpsertDevice(ctx, domain.DeviceRecord{
		UserID:              user,
		DeviceName:          deviceName,
		Fingerprint:         fp,
		EncryptionPublicKey: append([]byte(nil), encryptionKey...),
		SigningPublicKey:    append([]byte(nil), signingKey...),
		IsActive:            true,
		LastSeen:            nowMillis,
		RegisteredAt:        nowMillis,
	})
}

// ListActive returns the user's active devices, most recently seen first.
func (s *Service) ListActive(ctx context.Context, user domain.UserID) ([]domain.DeviceRecord, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.store.ListActiveDevices(ctx, user)
}

// Deactivate revokes a device. The record is kept, inactive, so the
// fingerprint stays attributable.
func (s *Service) Deactivate(ctx context.Context, user domain.UserID, fp domain.Fingerprint) error {
	if user == "" || fp == "" {
		return fmt.Errorf("%w: user id and fingerprint are required", domain.ErrValidation)
	}
	return s.store.DeactivateDevice(ctx, user, fp)
}

// Touch bumps LastSeen for an active device.
func (s *Service) Touch(ctx context.Context, user domain.UserID, fp domain.Fingerprint) error {
	if user == "" || fp == "" {
		return fmt.Errorf("%w: user id and fingerprint are required", domain.ErrValidation)
	}
	return s.store.TouchDevice(ctx, user, fp, s.now().UnixMilli())
}
