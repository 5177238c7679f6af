package directory

import (
	"context"
	"sync"

	"chatcrypt/internal/domain"
)

// MemDirectory is a map-backed PublicKeyDirectory for tests and embedders
// that resolve keys elsewhere.
type MemDirectory struct {
	mu   sync.RWMutex
	keys map[domain.UserID]domain.PublicKeySet
}

// NewMemDirectory returns an empty MemDirectory.
func NewMemDirectory() *MemDirectory {
	return &MemDirectory{keys: make(map[domain.UserID]domain.PublicKeySet)}
}

// Publish sets the current keys for user.
func (d *MemDirectory) Publish(user domain.UserID, keys domain.PublicKeySet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys[user] = keys
}

// Lookup implements domain.PublicKeyDirectory.
func (d *MemDirectory) Lookup(ctx context.Context, user domain.UserID) (domain.PublicKeySet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys, ok := d.keys[user]
	if !ok {
		return domain.PublicKeySet{}, domain.ErrRecipientNotFound
	}
	return keys, nil
}

// Compile-time assertion that MemDirectory implements domain.PublicKeyDirectory.
var _ domain.PublicKeyDirectory = (*MemDirectory)(nil)
