package message

import (
	"context"
	"fmt"

	"chatcrypt/internal/domain"
	"chatcrypt/internal/protocol/envelope"
)

// Service seals and opens messages against keys resolved through a
// PublicKeyDirectory. The cryptography itself is stateless; the service only
// adds key resolution.
type Service struct {
	directory domain.PublicKeyDirectory
}

// New returns a Service resolving keys through directory.
func New(directory domain.PublicKeyDirectory) *Service {
	return &Service{directory: directory}
}

// EncryptFor resolves recipient's encryption key and seals plaintext,
// signing with the sender's long-term signing key.
func (s *Service) EncryptFor(
	ctx context.Context,
	recipient domain.UserID,
	plaintext []byte,
	sender domain.UserKeyBundle,
) (domain.EncryptedMessage, error) {
	keys, err := s.directory.Lookup(ctx, recipient)
	if err != nil {
		return domain.EncryptedMessage{}, fmt.Errorf("lookup %q: %w", recipient, err)
	}
	return envelope.Seal(plaintext, keys.EncryptionKey, sender.Signing.Private)
}

// DecryptFrom resolves sender's signing key and opens msg with the
// recipient's long-term encryption private key.
func (s *Service) DecryptFrom(
	ctx context.Context,
	sender domain.UserID,
	msg domain.EncryptedMessage,
	recipient domain.UserKeyBundle,
) ([]byte, error) {
	keys, err := s.directory.Lookup(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", sender, err)
	}
	return envelope.Open(msg, recipient.Encryption.Private, keys.SigningKey)
}
