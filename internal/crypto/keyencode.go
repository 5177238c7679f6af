package crypto

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/x509"
	"fmt"

	"chatcrypt/internal/domain"
)

// Key container encodings. Public keys travel as PKIX (SubjectPublicKeyInfo)
// DER, private keys as PKCS#8 DER. Callers base64 the DER for text transport.

// MarshalX25519Public encodes pub as PKIX DER.
func MarshalX25519Public(pub domain.X25519Public) ([]byte, error) {
	key, err := ecdh.X25519().NewPublicKey(pub.Slice())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	return x509.MarshalPKIXPublicKey(key)
}

// ParseX25519Public decodes a PKIX DER X25519 public key.
func ParseX25519Public(der []byte) (domain.X25519Public, error) {
	var out domain.X25519Public
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	key, ok := parsed.(*ecdh.PublicKey)
	if !ok || key.Curve() != ecdh.X25519() {
		return out, fmt.Errorf("%w: not an X25519 public key", domain.ErrKeyFormat)
	}
	copy(out[:], key.Bytes())
	return out, nil
}

// MarshalX25519Private encodes priv as PKCS#8 DER.
func MarshalX25519Private(priv domain.X25519Private) ([]byte, error) {
	key, err := ecdh.X25519().NewPrivateKey(priv.Slice())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	return x509.MarshalPKCS8PrivateKey(key)
}

// ParseX25519Private decodes a PKCS#8 DER X25519 private key.
func ParseX25519Private(der []byte) (domain.X25519Private, error) {
	var out domain.X25519Private
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	key, ok := parsed.(*ecdh.PrivateKey)
	if !ok || key.Curve() != ecdh.X25519() {
		return out, fmt.Errorf("%w: not an X25519 private key", domain.ErrKeyFormat)
	}
	copy(out[:], key.Bytes())
	return out, nil
}

// MarshalEd25519Public encodes pub as PKIX DER.
func MarshalEd25519Public(pub domain.Ed25519Public) ([]byte, error) {
	return x509.MarshalPKIXPublicKey(ed25519.PublicKey(pub.Slice()))
}

// ParseEd25519Public decodes a PKIX DER Ed25519 public key.
func ParseEd25519Public(der []byte) (domain.Ed25519Public, error) {
	var out domain.Ed25519Public
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	key, ok := parsed.(ed25519.PublicKey)
	if !ok || len(key) != ed25519.PublicKeySize {
		return out, fmt.Errorf("%w: not an Ed25519 public key", domain.ErrKeyFormat)
	}
	copy(out[:], key)
	return out, nil
}

// MarshalEd25519Private encodes priv as PKCS#8 DER.
func MarshalEd25519Private(priv domain.Ed25519Private) ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(ed25519.PrivateKey(priv.Slice()))
}

// ParseEd25519Private decodes a PKCS#8 DER Ed25519 private key.
func ParseEd25519Private(der []byte) (domain.Ed25519Private, error) {
	var out domain.Ed25519Private
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrKeyFormat, err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok || len(key) != ed25519.PrivateKeySize {
		return out, fmt.Errorf("%w: not an Ed25519 private key", domain.ErrKeyFormat)
	}
	copy(out[:], key)
	return out, nil
}
