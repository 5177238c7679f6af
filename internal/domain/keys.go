package domain

// X25519Public is a Curve25519 key-agreement public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 key-agreement private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// EncryptionKeyPair is an X25519 pair used exclusively for key agreement.
type EncryptionKeyPair struct {
	Public  X25519Public
	Private X25519Private
}

// SigningKeyPair is an Ed25519 pair used exclusively for signatures.
type SigningKeyPair struct {
	Public  Ed25519Public
	Private Ed25519Private
}

// UserKeyBundle holds one user's long-term identity key material.
// The encryption and signing pairs are distinct; a pair never serves
// both roles.
type UserKeyBundle struct {
	Encryption EncryptionKeyPair
	Signing    SigningKeyPair
}

// PublicKeySet is the public half of a UserKeyBundle, as resolved
// through a PublicKeyDirectory.
type PublicKeySet struct {
	EncryptionKey X25519Public
	SigningKey    Ed25519Public
}

// SerializedKeyBundle carries a UserKeyBundle in portable container
// encodings: PKIX (SubjectPublicKeyInfo) DER for the public halves and
// PKCS#8 DER for the private halves. Over JSON each field is base64 text.
type SerializedKeyBundle struct {
	EncryptionPublic  []byte `json:"encryption_public"`
	EncryptionPrivate []byte `json:"encryption_private"`
	SigningPublic     []byte `json:"signing_public"`
	SigningPrivate    []byte `json:"signing_private"`
}

// SerializedPrivateKeys are the PKCS#8 private halves of a bundle. This is
// the plaintext interior of an EncryptedPrivateKeyBundle.
type SerializedPrivateKeys struct {
	EncryptionPrivate []byte `json:"encryption_private"`
	SigningPrivate    []byte `json:"signing_private"`
}

// EncryptedPrivateKeyBundle is the password-wrapped form of the private
// halves of a UserKeyBundle. It is self-describing: salt, nonce, and KDF
// iteration count travel with the ciphertext.
type EncryptedPrivateKeyBundle struct {
	Ciphertext []byte `json:"ciphertext"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Iterations int    `json:"iterations"`
}
