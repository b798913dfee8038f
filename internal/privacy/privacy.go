// Package privacy holds the confidentiality primitives for participant PII:
// authenticated encryption of stored fields, a deterministic lookup digest
// for equality search over encrypted columns, and the certificate signature
// used by the public verification endpoint.
//
// The service performs no I/O. All keys are supplied by the caller; the
// package never generates key material.
package privacy

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	id "pintcert/pkg/domain"
)

// ErrDecrypt is returned when a ciphertext cannot be authenticated, either
// because the stored bytes are corrupt or because the key no longer matches
// the one that produced them. Decrypt never returns garbage plaintext.
var ErrDecrypt = errors.New("decrypt failed")

const encryptionKeySize = 32 // AES-256

// Service implements encryption, lookup hashing, and certificate signing.
type Service struct {
	aead       cipher.AEAD
	lookupKey  []byte
	signingKey []byte
}

// New builds a Service from three independent keys: a 32-byte AES-256 key
// for field encryption, a lookup key for the deterministic search digest,
// and a signing key for certificate signatures.
func New(encryptionKey, lookupKey, signingKey []byte) (*Service, error) {
	if len(encryptionKey) != encryptionKeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", encryptionKeySize, len(encryptionKey))
	}
	if len(lookupKey) == 0 {
		return nil, fmt.Errorf("lookup key is required")
	}
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Service{aead: aead, lookupKey: lookupKey, signingKey: signingKey}, nil
}

// Encrypt seals one plaintext value with AES-GCM and returns the payload as
// nonce || ciphertext, ready for storage in a binary column.
func (s *Service) Encrypt(plaintext string) ([]byte, error) {
	// AES-GCM requires a unique nonce per encryption under the same key.
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens a payload produced by Encrypt. Corrupt bytes or a rotated
// key yield ErrDecrypt.
func (s *Service) Decrypt(payload []byte) (string, error) {
	nonceSize := s.aead.NonceSize()
	if len(payload) < nonceSize {
		return "", fmt.Errorf("%w: payload too short", ErrDecrypt)
	}
	nonce, ciphertext := payload[:nonceSize], payload[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

// LookupHash computes the deterministic search digest for a normalized
// value. Equal inputs produce equal digests across process restarts, which
// is what makes equality search over encrypted columns possible.
func (s *Service) LookupHash(normalized string) string {
	mac := hmac.New(sha256.New, s.lookupKey)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign computes the certificate signature over the identity tuple. The
// canonical message length-prefixes every field, so no two distinct tuples
// can collapse into the same byte sequence regardless of field content.
// The result is 64 lowercase hex characters.
func (s *Service) Sign(participantID id.ParticipantID, eventID id.EventID, normalizedEmail, normalizedName string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(canonicalMessage(participantID.String(), eventID.String(), normalizedEmail, normalizedName))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature for the tuple and compares it against the
// presented one in constant time.
func (s *Service) Verify(signature string, participantID id.ParticipantID, eventID id.EventID, normalizedEmail, normalizedName string) bool {
	expected := s.Sign(participantID, eventID, normalizedEmail, normalizedName)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// canonicalMessage encodes fields as len(field) || field with a fixed-width
// big-endian length, removing any separator ambiguity between fields.
func canonicalMessage(fields ...string) []byte {
	var buf bytes.Buffer
	for _, f := range fields {
		var size [4]byte
		binary.BigEndian.PutUint32(size[:], uint32(len(f)))
		buf.Write(size[:])
		buf.WriteString(f)
	}
	return buf.Bytes()
}

// NormalizeEmail lowercases and trims an email address. Lookup hashes and
// signatures are always computed over the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims surrounding whitespace. Case is preserved because the
// name is printed on the certificate as entered.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
