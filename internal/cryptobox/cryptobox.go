// Package cryptobox seals short secrets with AES-256-GCM under a process-wide master key.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrConfig means the master key is absent or not 64 hex characters.
	ErrConfig = errors.New("master key must be 64 hex characters")
	// ErrDecrypt means the envelope failed authentication or could not be parsed.
	ErrDecrypt = errors.New("decrypt failed")
)

var masterKeyPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// Envelope is the stored form of one encryption: the nonce and the sealed bytes (tag included).
type Envelope struct {
	IV         []byte
	Ciphertext []byte
}

type envelopeJSON struct {
	IV string `json:"iv"`
	CT string `json:"ct"`
}

// String encodes the envelope as {"iv": base64, "ct": base64}.
func (e Envelope) String() string {
	b, _ := json.Marshal(envelopeJSON{
		IV: base64.StdEncoding.EncodeToString(e.IV),
		CT: base64.StdEncoding.EncodeToString(e.Ciphertext),
	})
	return string(b)
}

func ParseEnvelope(s string) (Envelope, error) {
	var raw envelopeJSON
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed envelope", ErrDecrypt)
	}
	iv, err := base64.StdEncoding.DecodeString(raw.IV)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed iv", ErrDecrypt)
	}
	ct, err := base64.StdEncoding.DecodeString(raw.CT)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed ciphertext", ErrDecrypt)
	}
	return Envelope{IV: iv, Ciphertext: ct}, nil
}

type Box struct {
	key  []byte
	aead cipher.AEAD
	rand io.Reader
}

func New(masterKeyHex string) (*Box, error) {
	if !masterKeyPattern.MatchString(masterKeyHex) {
		return nil, ErrConfig
	}
	key, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, ErrConfig
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{key: key, aead: aead, rand: rand.Reader}, nil
}

// Encrypt draws a fresh 12-byte nonce for every call.
func (b *Box) Encrypt(plaintext []byte) (Envelope, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(b.rand, nonce); err != nil {
		return Envelope{}, fmt.Errorf("generate nonce: %w", err)
	}
	return Envelope{IV: nonce, Ciphertext: b.aead.Seal(nil, nonce, plaintext, nil)}, nil
}

func (b *Box) Decrypt(env Envelope) ([]byte, error) {
	if len(env.IV) != b.aead.NonceSize() || len(env.Ciphertext) < b.aead.Overhead() {
		return nil, ErrDecrypt
	}
	plaintext, err := b.aead.Open(nil, env.IV, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Seal encrypts plaintext and returns the encoded envelope.
func (b *Box) Seal(plaintext string) (string, error) {
	env, err := b.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return env.String(), nil
}

func (b *Box) Open(sealed string) (string, error) {
	env, err := ParseEnvelope(sealed)
	if err != nil {
		return "", err
	}
	plaintext, err := b.Decrypt(env)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DeriveKey returns n bytes derived from the master key for the given purpose, so other
// subsystems never share the encryption key itself.
func (b *Box) DeriveKey(purpose string, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, b.key, nil, []byte(purpose)), out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateMasterKey returns a random key in the form New accepts.
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
