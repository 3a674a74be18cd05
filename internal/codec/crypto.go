package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/thoreinstein/webstash/internal/errors"
)

// Encryption parameters. Changing any of them breaks existing artifacts.
const (
	SaltSize   = 16
	NonceSize  = 12
	TagSize    = 16
	KeySize    = 32
	Iterations = 100_000
)

// MinPasswordLength is the shortest password accepted for new artifacts.
const MinPasswordLength = 4

// ErrPasswordTooShort is returned by ValidatePassword.
var ErrPasswordTooShort = errors.Newf("password must be at least %d characters", MinPasswordLength)

// ValidatePassword applies the password policy for new artifacts.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "creating GCM")
	}
	return aead, nil
}

// Encrypt seals plaintext under a key derived from password.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}

	out := make([]byte, SaltSize+NonceSize, SaltSize+NonceSize+len(plaintext)+TagSize)
	if _, err := rand.Read(out); err != nil {
		return nil, errors.Wrap(err, "generating salt and nonce")
	}
	salt, nonce := out[:SaltSize], out[SaltSize:]

	aead, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a payload produced by Encrypt. Any tampering, a wrong
// password or a truncated payload yields ErrDecryption.
func Decrypt(data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(data) < SaltSize+NonceSize+TagSize {
		return nil, errors.Wrap(ErrDecryption, "payload too short")
	}

	salt := data[:SaltSize]
	nonce := data[SaltSize : SaltSize+NonceSize]

	aead, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, data[SaltSize+NonceSize:], nil)
	if err != nil {
		return nil, errors.Wrap(ErrDecryption, "authentication failed")
	}
	return plain, nil
}
