// Package crypto provides the cryptographic primitives for playgate's vault.
//
// This package implements PBKDF2-SHA256 password hashing, AES-256-GCM
// authenticated encryption, and the support-code / unlock-key challenge
// scheme used for out-of-band password reset.
//
// # Encoding
//
// Every binary value that crosses a storage boundary is hex-encoded.
// Multi-part values use a single colon as field separator:
//
//	password hash: hex(salt):hex(sha256(derived))
//	ciphertext:    hex(nonce):hex(ciphertext)
//
// Hex never contains a colon, so the format is unambiguous as long as the
// components themselves remain hex.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters. HashIterations protects the long-term stored
// credential; SessionIterations is deliberately lower because the derived key
// only lives for one session and must be re-derivable on every unlock.
const (
	HashIterations    = 100_000
	SessionIterations = 50_000
	ChallengeIters    = 1_000

	// SaltLength is the random salt size for password hashing (128 bits).
	SaltLength = 16

	// KeyLength is the AES-256 key size in bytes.
	KeyLength = 32

	// NonceLength is the GCM nonce size in bytes (96 bits).
	NonceLength = 12

	// UnlockKeyLength is the number of hex characters in an unlock key.
	UnlockKeyLength = 12
)

// sessionSalt is fixed so the same password always derives the same session
// key. The key is never stored long-term, so a per-user salt buys nothing.
var sessionSalt = []byte("playgate-session-salt")

// appSecret seeds the support-code challenge derivation. A trusted operator
// with this secret can compute the unlock key for any support code.
const appSecret = "SECRET_MASTER_KEY_WAIZDEV_786"

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrMalformedCiphertext indicates the encoded ciphertext is not
	// hex(nonce):hex(ciphertext).
	ErrMalformedCiphertext = errors.New("crypto: malformed ciphertext encoding")

	// ErrDecryptionFailed indicates authentication tag verification failed.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag mismatch")

	// ErrMalformedKey indicates an exported key string could not be decoded.
	ErrMalformedKey = errors.New("crypto: malformed exported key")
)

// HashPassword derives a storable credential from a password.
//
// A random 16-byte salt is generated, the password is stretched with
// PBKDF2-SHA256 (100k iterations), and the derived bytes are digested with
// SHA-256. The result is hex(salt):hex(digest), verifiable but not
// reversible.
func HashPassword(password string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	digest := hashWithSalt(password, salt)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(digest), nil
}

// VerifyPassword checks a password against a stored hash string.
//
// A wrong password is expected user input, so this never returns an error:
// malformed stored hashes verify as false.
func VerifyPassword(password, stored string) bool {
	saltHex, digestHex, ok := strings.Cut(stored, ":")
	if !ok || saltHex == "" || digestHex == "" {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}
	computed := hashWithSalt(password, salt)
	return subtle.ConstantTimeCompare(computed, digest) == 1
}

func hashWithSalt(password string, salt []byte) []byte {
	derived := pbkdf2.Key([]byte(password), salt, HashIterations, KeyLength, sha256.New)
	digest := sha256.Sum256(derived)
	return digest[:]
}

// DeriveSessionKey derives the vault's symmetric key from the password.
//
// The fixed salt and reduced iteration count are deliberate: the key is
// session-scoped, so it trades stretching strength for unlock latency while
// still deriving identically from the same password every time.
func DeriveSessionKey(password string) []byte {
	return pbkdf2.Key([]byte(password), sessionSalt, SessionIterations, KeyLength, sha256.New)
}

// ExportKey serializes a session key to a portable string for caching.
func ExportKey(key []byte) string {
	return hex.EncodeToString(key)
}

// ImportKey restores a session key from its exported form.
func ImportKey(exported string) ([]byte, error) {
	key, err := hex.DecodeString(exported)
	if err != nil {
		return nil, ErrMalformedKey
	}
	if len(key) != KeyLength {
		return nil, ErrMalformedKey
	}
	return key, nil
}

// Encrypt encrypts plaintext with AES-256-GCM under a fresh random nonce and
// returns hex(nonce):hex(ciphertext). The GCM tag is appended to the
// ciphertext by Seal.
func Encrypt(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It returns ErrMalformedCiphertext when the
// encoding is not hex(nonce):hex(ciphertext) and ErrDecryptionFailed when
// authentication fails (wrong key or tampered data).
func Decrypt(encoded string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonceHex, dataHex, ok := strings.Cut(encoded, ":")
	if !ok || nonceHex == "" || dataHex == "" {
		return "", ErrMalformedCiphertext
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != NonceLength {
		return "", ErrMalformedCiphertext
	}
	ciphertext, err := hex.DecodeString(dataHex)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	if len(ciphertext) < gcm.Overhead() {
		return "", ErrMalformedCiphertext
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}
	return gcm, nil
}

// GenerateSupportCode produces the random challenge the user reads to a
// trusted operator during password reset.
func GenerateSupportCode() (string, error) {
	code := make([]byte, 16)
	if _, err := rand.Read(code); err != nil {
		return "", fmt.Errorf("crypto: failed to generate support code: %w", err)
	}
	return hex.EncodeToString(code), nil
}

// ExpectedUnlockKey computes the one valid unlock key for a support code.
// The operator runs the same derivation out of band and reads the result
// back to the user; the vault password itself is never transmitted.
func ExpectedUnlockKey(supportCode string) string {
	hmacKey := pbkdf2.Key([]byte(appSecret), []byte(supportCode), ChallengeIters, KeyLength, sha256.New)
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(supportCode + "_unlock"))
	sig := hex.EncodeToString(mac.Sum(nil))
	return strings.ToUpper(sig[:UnlockKeyLength])
}

// VerifyUnlockKey checks a candidate unlock key against the expected response
// for the given support code. Comparison is case-insensitive.
func VerifyUnlockKey(supportCode, candidate string) bool {
	expected := ExpectedUnlockKey(supportCode)
	return subtle.ConstantTimeCompare(
		[]byte(strings.ToUpper(candidate)), []byte(expected)) == 1
}

// SecureWipe overwrites a byte slice with zeros. Used to destroy session key
// material when the vault locks.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
