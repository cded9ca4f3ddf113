// Package vault implements the session controller gating access to vaulted
// videos: a state machine over the long-term password hash, the
// session-cached symmetric key, and the support-code password-reset flow.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/waizdev/playgate/pkg/crypto"
)

// State is the controller's position in the lock/unlock/reset machine.
type State int

const (
	// StateNoPassword means no vault password has ever been set (or it was
	// discarded by a completed reset). Vault contents are unreachable until
	// SetPassword runs.
	StateNoPassword State = iota
	// StateLocked means a password exists but this session has not
	// presented it.
	StateLocked
	// StateUnlocked means the session key is derived and cached.
	StateUnlocked
	// StateChallengeIssued means a reset support code is outstanding.
	StateChallengeIssued
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNoPassword:
		return "no password set"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	case StateChallengeIssued:
		return "reset challenge issued"
	default:
		return "unknown"
	}
}

// Errors
var (
	// ErrPasswordAlreadySet is returned by SetPassword when a password
	// exists; the reset flow is the only way to discard it.
	ErrPasswordAlreadySet = errors.New("vault: password already set")

	// ErrNoPassword is returned by operations that require a configured
	// password.
	ErrNoPassword = errors.New("vault: no password set")

	// ErrNoChallenge is returned by SubmitUnlockKey when no reset challenge
	// is outstanding.
	ErrNoChallenge = errors.New("vault: no reset challenge outstanding")
)

// Controller tracks vault lock state for one process. Wrong passwords and
// wrong unlock keys are reported as false, never as errors; errors are
// reserved for credential-store failures.
type Controller struct {
	mu          sync.Mutex
	creds       CredentialStore
	state       State
	sessionKey  []byte
	supportCode string
	log         *slog.Logger
}

// New restores controller state from persisted credentials: a cached session
// key resumes Unlocked, an existing password hash starts Locked, and nothing
// persisted starts NoPassword. A corrupt session-key cache is discarded and
// treated as locked rather than failing.
func New(creds CredentialStore, logger *slog.Logger) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{creds: creds, log: logger, state: StateNoPassword}

	hash, err := creds.LoadPasswordHash()
	if err != nil {
		return nil, err
	}
	if hash == "" {
		// A session key without a password hash is stale state from a
		// completed reset; drop it.
		if err := creds.ClearSessionKey(); err != nil {
			logger.Warn("failed to clear stale session key", "error", err)
		}
		return c, nil
	}
	c.state = StateLocked

	exported, err := creds.LoadSessionKey()
	if err != nil {
		return nil, err
	}
	if exported == "" {
		return c, nil
	}
	key, err := crypto.ImportKey(exported)
	if err != nil {
		logger.Warn("discarding corrupt session key cache", "error", err)
		if err := creds.ClearSessionKey(); err != nil {
			logger.Warn("failed to clear session key", "error", err)
		}
		return c, nil
	}
	c.sessionKey = key
	c.state = StateUnlocked
	return c, nil
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsUnlocked reports whether the session key is available.
func (c *Controller) IsUnlocked() bool {
	return c.State() == StateUnlocked
}

// SessionKey returns the cached symmetric key, or nil while locked. The
// returned slice must not be retained past the next Lock.
func (c *Controller) SessionKey() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionKey
}

// SetPassword configures the vault password for the first time and
// transitions straight to Unlocked; no separate login step follows setup.
func (c *Controller) SetPassword(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNoPassword {
		return ErrPasswordAlreadySet
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}
	if err := c.creds.StorePasswordHash(hash); err != nil {
		return err
	}
	return c.cacheSessionKey(password)
}

// Unlock verifies the password and, on success, derives and caches the
// session key so a restart within the same session resumes unlocked. A
// wrong password returns (false, nil) and leaves the vault locked.
func (c *Controller) Unlock(password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateNoPassword:
		return false, ErrNoPassword
	case StateUnlocked:
		return true, nil
	}

	hash, err := c.creds.LoadPasswordHash()
	if err != nil {
		return false, err
	}
	if !crypto.VerifyPassword(password, hash) {
		return false, nil
	}

	if err := c.cacheSessionKey(password); err != nil {
		return false, err
	}
	c.supportCode = ""
	return true, nil
}

// cacheSessionKey derives, persists, and holds the session key, moving the
// machine to Unlocked. Caller holds the mutex.
func (c *Controller) cacheSessionKey(password string) error {
	key := crypto.DeriveSessionKey(password)
	if err := c.creds.StoreSessionKey(crypto.ExportKey(key)); err != nil {
		crypto.SecureWipe(key)
		return err
	}
	c.sessionKey = key
	c.state = StateUnlocked
	return nil
}

// Lock discards the session key from memory and from the session cache. The
// long-term password hash is untouched. Locking a vault with no password is
// a no-op.
func (c *Controller) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateNoPassword {
		return nil
	}
	if err := c.creds.ClearSessionKey(); err != nil {
		return err
	}
	if c.sessionKey != nil {
		crypto.SecureWipe(c.sessionKey)
		c.sessionKey = nil
	}
	c.state = StateLocked
	return nil
}

// StartReset begins the out-of-band password reset: it generates a support
// code for the user to relay to a trusted operator. Calling it again
// replaces any outstanding code.
func (c *Controller) StartReset() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateNoPassword {
		return "", ErrNoPassword
	}

	// Starting a reset ends the current session: the cache is cleared so a
	// cancelled reset re-locks instead of resuming unlocked next start.
	if err := c.creds.ClearSessionKey(); err != nil {
		return "", err
	}
	if c.sessionKey != nil {
		crypto.SecureWipe(c.sessionKey)
		c.sessionKey = nil
	}

	code, err := crypto.GenerateSupportCode()
	if err != nil {
		return "", err
	}
	c.supportCode = code
	c.state = StateChallengeIssued
	return code, nil
}

// SubmitUnlockKey checks the operator-provided unlock key against the
// outstanding challenge. A valid key discards the password hash entirely and
// returns the vault to NoPassword, forcing fresh password setup; an invalid
// key returns (false, nil) and the challenge stays open.
func (c *Controller) SubmitUnlockKey(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateChallengeIssued {
		return false, ErrNoChallenge
	}
	if !crypto.VerifyUnlockKey(c.supportCode, key) {
		return false, nil
	}

	if err := c.creds.DeletePasswordHash(); err != nil {
		return false, err
	}
	if err := c.creds.ClearSessionKey(); err != nil {
		c.log.Warn("failed to clear session key during reset", "error", err)
	}
	if c.sessionKey != nil {
		crypto.SecureWipe(c.sessionKey)
		c.sessionKey = nil
	}
	c.supportCode = ""
	c.state = StateNoPassword
	return true, nil
}

// CancelReset abandons an outstanding challenge and returns to Locked.
func (c *Controller) CancelReset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateChallengeIssued {
		return
	}
	c.supportCode = ""
	c.state = StateLocked
}

// Encrypt encrypts plaintext under the session key.
func (c *Controller) Encrypt(plaintext string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnlocked {
		return "", fmt.Errorf("vault: cannot encrypt while %s", c.state)
	}
	return crypto.Encrypt(plaintext, c.sessionKey)
}

// Decrypt decrypts a vault ciphertext under the session key.
func (c *Controller) Decrypt(encoded string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnlocked {
		return "", fmt.Errorf("vault: cannot decrypt while %s", c.state)
	}
	return crypto.Decrypt(encoded, c.sessionKey)
}
