package vault

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/waizdev/playgate/pkg/crypto"
)

func newUnlockedController(t *testing.T, password string) (*Controller, *MemoryCredentials) {
	t.Helper()
	creds := NewMemoryCredentials()
	c, err := New(creds, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.SetPassword(password); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	return c, creds
}

// TestLockUnlockScenario runs the canonical flow: set password, lock, fail
// an unlock with the wrong password, succeed with the right one.
func TestLockUnlockScenario(t *testing.T) {
	c, _ := newUnlockedController(t, "abc123")

	if c.State() != StateUnlocked {
		t.Fatalf("state after SetPassword = %v, want unlocked", c.State())
	}

	if err := c.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if c.State() != StateLocked {
		t.Fatalf("state after Lock = %v, want locked", c.State())
	}

	ok, err := c.Unlock("wrong")
	if err != nil {
		t.Fatalf("Unlock(wrong) error = %v", err)
	}
	if ok {
		t.Error("Unlock(wrong) = true, want false")
	}
	if c.State() != StateLocked {
		t.Errorf("state after wrong password = %v, want locked", c.State())
	}

	ok, err = c.Unlock("abc123")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if !ok {
		t.Error("Unlock(correct) = false, want true")
	}
	if c.State() != StateUnlocked {
		t.Errorf("state after unlock = %v, want unlocked", c.State())
	}
}

// TestSetPasswordTransitions verifies setup goes straight to Unlocked and
// cannot run twice.
func TestSetPasswordTransitions(t *testing.T) {
	c, creds := newUnlockedController(t, "abc123")

	if c.SessionKey() == nil {
		t.Error("SetPassword() cached no session key")
	}
	cached, err := creds.LoadSessionKey()
	if err != nil {
		t.Fatalf("LoadSessionKey() error = %v", err)
	}
	if cached == "" {
		t.Error("SetPassword() persisted no session key")
	}

	if err := c.SetPassword("other"); !errors.Is(err, ErrPasswordAlreadySet) {
		t.Errorf("second SetPassword() error = %v, want ErrPasswordAlreadySet", err)
	}
}

// TestUnlockWithoutPassword verifies the machine refuses to unlock when
// nothing was ever set up.
func TestUnlockWithoutPassword(t *testing.T) {
	c, err := New(NewMemoryCredentials(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.State() != StateNoPassword {
		t.Fatalf("fresh state = %v, want no password", c.State())
	}
	if _, err := c.Unlock("anything"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("Unlock() error = %v, want ErrNoPassword", err)
	}
	// Locking with no password is a no-op, not an error.
	if err := c.Lock(); err != nil {
		t.Errorf("Lock() with no password error = %v", err)
	}
}

// TestRestoreFromPersistedState verifies startup inspection: session key
// resumes unlocked, bare hash starts locked.
func TestRestoreFromPersistedState(t *testing.T) {
	_, creds := newUnlockedController(t, "abc123")

	// Same credentials, new process: the cached key resumes the session.
	resumed, err := New(creds, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if resumed.State() != StateUnlocked {
		t.Errorf("resumed state = %v, want unlocked", resumed.State())
	}

	// Session ends (the cache is gone), the hash remains: locked.
	if err := creds.ClearSessionKey(); err != nil {
		t.Fatalf("ClearSessionKey() error = %v", err)
	}
	relocked, err := New(creds, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if relocked.State() != StateLocked {
		t.Errorf("state without session cache = %v, want locked", relocked.State())
	}
}

// TestCorruptSessionCacheFallsBackToLocked verifies a bad cache never
// crashes startup.
func TestCorruptSessionCacheFallsBackToLocked(t *testing.T) {
	_, creds := newUnlockedController(t, "abc123")
	if err := creds.StoreSessionKey("not a hex key"); err != nil {
		t.Fatalf("StoreSessionKey() error = %v", err)
	}

	c, err := New(creds, nil)
	if err != nil {
		t.Fatalf("New() with corrupt cache error = %v", err)
	}
	if c.State() != StateLocked {
		t.Errorf("state with corrupt cache = %v, want locked", c.State())
	}
	// The corrupt cache is discarded so the next startup is clean.
	cached, err := creds.LoadSessionKey()
	if err != nil {
		t.Fatalf("LoadSessionKey() error = %v", err)
	}
	if cached != "" {
		t.Error("corrupt session key cache not cleared")
	}
}

// TestResetFlow walks Locked -> ChallengeIssued -> NoPassword.
func TestResetFlow(t *testing.T) {
	c, creds := newUnlockedController(t, "forgotten")
	if err := c.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	code, err := c.StartReset()
	if err != nil {
		t.Fatalf("StartReset() error = %v", err)
	}
	if c.State() != StateChallengeIssued {
		t.Fatalf("state after StartReset = %v, want challenge issued", c.State())
	}

	// A wrong unlock key keeps the challenge open.
	ok, err := c.SubmitUnlockKey("000000000000")
	if err != nil {
		t.Fatalf("SubmitUnlockKey(wrong) error = %v", err)
	}
	if ok {
		t.Error("SubmitUnlockKey(wrong) = true, want false")
	}
	if c.State() != StateChallengeIssued {
		t.Errorf("state after wrong key = %v, want challenge issued", c.State())
	}

	// The operator computes the response out of band.
	ok, err = c.SubmitUnlockKey(crypto.ExpectedUnlockKey(code))
	if err != nil {
		t.Fatalf("SubmitUnlockKey() error = %v", err)
	}
	if !ok {
		t.Fatal("SubmitUnlockKey(valid) = false, want true")
	}
	if c.State() != StateNoPassword {
		t.Errorf("state after valid key = %v, want no password", c.State())
	}

	// The old hash is gone; a fresh password can be set.
	hash, err := creds.LoadPasswordHash()
	if err != nil {
		t.Fatalf("LoadPasswordHash() error = %v", err)
	}
	if hash != "" {
		t.Error("password hash survived reset")
	}
	if err := c.SetPassword("fresh-start"); err != nil {
		t.Errorf("SetPassword() after reset error = %v", err)
	}
}

// TestStartResetDropsSessionCache verifies a reset begun while unlocked
// ends the session: after cancelling, neither this controller nor a fresh
// process start is unlocked.
func TestStartResetDropsSessionCache(t *testing.T) {
	c, creds := newUnlockedController(t, "abc123")

	if _, err := c.StartReset(); err != nil {
		t.Fatalf("StartReset() error = %v", err)
	}
	if c.SessionKey() != nil {
		t.Error("session key still held after StartReset")
	}
	cached, err := creds.LoadSessionKey()
	if err != nil {
		t.Fatalf("LoadSessionKey() error = %v", err)
	}
	if cached != "" {
		t.Error("session key cache survived StartReset")
	}

	c.CancelReset()
	if c.State() != StateLocked {
		t.Errorf("state after cancel = %v, want locked", c.State())
	}

	restarted, err := New(creds, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if restarted.State() != StateLocked {
		t.Errorf("state after restart = %v, want locked", restarted.State())
	}
}

// TestSubmitUnlockKeyWithoutChallenge verifies the guard on the reset
// sub-flow.
func TestSubmitUnlockKeyWithoutChallenge(t *testing.T) {
	c, _ := newUnlockedController(t, "abc123")
	if _, err := c.SubmitUnlockKey("ABCDEF123456"); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("SubmitUnlockKey() error = %v, want ErrNoChallenge", err)
	}
}

// TestCancelReset verifies abandoning a challenge returns to Locked.
func TestCancelReset(t *testing.T) {
	c, _ := newUnlockedController(t, "abc123")
	if err := c.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := c.StartReset(); err != nil {
		t.Fatalf("StartReset() error = %v", err)
	}

	c.CancelReset()
	if c.State() != StateLocked {
		t.Errorf("state after CancelReset = %v, want locked", c.State())
	}

	// The abandoned code must no longer be accepted.
	if _, err := c.SubmitUnlockKey("ABCDEF123456"); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("SubmitUnlockKey() after cancel error = %v, want ErrNoChallenge", err)
	}
}

// TestEncryptDecryptThroughController verifies crypto is reachable only
// while unlocked.
func TestEncryptDecryptThroughController(t *testing.T) {
	c, _ := newUnlockedController(t, "abc123")

	ciphertext, err := c.Encrypt("private note")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plaintext != "private note" {
		t.Errorf("Decrypt() = %q, want original plaintext", plaintext)
	}

	if err := c.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := c.Encrypt("x"); err == nil {
		t.Error("Encrypt() while locked succeeded, want error")
	}
	if _, err := c.Decrypt(ciphertext); err == nil {
		t.Error("Decrypt() while locked succeeded, want error")
	}
}

// TestFilesystemCredentials exercises the file-backed store.
func TestFilesystemCredentials(t *testing.T) {
	dir := t.TempDir()
	creds := NewFilesystemCredentials(dir)

	// Absent values read back empty, not as errors.
	hash, err := creds.LoadPasswordHash()
	if err != nil {
		t.Fatalf("LoadPasswordHash() error = %v", err)
	}
	if hash != "" {
		t.Errorf("fresh LoadPasswordHash() = %q, want empty", hash)
	}

	if err := creds.StorePasswordHash("deadbeef:cafe"); err != nil {
		t.Fatalf("StorePasswordHash() error = %v", err)
	}
	hash, err = creds.LoadPasswordHash()
	if err != nil {
		t.Fatalf("LoadPasswordHash() error = %v", err)
	}
	if hash != "deadbeef:cafe" {
		t.Errorf("LoadPasswordHash() = %q, want stored value", hash)
	}

	info, err := os.Stat(filepath.Join(dir, PassFileName))
	if err != nil {
		t.Fatalf("stat pass file: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("pass file permissions = %04o, want owner-only", perm)
	}

	if err := creds.StoreSessionKey("00ff"); err != nil {
		t.Fatalf("StoreSessionKey() error = %v", err)
	}
	if err := creds.ClearSessionKey(); err != nil {
		t.Fatalf("ClearSessionKey() error = %v", err)
	}
	key, err := creds.LoadSessionKey()
	if err != nil {
		t.Fatalf("LoadSessionKey() error = %v", err)
	}
	if key != "" {
		t.Errorf("LoadSessionKey() after clear = %q, want empty", key)
	}

	// Clearing twice is fine.
	if err := creds.ClearSessionKey(); err != nil {
		t.Errorf("second ClearSessionKey() error = %v", err)
	}

	if err := creds.DeletePasswordHash(); err != nil {
		t.Fatalf("DeletePasswordHash() error = %v", err)
	}
	hash, err = creds.LoadPasswordHash()
	if err != nil {
		t.Fatalf("LoadPasswordHash() error = %v", err)
	}
	if hash != "" {
		t.Errorf("LoadPasswordHash() after delete = %q, want empty", hash)
	}
}

func TestEvaluatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     PasswordStrength
	}{
		{"abc123", PasswordWeak},
		{"8chars!!", PasswordFair},
		{"fourteen-chars", PasswordGood},
		{"twenty-characters-ok", PasswordStrong},
	}
	for _, tt := range tests {
		if got := EvaluatePassword(tt.password); got != tt.want {
			t.Errorf("EvaluatePassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

// TestCredentialStoreFactory verifies kind selection.
func TestCredentialStoreFactory(t *testing.T) {
	if _, err := NewCredentialStore(StoreKindMemory, ""); err != nil {
		t.Errorf("NewCredentialStore(memory) error = %v", err)
	}
	if _, err := NewCredentialStore(StoreKindFilesystem, t.TempDir()); err != nil {
		t.Errorf("NewCredentialStore(filesystem) error = %v", err)
	}
	if _, err := NewCredentialStore("bogus", ""); err == nil {
		t.Error("NewCredentialStore(bogus) succeeded, want error")
	}
}
