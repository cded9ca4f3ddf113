package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credential file names under the data directory. The password hash is
// long-term; the session key file is the session-storage analog and is
// removed whenever the vault locks.
const (
	PassFileName    = "vault.pass"
	SessionFileName = "session.key"

	// FileMode restricts credential files to the owner.
	FileMode = 0600
)

// CredentialStore persists the long-term password hash and the
// session-scoped exported key. Implementations return "" (not an error) when
// a value is absent.
type CredentialStore interface {
	LoadPasswordHash() (string, error)
	StorePasswordHash(hash string) error
	DeletePasswordHash() error

	LoadSessionKey() (string, error)
	StoreSessionKey(exported string) error
	ClearSessionKey() error
}

// Credential store kinds accepted by NewCredentialStore.
const (
	StoreKindFilesystem = "filesystem"
	StoreKindMemory     = "memory"
)

// NewCredentialStore builds a credential store of the given kind. dir is
// only used by the filesystem kind.
func NewCredentialStore(kind, dir string) (CredentialStore, error) {
	switch kind {
	case StoreKindFilesystem:
		return NewFilesystemCredentials(dir), nil
	case StoreKindMemory:
		return NewMemoryCredentials(), nil
	default:
		return nil, fmt.Errorf("vault: unknown credential store kind %q", kind)
	}
}

// FilesystemCredentials keeps credentials in owner-only files under the data
// directory.
type FilesystemCredentials struct {
	dir string
}

// NewFilesystemCredentials returns a file-backed credential store rooted at
// dir.
func NewFilesystemCredentials(dir string) *FilesystemCredentials {
	return &FilesystemCredentials{dir: dir}
}

func (f *FilesystemCredentials) LoadPasswordHash() (string, error) {
	return f.read(PassFileName)
}

func (f *FilesystemCredentials) StorePasswordHash(hash string) error {
	return f.write(PassFileName, hash)
}

func (f *FilesystemCredentials) DeletePasswordHash() error {
	return f.remove(PassFileName)
}

func (f *FilesystemCredentials) LoadSessionKey() (string, error) {
	return f.read(SessionFileName)
}

func (f *FilesystemCredentials) StoreSessionKey(exported string) error {
	return f.write(SessionFileName, exported)
}

func (f *FilesystemCredentials) ClearSessionKey() error {
	return f.remove(SessionFileName)
}

func (f *FilesystemCredentials) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("vault: failed to read %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FilesystemCredentials) write(name, value string) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("vault: failed to create data directory: %w", err)
	}
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(value), FileMode); err != nil {
		return fmt.Errorf("vault: failed to write %s: %w", name, err)
	}
	return nil
}

func (f *FilesystemCredentials) remove(name string) error {
	err := os.Remove(filepath.Join(f.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vault: failed to remove %s: %w", name, err)
	}
	return nil
}

// MemoryCredentials is an in-memory credential store for tests and for
// callers that want a vault that always starts fresh.
type MemoryCredentials struct {
	hash       string
	sessionKey string
}

// NewMemoryCredentials returns an empty in-memory credential store.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (m *MemoryCredentials) LoadPasswordHash() (string, error) { return m.hash, nil }

func (m *MemoryCredentials) StorePasswordHash(hash string) error {
	m.hash = hash
	return nil
}

func (m *MemoryCredentials) DeletePasswordHash() error {
	m.hash = ""
	return nil
}

func (m *MemoryCredentials) LoadSessionKey() (string, error) { return m.sessionKey, nil }

func (m *MemoryCredentials) StoreSessionKey(exported string) error {
	m.sessionKey = exported
	return nil
}

func (m *MemoryCredentials) ClearSessionKey() error {
	m.sessionKey = ""
	return nil
}
