package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

// MemoryTokenStore keeps the token in process memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

const nonceSize = 24

// ErrDecrypt is returned when the token file cannot be opened with the key.
var ErrDecrypt = errors.New("token file could not be decrypted")

// FileTokenStore keeps the token in a file sealed with NaCl secretbox.
// The key is the SHA-256 of the configured secret.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
	key  [32]byte
}

// NewFileTokenStore creates a store writing to path.
func NewFileTokenStore(path, secret string) *FileTokenStore {
	return &FileTokenStore{path: path, key: sha256.Sum256([]byte(secret))}
}

// Load returns "" when the file does not exist.
func (f *FileTokenStore) Load(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	if len(data) < nonceSize {
		return "", ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &f.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

func (f *FileTokenStore) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &f.key)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileTokenStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
