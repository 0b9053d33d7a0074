package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "museucom-cli"

// KeyringStore keeps credentials in the OS keychain/credential manager.
type KeyringStore struct {
	namespace string
}

var _ Store = (*KeyringStore)(nil)

func NewKeyringStore(namespace string) *KeyringStore {
	return &KeyringStore{namespace: namespace}
}

// keyringUser returns a unique keyring entry name per key and server
func (s *KeyringStore) keyringUser(key string) string {
	return fmt.Sprintf("%s@%s", key, s.namespace)
}

func (s *KeyringStore) Get(key string) (string, error) {
	value, err := keyring.Get(keyringService, s.keyringUser(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// SetAll writes entries one by one; the keyring has no transactions, so a
// failure part way through removes everything that was written.
func (s *KeyringStore) SetAll(values map[string]string) error {
	written := make([]string, 0, len(values))
	for key, value := range values {
		if err := keyring.Set(keyringService, s.keyringUser(key), value); err != nil {
			_ = s.DeleteAll(written...)
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		written = append(written, key)
	}
	return nil
}

func (s *KeyringStore) DeleteAll(keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := keyring.Delete(keyringService, s.keyringUser(key)); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				continue // Already deleted
			}
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
