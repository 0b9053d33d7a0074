// Package credstore persists CLI credentials between invocations.
//
// A Store is a flat key/value namespace scoped to one API server. Callers
// write and clear their keys as a group; implementations guarantee that a
// failed group write leaves none of the keys behind.
package credstore

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("credential not found")

// Store is implemented by every credential backend.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) (string, error)
	// SetAll writes every value. On error no key in values is left set.
	SetAll(values map[string]string) error
	// DeleteAll removes the keys. Missing keys are not an error.
	DeleteAll(keys ...string) error
}

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

// Open returns the store for backend, namespaced to the given API server.
// boltPath is only used by the bolt backend.
func Open(backend, namespace, boltPath string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendKeyring:
		return NewKeyringStore(namespace), nil
	case BackendBolt:
		return OpenBoltStore(boltPath, namespace)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (expected keyring, bolt or memory)", backend)
	}
}
