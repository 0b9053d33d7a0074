package credstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	t.Run("Get missing", func(t *testing.T) {
		_, err := s.Get("museucom-token")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SetAll Get", func(t *testing.T) {
		require.NoError(t, s.SetAll(map[string]string{
			"museucom-token":   "access-1",
			"museucom-refresh": "refresh-1",
		}))

		got, err := s.Get("museucom-token")
		require.NoError(t, err)
		require.Equal(t, "access-1", got)

		got, err = s.Get("museucom-refresh")
		require.NoError(t, err)
		require.Equal(t, "refresh-1", got)
	})

	t.Run("SetAll overwrites", func(t *testing.T) {
		require.NoError(t, s.SetAll(map[string]string{"museucom-token": "access-2"}))
		got, err := s.Get("museucom-token")
		require.NoError(t, err)
		require.Equal(t, "access-2", got)
	})

	t.Run("DeleteAll tolerates missing keys", func(t *testing.T) {
		require.NoError(t, s.DeleteAll("museucom-token", "museucom-refresh", "never-set"))
		_, err := s.Get("museucom-token")
		require.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get("museucom-refresh")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "creds", "credentials.db"), "https://api.museucom.ao")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestBoltStore_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")

	a, err := OpenBoltStore(path, "server-a")
	require.NoError(t, err)
	require.NoError(t, a.SetAll(map[string]string{"museucom-token": "a"}))
	require.NoError(t, a.Close())

	b, err := OpenBoltStore(path, "server-b")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Get("museucom-token")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	exerciseStore(t, NewKeyringStore("https://api.museucom.ao"))
}

func TestOpen(t *testing.T) {
	keyring.MockInit()

	s, err := Open("", "ns", "")
	require.NoError(t, err)
	require.IsType(t, &KeyringStore{}, s)

	s, err = Open("memory", "ns", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	bolt, err := Open("bolt", "ns", filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	require.IsType(t, &BoltStore{}, bolt)
	require.NoError(t, bolt.(*BoltStore).Close())

	_, err = Open("bolt", "ns", "")
	require.Error(t, err)

	_, err = Open("vault", "ns", "")
	require.ErrorContains(t, err, "unknown credential store")
}
