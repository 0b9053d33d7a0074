package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	selected, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Empty(t, selected)

	require.NoError(t, SetSelectedServer("http://localhost:8080"))
	selected, err = GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", selected)

	_, err = os.Stat(filepath.Join(home, ".config", "museucom", "config.json"))
	assert.NoError(t, err)
}

func TestSetSelectedServer_KeepsCredentialStore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Save(&UserConfig{CredentialStore: "bolt"}))
	require.NoError(t, SetSelectedServer("https://api.museucom.ao"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.CredentialStore)
	assert.Equal(t, "https://api.museucom.ao", cfg.SelectedServerURL)
}

func TestSetCredentialStore(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SetSelectedServer("https://api.museucom.ao"))
	require.NoError(t, SetCredentialStore("Bolt"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.CredentialStore)
	assert.Equal(t, "https://api.museucom.ao", cfg.SelectedServerURL)

	assert.Error(t, SetCredentialStore("vault"))

	require.NoError(t, SetCredentialStore(""))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.CredentialStore)

	entries, err := os.ReadDir(filepath.Join(home, ".config", "museucom"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}
