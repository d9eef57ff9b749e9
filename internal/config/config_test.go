package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshnode.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
http_addr = "127.0.0.1:8080"
http_logging = true
internal_api_secret = "hunter2"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	require.True(t, cfg.HTTPLogging)
	require.Equal(t, "hunter2", cfg.InternalSecret)
	// Unset keys keep their defaults.
	require.True(t, cfg.APICompat)
	require.Equal(t, Defaults().MaxBodySize, cfg.MaxBodySize)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeFile(t, `http_adr = ":1984"`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown key")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestStoreSecretRotation(t *testing.T) {
	s := NewStore(Defaults())
	require.Empty(t, s.InternalAPISecret())
	s.SetInternalAPISecret("rotated")
	require.Equal(t, "rotated", s.InternalAPISecret())
}
