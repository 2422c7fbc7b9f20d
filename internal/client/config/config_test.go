package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, "passvault_key.pem", cfg.KeyFile)
	assert.Empty(t, cfg.DeviceID)
}

func TestLoadConfig_FlagOverlay(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cli", "-a", "https://vault.example.com", "-i", "laptop"}

	cfg := LoadConfig()
	assert.Equal(t, "https://vault.example.com", cfg.ServerURL)
	assert.Equal(t, "laptop", cfg.DeviceID)
	assert.Equal(t, "passvault_key.pem", cfg.KeyFile)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"server_url":"https://json.example.com","key_file":"k.pem"}`), 0o600))

	os.Args = []string{"cli", "-c", path}

	cfg := LoadConfig()
	assert.Equal(t, "https://json.example.com", cfg.ServerURL)
	assert.Equal(t, "k.pem", cfg.KeyFile)
	// untouched fields keep defaults
	assert.Equal(t, ".passvault_session", cfg.SessionFile)
}

func TestLoadConfig_FlagBeatsJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"https://json.example.com"}`), 0o600))

	os.Args = []string{"cli", "-c", path, "-a", "https://flag.example.com"}

	cfg := LoadConfig()
	assert.Equal(t, "https://flag.example.com", cfg.ServerURL)
}
