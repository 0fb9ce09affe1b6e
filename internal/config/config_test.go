package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBindAddressDefaultsToAllInterfaces(t *testing.T) {
	cfg := Config{ServerHost: ""}
	assert.Equal(t, "0.0.0.0", cfg.GetBindAddress())
}

func TestGetBindAddressHonorsExplicitHost(t *testing.T) {
	cfg := Config{ServerHost: "127.0.0.1"}
	assert.Equal(t, "127.0.0.1", cfg.GetBindAddress())
}

func TestGetListenAddressCombinesHostAndPort(t *testing.T) {
	cfg := Config{ServerHost: "127.0.0.1", ServerPort: 12345}
	assert.Equal(t, "127.0.0.1:12345", cfg.GetListenAddress())
}

func TestValidateConfigRejectsBadPort(t *testing.T) {
	cfg := defaultConfig
	cfg.ServerPort = 0
	assert.Error(t, validateConfig(&cfg))

	cfg = defaultConfig
	cfg.ServerPort = 70000
	assert.Error(t, validateConfig(&cfg))
}

func TestValidateConfigRejectsEmptyDirs(t *testing.T) {
	cfg := defaultConfig
	cfg.UsersDir = ""
	assert.Error(t, validateConfig(&cfg))

	cfg = defaultConfig
	cfg.GamesDir = ""
	assert.Error(t, validateConfig(&cfg))
}

func TestValidateConfigRejectsTooFewMaxClients(t *testing.T) {
	cfg := defaultConfig
	cfg.MaxClients = 1
	assert.Error(t, validateConfig(&cfg))
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	cfg := defaultConfig
	assert.NoError(t, validateConfig(&cfg))
}

func TestApplyEnvOverlaysProcessEnvironment(t *testing.T) {
	t.Setenv("SERVER_HOST", "10.0.0.5")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("MAX_CLIENTS", "128")

	cfg := defaultConfig
	require.NoError(t, applyEnv(&cfg))

	assert.Equal(t, "10.0.0.5", cfg.ServerHost)
	assert.Equal(t, 9999, cfg.ServerPort)
	assert.Equal(t, 128, cfg.MaxClients)
	assert.Equal(t, defaultConfig.UsersDir, cfg.UsersDir)
}

func TestApplyEnvRejectsNonNumericPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	cfg := defaultConfig
	assert.Error(t, applyEnv(&cfg))
}

func TestCreateDefaultEnvFileWritesReadableDefaults(t *testing.T) {
	path := t.TempDir() + "/.env"
	require.NoError(t, createDefaultEnvFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SERVER_PORT=12345")
}
