package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.Defaults()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 30*time.Second, c.GetPairingTimeout())
	require.Equal(t, 5*time.Second, c.GetReconnectBaseDelay())
	require.Equal(t, 5, c.GetMaxReconnectAttempts())
	require.Equal(t, time.Duration(0), c.GetReconnectMaxDelay())
	require.Equal(t, 5*time.Minute, c.GetSweepInterval())
	require.Equal(t, []string{"!", ".", "/", "#"}, c.GetPrefixes())

	userMax, userWindow := c.GetUserRateLimit()
	require.Equal(t, 10, userMax)
	require.Equal(t, time.Minute, userWindow)

	globalMax, globalWindow := c.GetGlobalRateLimit()
	require.Equal(t, 100, globalMax)
	require.Equal(t, time.Minute, globalWindow)

	require.Equal(t, filepath.Join("data", "sessions"), filepath.Clean(c.GetSessionsFolder()))
	require.False(t, c.SSOEnabled())
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fleet.toml")
	content := `
[server]
port = "9090"

[session]
max_reconnect_attempts = 3
pairing_timeout = "10s"

[cors]
allowed_origins = ["https://ops.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("FLEET_BOT_NAME", "Env Bot")

	c, err := config.New(config.WithConfigFile(path))
	require.NoError(t, err)

	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, 3, c.GetMaxReconnectAttempts())
	require.Equal(t, 10*time.Second, c.GetPairingTimeout())
	require.Equal(t, "Env Bot", c.GetBotName())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://ops.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://other.example.com"))
}

func TestOverride(t *testing.T) {
	dir := t.TempDir()
	c, err := config.New(config.WithOverride("data.folder", dir))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "operators.toml"), c.GetOperatorsFile())
	require.Equal(t, filepath.Join(dir, "databases"), c.GetDatabasesFolder())
}
