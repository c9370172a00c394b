package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Setting environment variables.
func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for key, value := range vars {
		key := key // per-iteration copy for the cleanup closure under Go <1.22 loop semantics
		err := os.Setenv(key, value)
		require.NoError(t, err, "failed to set env var %s", key)

		// Ensure that the env vars are cleared after the test
		t.Cleanup(func() {
			os.Unsetenv(key)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CONFIG_PATH": "does-not-exist.yml",
	})

	config, err := MustLoadConfig()
	require.NoError(t, err)

	require.Equal(t, "production", config.Environment)
	require.Equal(t, "sqlite3", config.Database.Driver)
	require.Equal(t, ":memory:", config.Database.Connection)
	require.Equal(t, 3, config.Moderation.StrikesForSuspension)
	require.Equal(t, 3, config.Moderation.SuspensionsForBan)
	require.Equal(t, 168*time.Hour, config.Moderation.SuspensionDuration)
	require.Equal(t, 10*time.Minute, config.Moderation.DedupWindow)
	require.Equal(t, time.Minute, config.Moderation.SweepInterval)
	require.Equal(t, 8080, config.API.Port)
	require.False(t, config.Metrics.Enabled)
}

func TestConfigEnvOverrides(t *testing.T) {
	setEnvVars(t, map[string]string{
		"CONFIG_PATH":                       "does-not-exist.yml",
		"ENVIRONMENT":                       "staging",
		"SECRET":                            "s3cr3t",
		"DATABASE_DRIVER":                   "postgres",
		"DATABASE_CONNECTION":               "host=localhost dbname=moderation",
		"MODERATION_STRIKES_FOR_SUSPENSION": "5",
		"MODERATION_SUSPENSION_DURATION":    "72h",
		"API_PORT":                          "9090",
	})

	config, err := MustLoadConfig()
	require.NoError(t, err)

	require.Equal(t, "staging", config.Environment)
	require.Equal(t, "s3cr3t", config.Secret)
	require.Equal(t, "postgres", config.Database.Driver)
	require.Equal(t, "host=localhost dbname=moderation", config.Database.Connection)
	require.Equal(t, 5, config.Moderation.StrikesForSuspension)
	require.Equal(t, 72*time.Hour, config.Moderation.SuspensionDuration)
	require.Equal(t, 9090, config.API.Port)
}

func TestConfigFromFile(t *testing.T) {
	content := []byte(`
environment: development
database:
  driver: sqlite3
  connection: ":memory:"
moderation:
  suspensions_for_ban: 4
`)

	file, err := os.CreateTemp(t.TempDir(), "config-*.yml")
	require.NoError(t, err)

	_, err = file.Write(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	setEnvVars(t, map[string]string{
		"CONFIG_PATH": file.Name(),
	})

	config, err := MustLoadConfig()
	require.NoError(t, err)

	require.Equal(t, "development", config.Environment)
	require.Equal(t, 4, config.Moderation.SuspensionsForBan)
	// Untouched sections keep their defaults.
	require.Equal(t, 3, config.Moderation.StrikesForSuspension)
}
