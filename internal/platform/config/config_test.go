package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(home, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".studypact", "studypact.db"), cfg.DBPath)
	assert.Equal(t, 25*time.Minute, cfg.Focus.Duration.Std())
	assert.Equal(t, int64(5), cfg.Focus.Penalty)
	assert.Equal(t, int64(30), cfg.Challenge.BanLiftCost)
	assert.Equal(t, 72*time.Hour, cfg.Challenge.BanDuration.Std())
	assert.Equal(t, 10*time.Minute, cfg.Challenge.CheckInGrace.Std())
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "sqlite", cfg.Wallet.Backend)
	require.NotNil(t, cfg.Notify.Console)
	assert.True(t, *cfg.Notify.Console)
}

func TestLoadYAMLWithEnvPlaceholdersAndDotEnv(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("STUDYPACT_TEST_HOOK=https://discord.test/hook\n"), 0o644))
	t.Setenv(UserEnv, "")
	content := `
user: alice
timezone: UTC
notify:
  discord_webhook: ${STUDYPACT_TEST_HOOK}
focus:
  duration: 50m
  penalty: 8
challenge:
  templates: templates.yaml
  ban_duration: 48h
`
	require.NoError(t, os.WriteFile(filepath.Join(home, DefaultFileName), []byte(content), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("STUDYPACT_TEST_HOOK") })

	cfg, err := Load(home, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "https://discord.test/hook", cfg.Notify.DiscordWebhook)
	assert.Equal(t, 50*time.Minute, cfg.Focus.Duration.Std())
	assert.Equal(t, int64(8), cfg.Focus.Penalty)
	assert.Equal(t, int64(10), cfg.Focus.Reward)
	assert.Equal(t, 48*time.Hour, cfg.Challenge.BanDuration.Std())
	assert.Equal(t, filepath.Join(home, "templates.yaml"), cfg.Challenge.Templates)
}

func TestLoadTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv(UserEnv, "")
	path := filepath.Join(home, "studypact.toml")
	content := `
user = "bob"
log_level = "debug"

[wallet]
backend = "postgres"

[wallet.postgres]
host = "db"
user = "pact"
password = "secret"
dbname = "pact"

[challenge]
check_in_grace = "15m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(home, path)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.User)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.Wallet.Backend)
	assert.Equal(t, "postgres://pact:secret@db:5432/pact?sslmode=disable", cfg.Wallet.Postgres.DSN())
	assert.Equal(t, 15*time.Minute, cfg.Challenge.CheckInGrace.Std())
}

func TestUserEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, DefaultFileName), []byte("user: alice\n"), 0o644))
	t.Setenv(UserEnv, "carol")

	cfg, err := Load(home, "")
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.User)
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"store", "store:\n  backend: etcd\n"},
		{"wallet", "wallet:\n  backend: mysql\n"},
		{"timezone", "timezone: Mars/Olympus\n"},
		{"duration", "focus:\n  duration: forever\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(home, DefaultFileName), []byte(tt.content), 0o644))
			_, err := Load(home, "")
			assert.Error(t, err)
		})
	}
}

func TestExpandEnvLeavesUnknownPlaceholders(t *testing.T) {
	t.Setenv("STUDYPACT_KNOWN", "x")
	out := ExpandEnv([]byte("a=${STUDYPACT_KNOWN} b=${STUDYPACT_SURELY_UNSET_VAR}"))
	assert.Equal(t, "a=x b=${STUDYPACT_SURELY_UNSET_VAR}", string(out))
}
