package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.Sessions.Driver)
	require.Equal(t, 64, c.Sessions.CookieBytes)
	require.Equal(t, "password", c.Auth.Scheme)
	require.Equal(t, time.Hour, Duration(c.Sessions.TTL))
	require.Equal(t, "olympus", c.MFA.Issuer)
}

func TestLoad_YAML(t *testing.T) {
	p := write(t, "olympus.yaml", `
app:
  env: staging
server:
  addr: ":9000"
sessions:
  driver: redis
  redis:
    addr: "127.0.0.1:6379"
  ttl: 30m
security:
  password_blacklist_path: blacklist.txt
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "staging", c.App.Env)
	require.Equal(t, ":9000", c.Server.Addr)
	require.Equal(t, "redis", c.Sessions.Driver)
	require.Equal(t, 30*time.Minute, Duration(c.Sessions.TTL))
	require.Equal(t, filepath.Join(filepath.Dir(p), "blacklist.txt"), c.Security.PasswordBlacklistPath)
}

func TestLoad_TOML(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	p := write(t, "olympus.toml", `
[auth]
scheme = "threshold-oprf"
throttle_period = "2s"

[threshold]
shared_mfa_key = "`+key+`"
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "threshold-oprf", c.Auth.Scheme)
	require.Equal(t, 2*time.Second, Duration(c.Auth.ThrottlePeriod))

	k, err := c.SharedMFAKey()
	require.NoError(t, err)
	require.Len(t, k, 32)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OLYMPUS_SERVER_ADDR", ":7000")
	t.Setenv("OLYMPUS_APP_ENV", "DEV")
	t.Setenv("OLYMPUS_REDIS_DB", "3")
	t.Setenv("OLYMPUS_RATE_ENABLED", "true")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":7000", c.Server.Addr)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, 3, c.Sessions.Redis.DB)
	require.True(t, c.Rate.Enabled)
}

func TestValidate_Errors(t *testing.T) {
	p := write(t, "bad.yaml", `
storage:
  driver: postgres
sessions:
  ttl: forever
auth:
  scheme: threshold-oprf
`)
	_, err := Load(p)
	require.Error(t, err)
	require.ErrorContains(t, err, "storage.dsn required")
	require.ErrorContains(t, err, "sessions.ttl")
	require.ErrorContains(t, err, "shared_mfa_key required")
}

func TestValidate_ProdNeedsSecretBoxKey(t *testing.T) {
	t.Setenv("OLYMPUS_APP_ENV", "prod")
	t.Setenv("OLYMPUS_STORAGE_DRIVER", "postgres")
	t.Setenv("OLYMPUS_STORAGE_DSN", "postgres://localhost/olympus")

	_, err := Load("")
	require.ErrorContains(t, err, "secretbox_key required")
}

func TestValidate_DummyMFA(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.False(t, cfg.MFA.EnableDummy)

	t.Setenv("OLYMPUS_MFA_ENABLE_DUMMY", "true")
	cfg, err = Load("")
	require.NoError(t, err)
	require.True(t, cfg.MFA.EnableDummy)

	t.Setenv("OLYMPUS_APP_ENV", "prod")
	_, err = Load("")
	require.ErrorContains(t, err, "mfa.enable_dummy not allowed in prod")
}
