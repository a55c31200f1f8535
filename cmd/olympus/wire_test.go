package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/config"
	"github.com/dropDatabas3/olympus/internal/security/totp"
)

func TestBuildMemoryStack(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	app, err := build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.Nil(t, app.metricsHandler)

	for _, path := range []string{"/healthz", "/metrics", "/.well-known/jwks.json"} {
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestBuildAuthenticators_DummyNeedsFlag(t *testing.T) {
	// env por defecto (dev) no basta para exponer el dummy
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.App.Env)
	auths := buildAuthenticators(cfg)
	require.Contains(t, auths, totp.Type)
	require.NotContains(t, auths, totp.DummyType)

	cfg.MFA.EnableDummy = true
	require.Contains(t, buildAuthenticators(cfg), totp.DummyType)
}

func TestBuildRejectsUnknownScheme(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.Scheme = "kerberos"

	_, err = build(context.Background(), cfg)
	require.ErrorContains(t, err, "unknown auth scheme")
}

func TestMetricsNamespace(t *testing.T) {
	require.Equal(t, "olympus", metricsNamespace(""))
	require.Equal(t, "my_auth_svc", metricsNamespace("My-Auth svc"))
}
