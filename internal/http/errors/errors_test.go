package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/security/password"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		detail string
	}{
		{"policy", autherr.ErrPolicyUnfulfilled.WithDetail("age GT 30"), 403, "POLICY_UNFULFILLED", "age GT 30"},
		{"auth hides detail", autherr.ErrAuthenticationFailed.WithDetail("mfa token rejected"), 401, "AUTHENTICATION_FAILED", ""},
		{"conflict", autherr.ErrOperationFailed.WithCause(repository.ErrConflict), 409, "ALREADY_EXISTS", ""},
		{"weak", autherr.ErrOperationFailed.WithDetail("weak password: min_length").WithCause(password.ErrWeak), 400, "WEAK_PASSWORD", "weak password: min_length"},
		{"mfa active", autherr.ErrOperationFailed.WithDetail("mfa type already active").WithCause(mfa.ErrAlreadyActive), 409, "ALREADY_EXISTS", "mfa type already active"},
		{"mfa none", autherr.ErrOperationFailed.WithCause(mfa.ErrNoneType), 400, "UNSUPPORTED_MFA_TYPE", ""},
		{"operation", autherr.Operation(fmt.Errorf("dial tcp: refused")), 500, "OPERATION_FAILED", ""},
		{"plain", fmt.Errorf("boom"), 500, "INTERNAL_SERVER_ERROR", ""},
		{"app error", ErrRateLimitExceeded, 429, "RATE_LIMIT_EXCEEDED", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			require.Equal(t, tc.status, got.HTTPStatus)
			require.Equal(t, tc.code, got.Code)
			require.Equal(t, tc.detail, got.Detail)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "rid-1")
	WriteError(rec, autherr.ErrPolicyUnfulfilled.WithDetail("no attribute age"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "POLICY_UNFULFILLED", body["code"])
	require.Equal(t, "no attribute age", body["detail"])
	require.Equal(t, "rid-1", body["request_id"])
}
