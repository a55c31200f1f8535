// Package dto contiene los payloads JSON de la API v1.
package dto

import (
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/types"
)

// ─── Usuarios ───

type EnrollRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
	// Proof opcional: atributos a registrar en el alta.
	Proof string `json:"proof,omitempty"`
}

type EnrollResponse struct {
	Username string `json:"username"`
}

type ChangeCredentialRequest struct {
	OldCredential string `json:"old_credential"`
	NewCredential string `json:"new_credential"`
}

// ─── Login ───

type LoginRequest struct {
	Username   string        `json:"username"`
	Credential string        `json:"credential"`
	MFAToken   string        `json:"mfa_token,omitempty"`
	MFAType    string        `json:"mfa_type,omitempty"`
	Policy     *types.Policy `json:"policy,omitempty"`
}

type LoginResponse struct {
	Cookie      string         `json:"cookie"`
	Claims      map[string]any `json:"claims,omitempty"`
	ClaimToken  string         `json:"claim_token,omitempty"`
	TokenExpiry *time.Time     `json:"claim_token_expires_at,omitempty"`
}

// ─── Atributos y políticas ───

type AssertionsRequest struct {
	Policy types.Policy `json:"policy"`
}

type AssertionsResponse struct {
	Claims map[string]any `json:"claims"`
}

type AddAttributesRequest struct {
	Proof string `json:"proof"`
}

type AttributesResponse struct {
	Attributes map[string]types.Attribute `json:"attributes"`
}

type DeleteAttributesRequest struct {
	Keys []string `json:"keys"`
}

type DeleteAttributesResponse struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// ─── MFA ───

type MFASecretRequest struct {
	Type string `json:"type"`
}

type MFASecretResponse struct {
	Type       string `json:"type"`
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url,omitempty"`
}

type MFATokenRequest struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type MFAActivateResponse struct {
	Activated bool `json:"activated"`
}

type MFADeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ─── Sesión ───

type RefreshResponse struct {
	Cookie  string `json:"cookie"`
	Rotated bool   `json:"rotated"`
}

type SessionResponse struct {
	Username   string       `json:"username"`
	Roles      []types.Role `json:"roles"`
	Expiration time.Time    `json:"expiration"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}
